package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/ghostpen/internal/observability"
	"github.com/jonathan/ghostpen/internal/prompting"
	"github.com/jonathan/ghostpen/internal/scoring"
	"github.com/jonathan/ghostpen/internal/types"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a text against an author's style profile",
	Long:  `Reads the text from --text, --file or standard input ("-").`,
	RunE:  runScore,
}

var (
	scoreText    string
	scoreFile    string
	scoreLexicon string
	scoreJSON    bool
)

func init() {
	addRequestFlags(scoreCmd, false)
	scoreCmd.Flags().StringVar(&scoreText, "text", "", "Text to score")
	scoreCmd.Flags().StringVarP(&scoreFile, "file", "f", "", `File with the text to score ("-" for stdin)`)
	scoreCmd.Flags().StringVar(&scoreLexicon, "lexicon", "", "Lexicon file or builtin name")
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "Print the report as JSON")
	scoreCmd.MarkFlagsMutuallyExclusive("text", "file")
	rootCmd.AddCommand(scoreCmd)
}

func readScoreText(cmd *cobra.Command) (string, error) {
	switch {
	case scoreText != "":
		return scoreText, nil
	case scoreFile == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), err
	case scoreFile != "":
		data, err := os.ReadFile(scoreFile)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", scoreFile, err)
		}
		return string(data), nil
	}
	return "", errors.New("one of --text or --file is required")
}

func runScore(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	platform, err := types.ParsePlatform(platformName)
	if err != nil {
		return err
	}
	text, err := readScoreText(cmd)
	if err != nil {
		return err
	}
	text = strings.TrimSpace(text)

	lex, err := loadLexicon(scoreLexicon)
	if err != nil {
		return err
	}
	source, cleanup, err := profileSource(ctx, profilesPath)
	if err != nil {
		return err
	}
	defer cleanup()

	profile, ok, err := source.LookupProfile(ctx, authorID)
	if err != nil {
		return err
	}
	if !ok {
		return &prompting.NotFoundError{AuthorID: authorID}
	}

	report := scoring.New(lex).Score(text, profile, platform)
	if scoreJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"scores": report, "weights": scoring.Weights()})
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintScore(report, scoring.Weights())
	return nil
}
