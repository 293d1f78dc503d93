package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/jonathan/ghostpen/internal/observability"
	"github.com/jonathan/ghostpen/internal/scoring"
	"github.com/jonathan/ghostpen/internal/types"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a post in an author's style and score it",
	Long: `Builds the prompt from the author's profile, generates with Gemini when
GEMINI_API_KEY is set (falling back to the template generator otherwise or on
failure), post-processes the text and scores it against the profile.`,
	RunE: runGenerate,
}

var (
	generateLexicon string
	generateJSON    bool
)

func init() {
	addRequestFlags(generateCmd, true)
	generateCmd.Flags().StringVar(&generateLexicon, "lexicon", "", "Lexicon file or builtin name used for scoring")
	generateCmd.Flags().BoolVar(&generateJSON, "json", false, "Print the full result as JSON")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	platform, err := types.ParsePlatform(platformName)
	if err != nil {
		return err
	}
	lex, err := loadLexicon(generateLexicon)
	if err != nil {
		return err
	}
	source, closeSource, err := profileSource(ctx, profilesPath)
	if err != nil {
		return err
	}
	defer closeSource()
	p, closePipeline, err := newPipeline(ctx, source, lex)
	if err != nil {
		return err
	}
	defer closePipeline()

	req := types.GenerationRequest{
		AuthorID:          authorID,
		Platform:          platform,
		Topic:             topic,
		AdditionalContext: extraContext,
	}
	result, err := p.Generate(ctx, req)
	if err != nil {
		return err
	}

	if generateJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintGeneration(result, scoring.Weights())
	return nil
}
