package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/ghostpen/internal/ingestion"
	"github.com/jonathan/ghostpen/internal/observability"
	"github.com/jonathan/ghostpen/internal/pipeline"
	"github.com/jonathan/ghostpen/internal/types"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Build style profiles for every author of a dataset",
	Long: `Profiles each author of the dataset concurrently and writes a profiles file.
Authors without posts are skipped and reported.`,
	RunE: runProfile,
}

var (
	profileDataset   string
	profileOutput    string
	profileWorkers   int
	profileAlgorithm string
	profileLexicon   string
	profileAuthor    string
	profileVerbose   bool
)

func init() {
	profileCmd.Flags().StringVarP(&profileDataset, "dataset", "d", "", "Path to the dataset JSON file (required)")
	profileCmd.Flags().StringVarP(&profileOutput, "out", "o", "profiles.json", "Path to the output profiles file")
	profileCmd.Flags().IntVarP(&profileWorkers, "workers", "w", pipeline.DefaultWorkers, "Number of authors profiled concurrently")
	profileCmd.Flags().StringVar(&profileAlgorithm, "algorithm", "", "Profiling algorithm version (v1 or v2)")
	profileCmd.Flags().StringVar(&profileLexicon, "lexicon", "", "Lexicon file or builtin name (ru, ru_extended)")
	profileCmd.Flags().StringVar(&profileAuthor, "author", "", "Profile only this author")
	profileCmd.Flags().BoolVarP(&profileVerbose, "verbose", "v", false, "Print a summary of each profile")

	if err := profileCmd.MarkFlagRequired("dataset"); err != nil {
		panic(fmt.Sprintf("failed to mark dataset flag as required: %v", err))
	}
	rootCmd.AddCommand(profileCmd)
}

func runProfile(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	ds, err := ingestion.LoadDataset(profileDataset)
	if err != nil {
		return err
	}
	authors := ds.Authors
	if profileAuthor != "" {
		authors = nil
		for _, a := range ds.Authors {
			if a.AuthorID == profileAuthor {
				authors = []types.AuthorCorpus{a}
			}
		}
		if authors == nil {
			return fmt.Errorf("author %q not found in %s", profileAuthor, profileDataset)
		}
	}

	lex, err := loadLexicon(profileLexicon)
	if err != nil {
		return err
	}
	prof, err := newProfiler(profileAlgorithm, lex, nil)
	if err != nil {
		return err
	}

	start := time.Now()
	batch, err := pipeline.ProfileAll(ctx, prof, authors, pipeline.ProfileOptions{
		Workers: profileWorkers,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	if err := ingestion.WriteProfiles(profileOutput, batch.Profiles, time.Now()); err != nil {
		return err
	}

	logger.Info("profiling finished",
		zap.Int("profiles", len(batch.Profiles)),
		zap.Strings("skipped", batch.Skipped),
		zap.Duration("elapsed", time.Since(start)),
	)

	out := cmd.OutOrStdout()
	if profileVerbose {
		printer := observability.NewPrinter(out)
		for i := range batch.Profiles {
			printer.PrintProfile(&batch.Profiles[i])
		}
	}
	_, _ = fmt.Fprintf(out, "Wrote %d profiles (%s) to %s\n", len(batch.Profiles), prof.Version(), profileOutput)
	for _, id := range batch.Skipped {
		_, _ = fmt.Fprintf(out, "Skipped %s: no posts\n", id)
	}
	return nil
}
