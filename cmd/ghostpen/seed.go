package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/ghostpen/internal/ingestion"
)

var seedCmd = &cobra.Command{
	Use:   "seed <profiles.json>",
	Short: "Load a profiles file into the database",
	Long:  `Upserts every profile of the file, replacing stored profiles with the same author id.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	f, err := ingestion.LoadProfiles(args[0])
	if err != nil {
		return err
	}
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	for i := range f.Profiles {
		if err := store.SaveProfile(ctx, &f.Profiles[i]); err != nil {
			return fmt.Errorf("failed to save profile %s: %w", f.Profiles[i].AuthorID, err)
		}
		logger.Debug("profile seeded", zap.String("author_id", f.Profiles[i].AuthorID))
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d profiles\n", len(f.Profiles))
	return nil
}
