package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/ghostpen/internal/prompting"
	"github.com/jonathan/ghostpen/internal/prompts"
	"github.com/jonathan/ghostpen/internal/types"
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the generation prompt for an author without calling a model",
	RunE:  runPrompt,
}

// Flags shared by prompt, generate and score.
var (
	profilesPath string
	authorID     string
	platformName string
	topic        string
	extraContext string
)

func addRequestFlags(cmd *cobra.Command, withTopic bool) {
	cmd.Flags().StringVarP(&profilesPath, "profiles", "p", "", "Profiles file; the database is used when empty")
	cmd.Flags().StringVarP(&authorID, "author", "a", "", "Author id (required)")
	cmd.Flags().StringVar(&platformName, "platform", string(types.PlatformTelegram), "Target platform (linkedin, instagram, facebook, telegram)")
	if err := cmd.MarkFlagRequired("author"); err != nil {
		panic(fmt.Sprintf("failed to mark author flag as required: %v", err))
	}
	if withTopic {
		cmd.Flags().StringVarP(&topic, "topic", "t", "", "Post topic (required)")
		cmd.Flags().StringVar(&extraContext, "context", "", "Additional context for the post")
		if err := cmd.MarkFlagRequired("topic"); err != nil {
			panic(fmt.Sprintf("failed to mark topic flag as required: %v", err))
		}
	}
}

func init() {
	addRequestFlags(promptCmd, true)
	rootCmd.AddCommand(promptCmd)
}

func runPrompt(cmd *cobra.Command, _ []string) error {
	platform, err := types.ParsePlatform(platformName)
	if err != nil {
		return err
	}
	source, cleanup, err := profileSource(cmd.Context(), profilesPath)
	if err != nil {
		return err
	}
	defer cleanup()

	builder := prompting.NewBuilder(prompts.DefaultRules(), source)
	prompt, _, err := builder.BuildForAuthor(cmd.Context(), authorID, string(platform), topic, extraContext)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), prompt)
	return nil
}
