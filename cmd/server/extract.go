package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/skillsync/skillsync/internal/topics"
)

var posting topics.Posting

var extractCmd = &cobra.Command{
	Use:   "extract-topics",
	Short: "Print the topics extracted from a posting without storing anything",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		extractor, err := newExtractor(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		result, err := extractor.Extract(cmd.Context(), posting)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVar(&posting.Title, "title", "", "posting title")
	extractCmd.Flags().StringVar(&posting.Description, "description", "", "posting description")
	extractCmd.Flags().StringVar(&posting.Requirements, "requirements", "", "posting requirements")
	_ = extractCmd.MarkFlagRequired("title")
}
