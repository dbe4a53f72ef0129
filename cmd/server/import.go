package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/skillsync/skillsync/internal/core"
	"github.com/skillsync/skillsync/internal/store"
)

var importFlags struct {
	company string
	file    string
}

var importCmd = &cobra.Command{
	Use:   "import-internships",
	Short: "Create internships for a company from a Markdown table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		f, err := os.Open(importFlags.file)
		if err != nil {
			return fmt.Errorf("opening %s: %w", importFlags.file, err)
		}
		defer f.Close()

		inputs, skipped, err := core.ParsePostingsTable(f)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", importFlags.file, err)
		}
		log.Info("postings parsed", zap.Int("postings", len(inputs)), zap.Int("skipped", skipped))

		a, err := newApp(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.store.EnsureUser(cmd.Context(), importFlags.company, store.RoleCompany, ""); err != nil {
			return fmt.Errorf("recording company: %w", err)
		}

		report := a.internships.ImportInternships(cmd.Context(), importFlags.company, inputs)
		report.Skipped = skipped

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
		if report.Failed > 0 {
			return fmt.Errorf("%d of %d postings failed", report.Failed, len(inputs))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importFlags.company, "company", "", "company user id that owns the postings")
	importCmd.Flags().StringVarP(&importFlags.file, "file", "f", "data.md", "Markdown file with a postings table")
	_ = importCmd.MarkFlagRequired("company")
}
