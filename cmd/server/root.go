package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/skillsync/skillsync/internal/config"
	"github.com/skillsync/skillsync/internal/logger"
)

const appName = "skillsync"

var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use:          appName,
		Short:        "skillsync matches internship postings and student resumes",
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "optional config file (yaml, json or toml)")
}

// setup loads the configuration and builds the logger every command shares.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.LogJSON, cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("creating a logger: %w", err)
	}
	return cfg, log, nil
}
