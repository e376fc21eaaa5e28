package main

import (
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"honeydesk/internal/config"
	applog "honeydesk/internal/log"
	"honeydesk/internal/repos"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "honeydesk",
	Short:         "Chat bot for customer registration, orders, support tickets and feedback",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "optional config file (yaml, json or toml)")
	rootCmd.AddCommand(serveCmd, migrateCmd, promoteCmd, exportCmd, hashTokenCmd)
}

// setup loads config, the logger and the database shared by every command.
func setup() (config.Config, *sqlx.DB, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return cfg, nil, err
	}
	if _, err := applog.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		return cfg, nil, err
	}
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, db, nil
}
