/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"

	"github.com/sitrack/sitrack-gin/internal/api"
	"github.com/sitrack/sitrack-gin/internal/auth"
	"github.com/sitrack/sitrack-gin/internal/config"
	"github.com/sitrack/sitrack-gin/internal/database"
	"github.com/sitrack/sitrack-gin/internal/progress"
	"github.com/sitrack/sitrack-gin/internal/repository"
	"github.com/sitrack/sitrack-gin/internal/store"
	"github.com/spf13/cobra"
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the initial dataset",
	Long: `Load the built-in initial dataset into the database: the default
administrator account and one example letter with an assignment in
progress. Existing rows with the same ids are overwritten, everything
else is left alone. Run this once on a fresh install so the dashboards
are not empty.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		log, err := api.NewLoggerFromConfig(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		db, err := database.Connect(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect database: %w", err)
		}
		defer func() {
			sqlDB, _ := db.DB()
			if sqlDB != nil {
				sqlDB.Close()
			}
		}()

		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		users := repository.NewUserRepository(db)
		reports := repository.NewReportRepository(db)
		seed := store.Seed()

		for _, user := range seed.Users {
			hash, err := auth.HashPassword(user.Password, cfg.Auth.BcryptCost)
			if err != nil {
				return fmt.Errorf("failed to hash password for %s: %w", user.Name, err)
			}
			user.Password = hash
			if err := users.Save(&user); err != nil {
				return fmt.Errorf("failed to seed user %s: %w", user.Name, err)
			}
			log.WithField("user", user.Name).Info("seeded user")
		}

		for _, report := range seed.Reports {
			progress.Derive(&report)
			if err := reports.Save(&report); err != nil {
				return fmt.Errorf("failed to seed report %s: %w", report.ID, err)
			}
			log.WithField("report", report.ID).Info("seeded report")
		}

		log.Info("seed completed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().String("config", "", "Config file path (default: search in current directory, ./config, or $HOME/.sitrack)")
}
