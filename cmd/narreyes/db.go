package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"narreyes/internal/repository/postgres"
	"narreyes/internal/service/auth"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create missing tables and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			pool, tables, err := openDatabase(cmd.Context(), a)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := postgres.EnsureSchema(cmd.Context(), pool, tables); err != nil {
				return err
			}
			a.logger.Info("schema ready", "table_prefix", a.cfg.TablePrefix)
			return nil
		},
	}
}

func resetCmd() *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop every table for the configured prefix",
		Long: `Drops the users, characters, chapters, timeline and relationships tables
for the current TABLE_PREFIX. Refused when ENVIRONMENT=prod.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return errors.New("reset deletes all data; pass --yes to confirm")
			}

			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if a.cfg.IsProduction() {
				return errors.New("refusing to reset a production database")
			}

			pool, tables, err := openDatabase(cmd.Context(), a)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := postgres.DropSchema(cmd.Context(), pool, tables); err != nil {
				return err
			}
			a.logger.Warn("tables dropped", "table_prefix", a.cfg.TablePrefix)
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirmed, "yes", false, "Confirm that all data should be deleted")
	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the development test user",
		Long: fmt.Sprintf(`Creates the %q account (password %q) if it does not exist.
Only allowed when ENVIRONMENT is dev or test.`, testUsername, testPassword),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if a.cfg.IsProduction() {
				return errors.New("refusing to seed a production database")
			}

			pool, tables, err := openDatabase(cmd.Context(), a)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := postgres.EnsureSchema(cmd.Context(), pool, tables); err != nil {
				return err
			}

			repoConfig := &postgres.RepositoryConfig{Pool: pool, Tables: tables, Logger: a.logger}
			credentials := auth.NewCredentialService(postgres.NewUserRepository(repoConfig), a.logger)
			return ensureTestUser(cmd.Context(), credentials, a.logger)
		},
	}
}
