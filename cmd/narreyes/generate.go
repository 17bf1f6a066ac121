package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"narreyes/internal/generation"
)

func generateCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "generate [prompt]",
		Short: "Run one generation call from the terminal",
		Example: `  narreyes generate --category scene "a storm over the harbour"
  narreyes generate --category dialogue "two rivals meet again"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			categories, err := generation.LoadCategories()
			if err != nil {
				return err
			}

			client := generation.NewClient(generation.Options{
				URL:     a.cfg.GenerationAPIURL,
				APIKey:  a.cfg.GenerationAPIKey,
				Timeout: a.cfg.GenerationTimeout,
				Referer: a.cfg.GenerationReferer,
				Title:   a.cfg.GenerationTitle,
			}, categories, a.logger)

			result, err := client.Generate(cmd.Context(), &generation.Request{
				Prompt:   strings.Join(args, " "),
				Category: category,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "[%s via %s]\n", result.Category, result.Model)
			fmt.Fprintln(cmd.OutOrStdout(), result.Result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "Prompt category: "+strings.Join(generationCategoryNames(), ", "))
	return cmd
}

func generationCategoryNames() []string {
	categories, err := generation.LoadCategories()
	if err != nil {
		return nil
	}
	return categories.Names()
}
