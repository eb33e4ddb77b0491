package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var newsForce bool

var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "Show current farming news flashcards",
	RunE: func(cmd *cobra.Command, args []string) error {
		advisor, err := newAdvisor()
		if err != nil {
			return err
		}
		defer advisor.Close()

		result, err := advisor.RefreshNews(cmd.Context(), newsForce)
		if err != nil {
			return err
		}

		origin := "fresh"
		if result.FromCache {
			origin = "cached"
		}
		fmt.Printf("%d flashcards (%s)\n\n", len(result.Flashcards), origin)

		for _, card := range result.Flashcards {
			fmt.Printf("• %s\n  %s\n  %s — %s\n\n",
				card.Title, card.Summary, card.Source, card.PublishedAt.Format("2006-01-02"))
		}
		return nil
	},
}

func init() {
	newsCmd.Flags().BoolVarP(&newsForce, "force", "f", false, "bypass the cache and refresh now")
}
