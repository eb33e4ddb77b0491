package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vampirenirmal/krishicore/internal/orchestrator"
	"github.com/vampirenirmal/krishicore/internal/step"
)

var (
	askLang     string
	askLocation string
	askCrops    []string
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a farming question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		advisor, err := newAdvisor()
		if err != nil {
			return err
		}
		defer advisor.Close()

		query := strings.Join(args, " ")
		stream, resultCh := advisor.Ask(cmd.Context(), query, orchestrator.AskOptions{
			Language: askLang,
			Location: askLocation,
			Crops:    askCrops,
		})

		for s := range stream.Steps() {
			marker := "·"
			switch s.Status {
			case step.StatusCompleted:
				marker = "✓"
			case step.StatusError:
				marker = "✗"
			case step.StatusUncertain:
				marker = "?"
			}
			if s.Duration > 0 {
				fmt.Printf("%s %s (%dms)\n", marker, s.Title, s.Duration)
			} else {
				fmt.Printf("%s %s\n", marker, s.Title)
			}
		}

		result := <-resultCh
		if !result.Success {
			return fmt.Errorf("query failed: %s", result.Err)
		}

		fmt.Println()
		fmt.Println(result.Answer)
		return nil
	},
}

func init() {
	askCmd.Flags().StringVarP(&askLang, "lang", "l", "en-IN", "answer language")
	askCmd.Flags().StringVar(&askLocation, "location", "", "farm location for context")
	askCmd.Flags().StringSliceVar(&askCrops, "crops", nil, "crops grown, comma separated")
}
