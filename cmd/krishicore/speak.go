package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	speakLang string
	speakOut  string
)

var speakCmd = &cobra.Command{
	Use:   "speak [text]",
	Short: "Convert advice text to speech audio",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		advisor, err := newAdvisor()
		if err != nil {
			return err
		}
		defer advisor.Close()

		text := strings.Join(args, " ")
		audio, err := advisor.Speak(cmd.Context(), text, speakLang)
		if err != nil {
			return err
		}

		if err := os.WriteFile(speakOut, audio, 0o644); err != nil {
			return fmt.Errorf("writing audio: %w", err)
		}
		fmt.Printf("wrote %d bytes to %s\n", len(audio), speakOut)
		return nil
	},
}

func init() {
	speakCmd.Flags().StringVarP(&speakLang, "lang", "l", "hi-IN", "target language for speech")
	speakCmd.Flags().StringVarP(&speakOut, "out", "o", "advice.wav", "output audio file")
}
