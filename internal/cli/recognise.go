package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var recogniseCmd = &cobra.Command{
	Use:   "recognise",
	Short: "Transcribe an audio file",
	Long: `Upload an audio file to /recognise and print the transcript.

Examples:
  voice-client recognise --file speech.m4a
  voice-client recognise --file speech.mp3 --smart`,
	RunE: runRecognise,
}

// Flags
var (
	recogniseFile  string
	recogniseSmart bool
)

func init() {
	rootCmd.AddCommand(recogniseCmd)

	recogniseCmd.Flags().StringVarP(&recogniseFile, "file", "f", "", "Audio file to upload")
	recogniseCmd.Flags().BoolVar(&recogniseSmart, "smart", false, "Ask the server to correct the transcript")
	_ = recogniseCmd.MarkFlagRequired("file")
}

func runRecognise(cmd *cobra.Command, args []string) error {
	transcript, err := newClient().Recognise(context.Background(), recogniseFile, recogniseSmart)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), transcript)
	return nil
}
