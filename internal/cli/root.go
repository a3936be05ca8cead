package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "voice-client",
	Short: "Command-line client for the voicedit server",
	Long: `voice-client uploads an audio file to a running voicedit server and prints
the result.

Examples:
  voice-client recognise --file speech.m4a               # Raw transcript
  voice-client recognise --file speech.m4a --smart       # Corrected transcript
  voice-client edit --file commands.m4a --text "hello world"`,
	SilenceUsage: true,
}

// Flags
var (
	serverURL string
	timeout   time.Duration
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	defaultURL := os.Getenv("VOICEDIT_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8000"
	}
	rootCmd.PersistentFlags().StringVar(&serverURL, "url", defaultURL, "Base URL of the voicedit server")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Request timeout")
}

func newClient() *Client {
	return NewClient(serverURL, timeout)
}
