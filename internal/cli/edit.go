package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Apply spoken editing commands to a text",
	Long: `Upload recorded editing commands to /edit and print the edited text.

Examples:
  voice-client edit --file commands.m4a --text "hello world"`,
	RunE: runEdit,
}

// Flags
var (
	editFile string
	editText string
)

func init() {
	rootCmd.AddCommand(editCmd)

	editCmd.Flags().StringVarP(&editFile, "file", "f", "", "Audio file with the spoken commands")
	editCmd.Flags().StringVarP(&editText, "text", "t", "", "Text to edit")
	_ = editCmd.MarkFlagRequired("file")
	_ = editCmd.MarkFlagRequired("text")
}

func runEdit(cmd *cobra.Command, args []string) error {
	edited, err := newClient().Edit(context.Background(), editFile, editText)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), edited)
	return nil
}
