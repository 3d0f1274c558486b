package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSessionCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or reset the conversation session",
	}

	cmd.AddCommand(newSessionShowCmd(app), newSessionNewCmd(app))

	return cmd
}

func newSessionShowCmd(app *app) *cobra.Command {
	var asJSON bool
	var last int

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current session and recent history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conversation, closeSessions, err := app.conversation(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closeSessions()

			state := conversation.State()
			if asJSON {
				return writeJSON(cmd, struct {
					SessionID string `json:"session_id"`
					Messages  int    `json:"messages"`
				}{SessionID: string(state.SessionID), Messages: len(state.History)})
			}

			out := cmd.OutOrStdout()
			if _, err := fmt.Fprintf(out, "session: %s\nmessages: %d\n", state.SessionID, len(state.History)); err != nil {
				return err
			}
			history := state.History
			if last > 0 && len(history) > last {
				history = history[len(history)-last:]
			}
			for _, msg := range history {
				if _, err := fmt.Fprintf(out, "  %s: %s\n", msg.Role, msg.Content); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	cmd.Flags().IntVar(&last, "last", 10, "Number of recent messages to print (0 prints all)")

	return cmd
}

func newSessionNewCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Start a new conversation session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conversation, closeSessions, err := app.conversation(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closeSessions()

			id := conversation.StartNewConversation(cmd.Context())
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "session: %s\n", id)
			return err
		},
	}
}
