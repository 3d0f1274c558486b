package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
)

func newListenCmd(app *app) *cobra.Command {
	var send bool
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Dictate a message through the microphone",
		Long:  "listen records until Enter is pressed (or --duration passes), prints the transcript and with --send passes it to the assistant.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			capture, err := app.voiceCapture()
			if err != nil {
				return err
			}
			if err := capture.Start(ctx); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "listening, press Enter to stop")
			waitForStop(ctx, cmd, duration)
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "transcribing...")
			capture.Stop()

			state := capture.State()
			if state.Error != "" {
				return errors.New(state.Error)
			}
			if state.Transcript == "" {
				return errors.New("nothing was recognized")
			}
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), state.Transcript); err != nil {
				return err
			}
			if !send {
				return nil
			}

			conversation, closeSessions, err := app.conversation(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closeSessions()
			cart, err := app.cartService(cmd.Context(), newPromptConfirmer(cmd.InOrStdin(), cmd.ErrOrStderr(), false))
			if err != nil {
				return err
			}
			session := &chatSession{
				app:          app,
				conversation: conversation,
				cart:         cart,
				out:          cmd.OutOrStdout(),
				errOut:       cmd.ErrOrStderr(),
			}
			return session.turn(cmd.Context(), state.Transcript)
		},
	}

	cmd.Flags().BoolVar(&send, "send", false, "Send the transcript to the assistant")
	cmd.Flags().DurationVar(&duration, "duration", 0, "Stop recording after this long (0 waits for Enter)")

	return cmd
}

// waitForStop returns when the user presses Enter, duration elapses or ctx ends.
func waitForStop(ctx context.Context, cmd *cobra.Command, duration time.Duration) {
	entered := make(chan struct{})
	go func() {
		_, _ = bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		close(entered)
	}()

	var timeout <-chan time.Time
	if duration > 0 {
		timer := time.NewTimer(duration)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-entered:
	case <-timeout:
	case <-ctx.Done():
	}
}
