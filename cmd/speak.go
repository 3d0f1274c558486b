package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/ndoemo02/Freeflow-Final/internal/application"
	"github.com/ndoemo02/Freeflow-Final/internal/domain"
	"github.com/spf13/cobra"
)

func newSpeakCmd(app *app) *cobra.Command {
	var chunked bool
	var engine string
	var voice domain.VoiceOptions

	cmd := &cobra.Command{
		Use:   "speak <text>",
		Short: "Read text aloud",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			playback, err := app.playback(engine)
			if err != nil {
				return err
			}
			defer playback.Stop()

			opts := app.voiceOptions()
			if cmd.Flags().Changed("rate") {
				opts.Rate = voice.Rate
			}
			if cmd.Flags().Changed("pitch") {
				opts.Pitch = voice.Pitch
			}
			if voice.Voice != "" {
				opts.Voice = voice.Voice
			}

			return sayText(ctx, app, playback, strings.Join(args, " "), opts, chunked, cmd.ErrOrStderr())
		},
	}

	cmd.Flags().BoolVar(&chunked, "chunked", false, "Split long text into sentences with short pauses")
	cmd.Flags().StringVar(&engine, "engine", "", "Speech engine (auto, native or cloud; defaults to speech.engine)")
	cmd.Flags().Float64Var(&voice.Rate, "rate", 1, "Speaking rate multiplier")
	cmd.Flags().Float64Var(&voice.Pitch, "pitch", 1, "Pitch multiplier")
	cmd.Flags().StringVar(&voice.Voice, "voice", "", "Voice name")

	return cmd
}

// sayText speaks with the local engine and falls back to cloud speech when no local engine
// is wired.
func sayText(ctx context.Context, app *app, playback *application.PlaybackController, text string, opts domain.VoiceOptions, chunked bool, progress io.Writer) error {
	var err error
	if chunked {
		chunks := application.SplitIntoChunks(text, application.DefaultChunkMaxRune)
		err = playback.PlayChunked(ctx, chunks, domain.ChunkOptions{
			VoiceOptions:       opts,
			PauseBetweenChunks: app.cfg.Speech.ChunkPause,
			OnProgress: func(done, total int) {
				if progress != nil && total > 1 {
					_, _ = fmt.Fprintf(progress, "\r%d/%d", done, total)
					if done == total {
						_, _ = fmt.Fprintln(progress)
					}
				}
			},
		})
	} else {
		err = playback.Speak(ctx, text, opts)
	}

	if errors.Is(err, domain.ErrEngineUnavailable) {
		app.logger.Debug("no local speech engine, using cloud speech")
		return playback.SpeakCloud(ctx, text, opts)
	}
	return err
}
