package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	kdsrender "github.com/ndoemo02/Freeflow-Final/internal/adapters/render/kds"
	"github.com/ndoemo02/Freeflow-Final/internal/application"
	"github.com/ndoemo02/Freeflow-Final/internal/domain"
	"github.com/spf13/cobra"
)

var replCommands = []string{
	"/new    start a new conversation",
	"/cart   show the cart",
	"/exit   leave",
}

type chatSession struct {
	app          *app
	conversation *application.ConversationService
	cart         *application.CartService
	playback     *application.PlaybackController
	out          io.Writer
	errOut       io.Writer
	asJSON       bool

	// In the REPL replies play in the background so the next line can cut them off.
	background bool
	speaking   sync.WaitGroup
	mu         sync.Mutex
	hush       context.CancelFunc
}

func newChatCmd(app *app) *cobra.Command {
	var speak bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Talk to the ordering assistant",
		Long:  "With a message, chat sends one turn and prints the reply. Without one it opens an interactive session.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			conversation, closeSessions, err := app.conversation(ctx, speak)
			if err != nil {
				return err
			}
			defer closeSessions()

			cart, err := app.cartService(ctx, newPromptConfirmer(cmd.InOrStdin(), cmd.ErrOrStderr(), false))
			if err != nil {
				return err
			}

			session := &chatSession{
				app:          app,
				conversation: conversation,
				cart:         cart,
				out:          cmd.OutOrStdout(),
				errOut:       cmd.ErrOrStderr(),
				asJSON:       asJSON,
			}
			if speak {
				playback, err := app.playback("")
				if err != nil {
					return err
				}
				defer playback.Stop()
				session.playback = playback
			}

			if len(args) > 0 {
				return session.turn(ctx, strings.Join(args, " "))
			}
			return session.repl(ctx, cmd.InOrStdin())
		},
	}

	cmd.Flags().BoolVar(&speak, "speak", false, "Read replies aloud")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full assistant response as JSON")

	return cmd
}

func (s *chatSession) turn(ctx context.Context, text string) error {
	var resp *domain.BrainResponse
	err := runWithSpinner(ctx, s.errOut, "Thinking...", func(ctx context.Context) error {
		resp = s.conversation.SendMessage(ctx, text)
		return nil
	})
	if err != nil {
		return err
	}
	if resp == nil {
		if msg := s.conversation.State().Error; msg != "" {
			return errors.New(msg)
		}
		return nil
	}

	if s.asJSON {
		enc := json.NewEncoder(s.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return err
		}
	} else {
		if _, err := fmt.Fprintf(s.out, "ff> %s\n", resp.Reply); err != nil {
			return err
		}
		writeHints(s.out, *resp)
	}

	if resp.Cart != nil {
		if err := s.cart.SyncCart(ctx, resp.Cart.Items, resp.Cart.Restaurant); err != nil {
			s.app.logger.Warn("cart sync failed", "error", err)
		} else if !s.asJSON {
			cart := s.cart.Cart()
			_, _ = fmt.Fprintf(s.out, "cart: %d items, total %s\n", cart.ItemCount(), kdsrender.FormatPrice(cart.Total()))
		}
	}

	if resp.ConversationClosed() && !s.asJSON {
		_, _ = fmt.Fprintf(s.out, "conversation closed, new session %s\n", s.conversation.State().SessionID)
	}

	s.speak(ctx, *resp)
	return nil
}

func (s *chatSession) speak(ctx context.Context, resp domain.BrainResponse) {
	if s.playback == nil {
		return
	}
	if !s.background {
		s.readAloud(ctx, resp)
		return
	}

	speakCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.hush = cancel
	s.mu.Unlock()

	s.speaking.Add(1)
	go func() {
		defer s.speaking.Done()
		defer cancel()
		s.readAloud(speakCtx, resp)
	}()
}

// stopSpeaking interrupts the reply being read and waits for its goroutine.
func (s *chatSession) stopSpeaking() {
	if s.playback == nil {
		return
	}
	s.mu.Lock()
	if s.hush != nil {
		s.hush()
		s.hush = nil
	}
	s.mu.Unlock()
	s.playback.Stop()
	s.speaking.Wait()
}

func (s *chatSession) readAloud(ctx context.Context, resp domain.BrainResponse) {
	var err error
	switch {
	case resp.TTS != nil && len(resp.TTS.Audio) > 0:
		err = s.playback.PlayAudio(ctx, resp.TTS.Audio)
	case strings.TrimSpace(resp.Reply) != "":
		err = sayText(ctx, s.app, s.playback, resp.Reply, s.app.voiceOptions(), true, nil)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		s.app.logger.Warn("reading reply aloud failed", "error", err)
	}
}

func (s *chatSession) repl(ctx context.Context, in io.Reader) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "you> ",
		HistoryFile:       filepath.Join(s.app.cfg.StateDir, "chat_history"),
		HistorySearchFold: true,
		Stdin:             io.NopCloser(in),
		Stdout:            s.out,
		Stderr:            s.errOut,
	})
	if err != nil {
		return fmt.Errorf("open prompt: %w", err)
	}
	defer rl.Close()

	s.background = true
	defer s.stopSpeaking()

	_, _ = fmt.Fprintf(s.out, "session %s\n", s.conversation.State().SessionID)
	for _, line := range replCommands {
		_, _ = fmt.Fprintf(s.out, "  %s\n", line)
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line, err := rl.Readline()
		if err != nil {
			switch {
			case errors.Is(err, readline.ErrInterrupt):
				s.stopSpeaking()
				continue
			case errors.Is(err, io.EOF):
				return nil
			default:
				return fmt.Errorf("read input: %w", err)
			}
		}

		input := strings.TrimSpace(line)
		switch input {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/new":
			id := s.conversation.StartNewConversation(ctx)
			_, _ = fmt.Fprintf(s.out, "new session %s\n", id)
			continue
		case "/cart":
			writeCart(s.out, s.cart.Cart())
			continue
		}

		s.stopSpeaking()
		if err := s.turn(ctx, input); err != nil {
			_, _ = fmt.Fprintf(s.errOut, "error: %v\n", err)
		}
	}
}

func writeHints(w io.Writer, resp domain.BrainResponse) {
	hints := domain.DeriveUIHints(resp)
	switch hints.Panel {
	case domain.PanelRestaurants:
		_, _ = fmt.Fprintln(w, "restaurants:")
		for i, r := range resp.Restaurants {
			line := fmt.Sprintf("  %d. %s", i+1, r.Name)
			if r.City != "" {
				line += fmt.Sprintf(" (%s)", r.City)
			}
			_, _ = fmt.Fprintln(w, line)
		}
	case domain.PanelMenu:
		header := "menu:"
		if hints.RestaurantID != "" {
			header = fmt.Sprintf("menu [%s]:", hints.RestaurantID)
		}
		_, _ = fmt.Fprintln(w, header)
		for _, item := range resp.MenuItems {
			_, _ = fmt.Fprintf(w, "  - %s  %s\n", item.Name, kdsrender.FormatPrice(item.Price))
		}
	case domain.PanelBusiness:
		keys := make([]string, 0, len(resp.BusinessStats))
		for key := range resp.BusinessStats {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		_, _ = fmt.Fprintln(w, "stats:")
		for _, key := range keys {
			_, _ = fmt.Fprintf(w, "  %s: %v\n", key, resp.BusinessStats[key])
		}
		if len(resp.Orders) > 0 {
			_, _ = fmt.Fprintf(w, "  orders: %d\n", len(resp.Orders))
		}
	case domain.PanelKDS:
		_, _ = fmt.Fprintln(w, "kitchen display: ff kds watch")
	}
}
