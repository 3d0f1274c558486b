package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/ndoemo02/Freeflow-Final/internal/domain"
	"github.com/ndoemo02/Freeflow-Final/internal/ports"
)

// ConversationErrorMessage is the one message shown for every failed exchange.
const ConversationErrorMessage = "Przepraszam, nie udało się połączyć z asystentem. Spróbuj ponownie."

type ConversationState struct {
	SessionID        domain.SessionID
	History          []domain.Message
	IsThinking       bool
	LastResponse     string
	LastFullResponse *domain.BrainResponse
	Error            string
}

type ConversationOptions struct {
	IncludeTTS   bool
	Meta         map[string]any
	Logger       *slog.Logger
	NewSessionID func() domain.SessionID
}

type ConversationService struct {
	brain    ports.BrainGateway
	sessions ports.SessionRepository
	logger   *slog.Logger
	newID    func() domain.SessionID
	opts     ConversationOptions

	mu           sync.Mutex
	session      domain.Session
	lastSent     string
	thinking     bool
	lastResponse string
	lastFull     *domain.BrainResponse
	errMessage   string
}

// NewConversationService restores the persisted session, minting and saving a new one when
// none exists.
func NewConversationService(ctx context.Context, brain ports.BrainGateway, sessions ports.SessionRepository, opts ConversationOptions) *ConversationService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	newID := opts.NewSessionID
	if newID == nil {
		newID = NewSessionID
	}

	s := &ConversationService{
		brain:    brain,
		sessions: sessions,
		logger:   logger,
		newID:    newID,
		opts:     opts,
	}

	session, err := sessions.Load(ctx)
	switch {
	case err == nil && !session.ID.IsZero():
		s.session = session
	case err != nil && !errors.Is(err, domain.ErrSessionNotFound):
		logger.Warn("load session failed, starting fresh", "error", err)
		fallthrough
	default:
		s.session = domain.Session{ID: newID()}
		s.persist(ctx)
	}

	return s
}

func NewSessionID() domain.SessionID {
	return domain.SessionID(uuid.NewString())
}

// SendMessage returns nil when the text is empty, repeats the previous message or the
// exchange fails. Failures are reported through State().Error.
func (s *ConversationService) SendMessage(ctx context.Context, text string) *domain.BrainResponse {
	trimmed := strings.TrimSpace(text)

	s.mu.Lock()
	if trimmed == "" || trimmed == s.lastSent {
		s.mu.Unlock()
		return nil
	}
	s.lastSent = trimmed
	s.thinking = true
	s.lastResponse = ""
	s.errMessage = ""
	sessionID := s.session.ID
	s.mu.Unlock()

	resp, err := s.brain.Send(ctx, domain.BrainRequest{
		SessionID:  sessionID,
		Text:       trimmed,
		IncludeTTS: s.opts.IncludeTTS,
		Meta:       s.opts.Meta,
	})
	if err == nil && !resp.OK {
		err = &domain.BackendError{Message: resp.Error}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.thinking = false

	if err != nil {
		s.errMessage = ConversationErrorMessage
		s.lastResponse = ""
		if s.lastSent == trimmed {
			s.lastSent = ""
		}
		s.logger.Warn("brain exchange failed", "session_id", sessionID, "error", err)
		return nil
	}

	s.lastResponse = resp.Reply
	full := resp
	s.lastFull = &full

	if s.session.ID == sessionID {
		s.session.History = append(s.session.History,
			domain.Message{Role: domain.RoleUser, Content: trimmed},
			domain.Message{Role: domain.RoleAssistant, Content: resp.Reply},
		)
	}

	if resp.ConversationClosed() {
		next := resp.Lifecycle.NewSessionID
		if next.IsZero() {
			next = s.newID()
		}
		s.logger.Info("conversation closed, rotating session",
			"previous", sessionID, "next", next, "reason", resp.Lifecycle.Reason)
		s.session = domain.Session{ID: next}
		s.lastSent = ""
	}

	s.persist(ctx)
	return &full
}

// StartNewConversation discards the current session regardless of backend state.
func (s *ConversationService) StartNewConversation(ctx context.Context) domain.SessionID {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = domain.Session{ID: s.newID()}
	s.lastSent = ""
	s.persist(ctx)
	return s.session.ID
}

func (s *ConversationService) State() ConversationState {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.session.Clone()
	state := ConversationState{
		SessionID:    session.ID,
		History:      session.History,
		IsThinking:   s.thinking,
		LastResponse: s.lastResponse,
		Error:        s.errMessage,
	}
	if s.lastFull != nil {
		full := *s.lastFull
		state.LastFullResponse = &full
	}
	return state
}

// persist must be called with s.mu held.
func (s *ConversationService) persist(ctx context.Context) {
	if err := s.sessions.Save(ctx, s.session.Clone()); err != nil {
		s.logger.Warn("persist session failed", "session_id", s.session.ID, "error", fmt.Errorf("save session: %w", err))
	}
}
