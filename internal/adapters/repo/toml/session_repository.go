package toml

import (
	"context"
	"sync"
	"time"

	"github.com/ndoemo02/Freeflow-Final/internal/domain"
	"github.com/ndoemo02/Freeflow-Final/internal/ports"
	"github.com/spf13/viper"
)

// SessionRepository keeps the current conversation session in session.toml.
type SessionRepository struct {
	path  string
	mu    *sync.RWMutex
	clock ports.Clock
}

var _ ports.SessionRepository = (*SessionRepository)(nil)

func NewSessionRepository(cfg *viper.Viper) (*SessionRepository, error) {
	path, err := resolveStatePath(cfg, SessionPathKey, sessionFile)
	if err != nil {
		return nil, err
	}
	return &SessionRepository{path: path, mu: lockForPath(path), clock: ports.SystemClock{}}, nil
}

func (r *SessionRepository) Path() string {
	return r.path
}

func (r *SessionRepository) Load(ctx context.Context) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var file sessionFileSchema
	found, err := readTOML(r.path, "session", &file)
	if err != nil {
		return domain.Session{}, err
	}
	if !found || file.SessionID == "" {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err := file.validateVersion(); err != nil {
		return domain.Session{}, err
	}

	session := domain.Session{ID: domain.SessionID(file.SessionID)}
	for _, message := range file.History {
		session.History = append(session.History, domain.Message{
			Role:    domain.Role(message.Role),
			Content: message.Content,
		})
	}
	return session, nil
}

func (r *SessionRepository) Save(ctx context.Context, session domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file := sessionFileSchema{
		SessionID: string(session.ID),
		UpdatedAt: r.clock.Now().Format(time.RFC3339),
	}
	for _, message := range session.History {
		file.History = append(file.History, messageSchema{Role: string(message.Role), Content: message.Content})
	}
	file.applyDefaults()

	return writeTOML(r.path, "session", file)
}
