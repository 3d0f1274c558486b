// Package redis stores the current conversation session in Redis so several terminals or
// devices can share one conversation.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ndoemo02/Freeflow-Final/internal/domain"
	"github.com/ndoemo02/Freeflow-Final/internal/ports"
)

const (
	keyPrefix  = "freeflow:session:"
	defaultTTL = 24 * time.Hour
)

type Config struct {
	URL     string
	Profile string
	TTL     time.Duration
}

type SessionRepository struct {
	client *goredis.Client
	key    string
	ttl    time.Duration
	clock  ports.Clock
}

var _ ports.SessionRepository = (*SessionRepository)(nil)

type sessionRecord struct {
	SessionID string          `json:"session_id"`
	History   []messageRecord `json:"history,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type messageRecord struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func New(cfg Config) (*SessionRepository, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("redis url is required")
	}
	options, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewWithClient(goredis.NewClient(options), cfg.Profile, cfg.TTL), nil
}

func NewWithClient(client *goredis.Client, profile string, ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	profile = strings.TrimSpace(profile)
	if profile == "" {
		profile = "default"
	}
	return &SessionRepository{
		client: client,
		key:    keyPrefix + profile,
		ttl:    ttl,
		clock:  ports.SystemClock{},
	}
}

func (r *SessionRepository) Key() string {
	return r.key
}

// Load refreshes the key TTL on every successful read.
func (r *SessionRepository) Load(ctx context.Context) (domain.Session, error) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("load session from redis: %w", err)
	}

	var record sessionRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return domain.Session{}, fmt.Errorf("decode session record: %w", err)
	}
	if record.SessionID == "" {
		return domain.Session{}, domain.ErrSessionNotFound
	}

	_ = r.client.Expire(ctx, r.key, r.ttl).Err()

	session := domain.Session{ID: domain.SessionID(record.SessionID)}
	for _, message := range record.History {
		session.History = append(session.History, domain.Message{
			Role:    domain.Role(message.Role),
			Content: message.Content,
		})
	}
	return session, nil
}

func (r *SessionRepository) Save(ctx context.Context, session domain.Session) error {
	record := sessionRecord{
		SessionID: string(session.ID),
		UpdatedAt: r.clock.Now(),
	}
	for _, message := range session.History {
		record.History = append(record.History, messageRecord{Role: string(message.Role), Content: message.Content})
	}

	encoded, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode session record: %w", err)
	}
	if err := r.client.Set(ctx, r.key, encoded, r.ttl).Err(); err != nil {
		return fmt.Errorf("save session to redis: %w", err)
	}
	return nil
}

func (r *SessionRepository) Close() error {
	return r.client.Close()
}
