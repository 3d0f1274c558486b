package toml

import "fmt"

const (
	currentSessionSchemaVersion = 1
	currentCartSchemaVersion    = 1
	currentCredentialsVersion   = 1
)

type sessionFileSchema struct {
	Version   int             `toml:"version"`
	SessionID string          `toml:"session_id"`
	UpdatedAt string          `toml:"updated_at,omitempty"`
	History   []messageSchema `toml:"history,omitempty"`
}

type messageSchema struct {
	Role    string `toml:"role"`
	Content string `toml:"content"`
}

func (s *sessionFileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSessionSchemaVersion
	}
}

func (s sessionFileSchema) validateVersion() error {
	if s.Version > currentSessionSchemaVersion {
		return fmt.Errorf("unsupported session schema version %d (current %d)", s.Version, currentSessionSchemaVersion)
	}
	return nil
}

type cartFileSchema struct {
	Version    int               `toml:"version"`
	UpdatedAt  string            `toml:"updated_at,omitempty"`
	Restaurant *restaurantSchema `toml:"restaurant,omitempty"`
	Entries    []cartEntrySchema `toml:"entries,omitempty"`
}

type restaurantSchema struct {
	ID   string `toml:"id"`
	Name string `toml:"name"`
}

type cartEntrySchema struct {
	ID       string  `toml:"id"`
	Name     string  `toml:"name"`
	Price    float64 `toml:"price"`
	Quantity int     `toml:"quantity"`
}

func (s *cartFileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentCartSchemaVersion
	}
}

func (s cartFileSchema) validateVersion() error {
	if s.Version > currentCartSchemaVersion {
		return fmt.Errorf("unsupported cart schema version %d (current %d)", s.Version, currentCartSchemaVersion)
	}
	return nil
}

type credentialsFileSchema struct {
	Version   int               `toml:"version"`
	UpdatedAt string            `toml:"updated_at,omitempty"`
	Tokens    map[string]string `toml:"tokens"`
}

func (s *credentialsFileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentCredentialsVersion
	}
	if s.Tokens == nil {
		s.Tokens = map[string]string{}
	}
}

func (s credentialsFileSchema) validateVersion() error {
	if s.Version > currentCredentialsVersion {
		return fmt.Errorf("unsupported credentials schema version %d (current %d)", s.Version, currentCredentialsVersion)
	}
	return nil
}
