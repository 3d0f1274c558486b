package toml

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	StateDirKey    = "state.dir"
	SessionPathKey = "session.path"
	CartPathKey    = "cart.path"
	CredentialsKey = "credentials.path"

	stateFileMode   = 0o600
	stateDirMode    = 0o700
	defaultStateDir = ".freeflow"
	sessionFile     = "session.toml"
	cartFile        = "cart.toml"
	credentialsFile = "credentials.toml"
)

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

// resolveStatePath returns the path configured under key, or name inside the state directory.
func resolveStatePath(cfg *viper.Viper, key string, name string) (string, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	path := cfg.GetString(key)
	if path == "" {
		dir := cfg.GetString(StateDirKey)
		if dir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("resolve home directory: %w", err)
			}
			dir = filepath.Join(homeDir, defaultStateDir)
		}
		path = filepath.Join(dir, name)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve state path: %w", err)
	}
	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

// readTOML decodes path into out. It reports false when the file does not exist.
func readTOML(path string, label string, out any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read %s file: %w", label, err)
	}

	if err := toml.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode %s file: %w", label, err)
	}
	return true, nil
}

// writeTOML replaces path atomically through a temp file in the same directory.
func writeTOML(path string, label string, in any) error {
	if err := os.MkdirAll(filepath.Dir(path), stateDirMode); err != nil {
		return fmt.Errorf("create %s directory: %w", label, err)
	}

	data, err := toml.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode %s file: %w", label, err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(path), "."+label+"-*.toml.tmp")
	if err != nil {
		return fmt.Errorf("create temp %s file: %w", label, err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp %s file: %w", label, err)
	}

	if err := tempFile.Chmod(stateFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp %s file: %w", label, err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp %s file: %w", label, err)
	}

	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace %s file: %w", label, err)
	}

	cleanup = false

	if err := os.Chmod(path, stateFileMode); err != nil {
		return fmt.Errorf("chmod %s file: %w", label, err)
	}

	return nil
}
