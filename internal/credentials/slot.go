package credentials

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zalando/go-keyring"
)

const service = "pixelflare-studio"

// Fixed slot names. The browser client used "token" in localStorage and a
// separate sessionStorage entry for the admin secret.
const (
	TokenKey       = "token"
	AdminSecretKey = "adminSecret"
)

// ErrNotFound is returned by Load when the slot holds no value.
var ErrNotFound = errors.New("credential not found")

// Slot is a single named credential cell.
type Slot interface {
	Load() (string, error)
	Save(value string) error
	Clear() error
}

// KeyringSlot persists a value in the OS keychain/credential manager.
type KeyringSlot struct {
	key string
}

// NewKeyringSlot returns a durable slot for name, scoped to the backend origin
// the same way browser storage is scoped per origin.
func NewKeyringSlot(origin, name string) *KeyringSlot {
	return &KeyringSlot{key: slotKey(origin, name)}
}

func slotKey(origin, name string) string {
	return fmt.Sprintf("%s/%s", strings.TrimRight(origin, "/"), name)
}

func (k *KeyringSlot) Load() (string, error) {
	value, err := keyring.Get(service, k.key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to load credential: %w", err)
	}
	if value == "" {
		return "", ErrNotFound
	}
	return value, nil
}

func (k *KeyringSlot) Save(value string) error {
	if err := keyring.Set(service, k.key, value); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

func (k *KeyringSlot) Clear() error {
	if err := keyring.Delete(service, k.key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}

// FileSlot persists a value in a 0600 file. It backs the durable token on
// hosts that have no keychain service (headless Linux, containers).
type FileSlot struct {
	path string
}

func NewFileSlot(path string) *FileSlot {
	return &FileSlot{path: path}
}

// DefaultFileSlot places the slot under ~/.config/pixelflare/<origin-hash>/.
func DefaultFileSlot(origin, name string) (*FileSlot, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user config directory: %w", err)
	}
	return NewFileSlot(filepath.Join(dir, "pixelflare", sanitize(origin), name)), nil
}

func sanitize(origin string) string {
	r := strings.NewReplacer("://", "_", "/", "_", ":", "_")
	return r.Replace(strings.TrimRight(origin, "/"))
}

func (f *FileSlot) Load() (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to read credential file: %w", err)
	}
	value := strings.TrimSpace(string(data))
	if value == "" {
		return "", ErrNotFound
	}
	return value, nil
}

func (f *FileSlot) Save(value string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create credential directory: %w", err)
	}
	if err := os.WriteFile(f.path, []byte(value), 0600); err != nil {
		return fmt.Errorf("failed to write credential file: %w", err)
	}
	return nil
}

func (f *FileSlot) Clear() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credential file: %w", err)
	}
	return nil
}

// MemorySlot lives as long as the process, like a browser tab's session storage.
type MemorySlot struct {
	mu    sync.RWMutex
	value string
}

func NewMemorySlot() *MemorySlot {
	return &MemorySlot{}
}

func (m *MemorySlot) Load() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.value == "" {
		return "", ErrNotFound
	}
	return m.value, nil
}

func (m *MemorySlot) Save(value string) error {
	m.mu.Lock()
	m.value = value
	m.mu.Unlock()
	return nil
}

func (m *MemorySlot) Clear() error {
	m.mu.Lock()
	m.value = ""
	m.mu.Unlock()
	return nil
}
