// Package cache stores API responses that change rarely, such as a
// category's product list.
//
// Entries are JSON, scoped per key and backend origin. Two stores exist: a
// file store under the user cache directory and a redis store for machines
// that share a catalog. Disable caching with GAMEX_NO_CACHE=1.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const DefaultTTL = 10 * time.Minute

// Cache reads and writes JSON values by key. Misses and write failures are
// silent: a cache never fails the call it sits in front of.
type Cache interface {
	Get(ctx context.Context, key string, dst any) bool
	Put(ctx context.Context, key string, v any)
	Clear(ctx context.Context) error
}

type entry struct {
	CachedAt time.Time       `json:"cached_at"`
	Items    json.RawMessage `json:"items"`
}

func encode(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(entry{CachedAt: time.Now(), Items: raw})
}

func decodeEntry(data []byte, ttl time.Duration, dst any) bool {
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return false
	}
	if ttl > 0 && time.Since(e.CachedAt) > ttl {
		return false
	}
	return json.Unmarshal(e.Items, dst) == nil
}

// originHash identifies the backend so two origins never share entries.
func originHash(baseURL string) string {
	sum := sha1.Sum([]byte(baseURL))
	return hex.EncodeToString(sum[:6])
}

// FileStore keeps one JSON file per key.
type FileStore struct {
	dir    string
	origin string
	ttl    time.Duration
}

// NewFileStore creates a file store in dir. ttl <= 0 uses DefaultTTL.
func NewFileStore(dir, baseURL string, ttl time.Duration) *FileStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &FileStore{dir: dir, origin: originHash(baseURL), ttl: ttl}
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.json", sanitizeKey(key), s.origin))
}

// Get loads the cached value into dst. Returns false on miss (no file,
// expired, disabled).
func (s *FileStore) Get(_ context.Context, key string, dst any) bool {
	if disabled() {
		return false
	}
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return false
	}
	return decodeEntry(data, s.ttl, dst)
}

func (s *FileStore) Put(_ context.Context, key string, v any) {
	if disabled() {
		return
	}
	data, err := encode(v)
	if err != nil {
		return
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return
	}

	// Write temp then rename.
	path := s.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		_ = os.Remove(tmp)
		return
	}
	_ = os.Rename(tmp, path)
}

// Clear removes every cache file in the directory. Only files matching the
// store's naming scheme are touched.
func (s *FileStore) Clear(context.Context) error {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() || !isCacheFilename(e.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// Nop never hits.
type Nop struct{}

func (Nop) Get(context.Context, string, any) bool { return false }
func (Nop) Put(context.Context, string, any)      {}
func (Nop) Clear(context.Context) error           { return nil }

// DefaultDir returns the platform cache directory, "$XDG_CACHE_HOME/gamex"
// or equivalent.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "gamex"), nil
}

// ProductsKey is the key for a category's product listing.
func ProductsKey(categoryID int) string {
	return fmt.Sprintf("products-%d", categoryID)
}

// DepositStatusKey is the key for the last status seen for a deposit.
func DepositStatusKey(id int) string {
	return fmt.Sprintf("deposit-status-%d", id)
}

func disabled() bool {
	return os.Getenv("GAMEX_NO_CACHE") != ""
}

func sanitizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return "cache"
	}
	return strings.NewReplacer("/", "-", "\\", "-", "_", "-").Replace(key)
}

func isCacheFilename(name string) bool {
	// Expected: "<key>_<12hex>.json"
	if filepath.Ext(name) != ".json" {
		return false
	}
	key, hash, ok := strings.Cut(strings.TrimSuffix(name, ".json"), "_")
	if !ok || key == "" {
		return false
	}
	return len(hash) == 12 && isHex(hash)
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		default:
			return false
		}
	}
	return true
}
