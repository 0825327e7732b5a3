package quic

import (
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"

	"github.com/goburrow/quic/transport"
)

// FileSessionCache is a transport.SessionCache that keeps TLS session
// tickets in memory (crypto/tls's ClientSessionState cannot be marshaled
// by application code) but persists, under dir, one empty file per session
// key a ticket was ever cached for, named by the hex SHA-256 digest of the
// key. A restarted process that preloads this list knows which keys were
// seen before without waiting for a fresh round trip, even though the
// ticket bytes and the keys themselves do not survive the restart.
type FileSessionCache struct {
	dir   string
	cache transport.SessionCache

	mu    sync.Mutex
	known map[string]bool
}

// NewFileSessionCache returns a FileSessionCache backed by capacity
// in-memory tickets, persisting digests of known session keys under dir.
func NewFileSessionCache(dir string, capacity int) (*FileSessionCache, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			known[e.Name()] = true
		}
	}
	return &FileSessionCache{
		dir:   dir,
		cache: transport.NewSessionCache(capacity),
		known: known,
	}, nil
}

// Known returns the hex SHA-256 digests of the session keys seen so far,
// both those loaded from dir at startup and those cached in this run. The
// server names themselves are not stored.
func (f *FileSessionCache) Known() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.known))
	for name := range f.known {
		names = append(names, name)
	}
	return names
}

func (f *FileSessionCache) Get(sessionKey string) (*tls.ClientSessionState, bool) {
	return f.cache.Get(sessionKey)
}

func (f *FileSessionCache) Put(sessionKey string, cs *tls.ClientSessionState) {
	f.cache.Put(sessionKey, cs)
	f.markKnown(sessionKey)
}

// markKnown hashes sessionKey before using it as a filename: crypto/tls
// does not guarantee the key is filesystem-safe.
func (f *FileSessionCache) markKnown(sessionKey string) {
	sum := sha256.Sum256([]byte(sessionKey))
	name := hex.EncodeToString(sum[:])
	f.mu.Lock()
	if f.known[name] {
		f.mu.Unlock()
		return
	}
	f.known[name] = true
	f.mu.Unlock()
	path := filepath.Join(f.dir, name)
	if fh, err := os.Create(path); err == nil {
		fh.Close()
	}
}
