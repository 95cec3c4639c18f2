// Package artifact provides read-only access to precomputed reference arrays
// ("goldens") addressed by a stable key of the form check/variant/name.
package artifact

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/m-kadula/ml2024-25/internal/tensor"
)

var (
	// ErrNotFound is returned by Load when a key is not present in the store.
	ErrNotFound = errors.New("artifact: not found")
	// ErrEmpty is returned by callers that need at least one array.
	ErrEmpty = errors.New("artifact: store is empty")
)

// Store is a read-only lookup of named arrays. Implementations are safe for
// concurrent Load calls.
type Store interface {
	Load(key string) (tensor.Array, error)
	// Keys lists every key in sorted order.
	Keys() ([]string, error)
	Close() error
}

// Writer records arrays under a key. Put replaces an existing entry.
type Writer interface {
	Put(key string, a tensor.Array) error
	Close() error
}

// Key addresses one golden array.
type Key struct {
	Check   string
	Variant string
	Name    string
}

func (k Key) String() string {
	return k.Check + "/" + k.Variant + "/" + k.Name
}

// ParseKey splits a key on its last two slashes; the check part may itself
// contain slashes.
func ParseKey(s string) (Key, error) {
	j := strings.LastIndexByte(s, '/')
	if j <= 0 || j == len(s)-1 {
		return Key{}, fmt.Errorf("artifact: malformed key %q", s)
	}
	i := strings.LastIndexByte(s[:j], '/')
	if i <= 0 || i == j-1 {
		return Key{}, fmt.Errorf("artifact: malformed key %q", s)
	}
	return Key{Check: s[:i], Variant: s[i+1 : j], Name: s[j+1:]}, nil
}

// Open opens an existing store read-only, picking the backend from the file
// extension. A missing file is an error wrapping fs.ErrNotExist.
func Open(path string) (Store, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".safetensors":
		return OpenSafetensors(path)
	case ".db", ".sqlite", ".sqlite3":
		return OpenSQLiteReadOnly(path)
	default:
		return nil, fmt.Errorf("artifact: unsupported store type %q", ext)
	}
}

// Create opens a writer for a new store, picking the backend from the file
// extension.
func Create(path string) (Writer, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".safetensors":
		return NewSafetensorsWriter(path), nil
	case ".db", ".sqlite", ".sqlite3":
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("artifact: unsupported store type %q", ext)
	}
}

// Copy writes every array of src into dst and returns how many were copied.
func Copy(dst Writer, src Store) (int, error) {
	keys, err := src.Keys()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, key := range keys {
		a, err := src.Load(key)
		if err != nil {
			return n, fmt.Errorf("load %s: %w", key, err)
		}
		if err := dst.Put(key, a); err != nil {
			return n, fmt.Errorf("put %s: %w", key, err)
		}
		n++
	}
	return n, nil
}
