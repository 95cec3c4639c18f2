package artifact

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/m-kadula/ml2024-25/internal/tensor"
)

const schema = `
CREATE TABLE IF NOT EXISTS artifacts (
	key        TEXT PRIMARY KEY,
	dtype      TEXT NOT NULL,
	shape_json TEXT NOT NULL,
	data       BLOB NOT NULL
);
`

// SQLite stores arrays as little-endian F64 blobs, one row per key.
type SQLite struct {
	db *sql.DB
}

// OpenSQLiteReadOnly opens an existing artifact database without creating
// or migrating it.
func OpenSQLiteReadOnly(path string) (*SQLite, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	dsn := (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs), RawQuery: "mode=ro"}).String()
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open db: %w", err)
	}
	return &SQLite{db: db}, nil
}

// OpenSQLite opens (or creates) a SQLite artifact database and runs
// migrations.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// Put inserts or replaces the array stored under key.
func (s *SQLite) Put(key string, a tensor.Array) error {
	if _, err := ParseKey(key); err != nil {
		return err
	}
	shape := a.Shape
	if shape == nil {
		shape = []int{}
	}
	shapeJSON, err := json.Marshal(shape)
	if err != nil {
		return fmt.Errorf("marshal shape: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO artifacts (key, dtype, shape_json, data) VALUES (?, ?, ?, ?)`,
		key, "F64", string(shapeJSON), encodeF64(a.Data),
	)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) Load(key string) (tensor.Array, error) {
	row := s.db.QueryRow(`SELECT dtype, shape_json, data FROM artifacts WHERE key = ?`, key)
	var dtype, shapeJSON string
	var blob []byte
	if err := row.Scan(&dtype, &shapeJSON, &blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return tensor.Array{}, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return tensor.Array{}, fmt.Errorf("load %s: %w", key, err)
	}
	if dtype != "F64" {
		return tensor.Array{}, fmt.Errorf("load %s: unsupported dtype %s", key, dtype)
	}
	var shape []int
	if err := json.Unmarshal([]byte(shapeJSON), &shape); err != nil {
		return tensor.Array{}, fmt.Errorf("load %s: shape: %w", key, err)
	}
	if len(blob)%8 != 0 {
		return tensor.Array{}, fmt.Errorf("load %s: blob of %d bytes is not F64", key, len(blob))
	}
	return tensor.FromValues(decodeF64(blob), shape)
}

// Keys returns all keys in sorted order.
func (s *SQLite) Keys() ([]string, error) {
	rows, err := s.db.Query(`SELECT key FROM artifacts ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("list keys: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	return keys, nil
}

func encodeF64(vs []float64) []byte {
	buf := make([]byte, 8*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

func decodeF64(buf []byte) []float64 {
	out := make([]float64, len(buf)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return out
}
