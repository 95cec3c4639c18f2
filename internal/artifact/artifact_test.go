package artifact

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-kadula/ml2024-25/internal/tensor"
)

func sample() map[string]tensor.Array {
	return map[string]tensor.Array{
		"logistic_regression/classification_1d/proba": tensor.Vector(0.1, 0.5, 0.9),
		"linear_regression/diabetes/predictions":      tensor.Matrix([]float64{1, 2}, []float64{3, 4}),
		"linear_regression/diabetes/loss":             tensor.Scalar(26004.287402),
	}
}

func fill(t *testing.T, w Writer) {
	t.Helper()
	for k, a := range sample() {
		if err := w.Put(k, a); err != nil {
			t.Fatalf("Put(%s): %v", k, err)
		}
	}
}

func assertStore(t *testing.T, s Store) {
	t.Helper()
	want := sample()
	keys, err := s.Keys()
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != len(want) {
		t.Fatalf("keys=%v", keys)
	}
	for i := 1; i < len(keys); i++ {
		if keys[i-1] >= keys[i] {
			t.Fatalf("keys not sorted: %v", keys)
		}
	}
	for k, w := range want {
		got, err := s.Load(k)
		if err != nil {
			t.Fatalf("Load(%s): %v", k, err)
		}
		if !got.SameShape(w) {
			t.Fatalf("%s: shape %v want %v", k, got.Shape, w.Shape)
		}
		for i := range w.Data {
			if got.Data[i] != w.Data[i] {
				t.Fatalf("%s[%d]=%g want %g", k, i, got.Data[i], w.Data[i])
			}
		}
	}
	if _, err := s.Load("missing/variant/name"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestParseKey(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    Key
		wantErr bool
	}{
		{"linear_regression/diabetes/loss", Key{"linear_regression", "diabetes", "loss"}, false},
		{"dataset_losses/mean_error/lab04_0/out", Key{"dataset_losses/mean_error", "lab04_0", "out"}, false},
		{"only/two", Key{}, true},
		{"a//b", Key{}, true},
		{"a/b/", Key{}, true},
		{"", Key{}, true},
	}
	for _, tc := range tests {
		got, err := ParseKey(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseKey(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParseKey(%q) = %+v, %v", tc.in, got, err)
		}
		if got.String() != tc.in {
			t.Errorf("String() = %q, want %q", got.String(), tc.in)
		}
	}
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	m := NewMemory()
	fill(t, m)
	assertStore(t, m)

	a, _ := m.Load("logistic_regression/classification_1d/proba")
	a.Data[0] = 42
	b, _ := m.Load("logistic_regression/classification_1d/proba")
	if b.Data[0] != 0.1 {
		t.Fatal("Load returned shared storage")
	}
	if err := m.Put("bad-key", tensor.Scalar(1)); err == nil {
		t.Fatal("expected malformed key error")
	}
}

func TestSafetensorsStoreRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "goldens.safetensors")
	w, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	fill(t, w)
	if err := w.Close(); err != nil {
		t.Fatalf("Close writer: %v", err)
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = s.Close() }()
	assertStore(t, s)
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "goldens.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	fill(t, s)
	if err := s.Put("linear_regression/diabetes/loss", tensor.Scalar(26004.287402)); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	assertStore(t, reopened)
}

func TestCopyConvertsBetweenBackends(t *testing.T) {
	t.Parallel()
	src := NewMemory()
	fill(t, src)

	dir := t.TempDir()
	db, err := OpenSQLite(filepath.Join(dir, "goldens.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer func() { _ = db.Close() }()
	n, err := Copy(db, src)
	if err != nil || n != 3 {
		t.Fatalf("Copy = %d, %v", n, err)
	}

	st := NewSafetensorsWriter(filepath.Join(dir, "goldens.safetensors"))
	if _, err := Copy(st, db); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	out, err := OpenSafetensors(filepath.Join(dir, "goldens.safetensors"))
	if err != nil {
		t.Fatalf("OpenSafetensors: %v", err)
	}
	defer func() { _ = out.Close() }()
	assertStore(t, out)
}

func TestOpenUnsupportedExtension(t *testing.T) {
	t.Parallel()
	if _, err := Open(filepath.Join(t.TempDir(), "goldens.npz")); err == nil {
		t.Fatal("expected error")
	}
	if _, err := Create(filepath.Join(t.TempDir(), "goldens.txt")); err == nil {
		t.Fatal("expected error")
	}
}

func TestZeroMemoryStore(t *testing.T) {
	t.Parallel()
	var m Memory
	if keys, err := m.Keys(); err != nil || len(keys) != 0 {
		t.Fatalf("Keys() = %v, %v", keys, err)
	}
	if _, err := m.Load("linear_regression/diabetes/loss"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	fill(t, &m)
	assertStore(t, &m)
}

func TestOpenMissingDatabaseDoesNotCreateIt(t *testing.T) {
	t.Parallel()
	for _, name := range []string{"missing.db", "missing.sqlite", "missing.safetensors"} {
		path := filepath.Join(t.TempDir(), name)
		if _, err := Open(path); !errors.Is(err, fs.ErrNotExist) {
			t.Fatalf("Open(%s): expected fs.ErrNotExist, got %v", name, err)
		}
		if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
			t.Fatalf("Open(%s) left a file behind: %v", name, err)
		}
	}
}

func TestOpenedDatabaseIsReadOnly(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "goldens.db")
	w, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	fill(t, w)
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	ro, err := OpenSQLiteReadOnly(path)
	if err != nil {
		t.Fatalf("OpenSQLiteReadOnly: %v", err)
	}
	defer func() { _ = ro.Close() }()
	if err := ro.Put("linear_regression/diabetes/extra", tensor.Scalar(1)); err == nil {
		t.Fatal("expected write to a read-only database to fail")
	}
	assertStore(t, ro)
}

func TestSQLiteKeysSurfacesErrors(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "goldens.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := s.Keys(); err == nil {
		t.Fatal("expected Keys on a closed database to fail")
	}
	if _, err := Copy(NewMemory(), s); err == nil {
		t.Fatal("expected Copy to surface the Keys error")
	}
}

func TestOpenForeignDatabaseFailsOnKeys(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "other.db")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = s.Close() }()
	if _, err := s.Keys(); err == nil {
		t.Fatal("expected missing artifacts table to surface as an error")
	}
}
