package artifact

import (
	"errors"
	"fmt"
	"sync"

	"github.com/m-kadula/ml2024-25/internal/safetensors"
	"github.com/m-kadula/ml2024-25/internal/tensor"
)

type safetensorsStore struct {
	f *safetensors.File
}

// OpenSafetensors opens a memory mapped safetensors file as a store. Tensor
// names are the artifact keys.
func OpenSafetensors(path string) (Store, error) {
	f, err := safetensors.Open(path)
	if err != nil {
		return nil, fmt.Errorf("artifact: %w", err)
	}
	return &safetensorsStore{f: f}, nil
}

func (s *safetensorsStore) Load(key string) (tensor.Array, error) {
	data, info, err := s.f.ReadTensorF64(key)
	if errors.Is(err, safetensors.ErrTensorNotFound) {
		return tensor.Array{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return tensor.Array{}, fmt.Errorf("artifact: %s: %w", key, err)
	}
	return tensor.FromValues(data, info.Shape)
}

func (s *safetensorsStore) Keys() ([]string, error) { return s.f.Names(), nil }

func (s *safetensorsStore) Close() error { return s.f.Close() }

// SafetensorsWriter buffers arrays and writes them as one F64 safetensors
// file on Close.
type SafetensorsWriter struct {
	path     string
	Metadata map[string]string

	mu      sync.Mutex
	tensors map[string]tensor.Array
}

func NewSafetensorsWriter(path string) *SafetensorsWriter {
	return &SafetensorsWriter{path: path, tensors: make(map[string]tensor.Array)}
}

func (w *SafetensorsWriter) Put(key string, a tensor.Array) error {
	if _, err := ParseKey(key); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tensors[key] = a.Clone()
	return nil
}

func (w *SafetensorsWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]safetensors.Tensor, 0, len(w.tensors))
	for key, a := range w.tensors {
		out = append(out, safetensors.Tensor{Name: key, Shape: a.Shape, Data: a.Data})
	}
	if err := safetensors.WriteFile(w.path, out, w.Metadata); err != nil {
		return fmt.Errorf("artifact: write %s: %w", w.path, err)
	}
	return nil
}
