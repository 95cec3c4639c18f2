package main

import (
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m-kadula/ml2024-25/internal/tensor"
)

func TestDiffArrays(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		a, b []float64
		want diffStats
	}{
		{"empty", nil, nil, diffStats{}},
		{"identical", []float64{1, 3, 2}, []float64{1, 3, 2}, diffStats{Cosine: 1, ArgmaxA: 1, ArgmaxB: 1, Length: 3}},
		{
			"shifted argmax",
			[]float64{0, 2}, []float64{2, 0},
			diffStats{MaxAbs: 2, MeanAbs: 2, RMSE: 2, Cosine: 0, ArgmaxA: 1, ArgmaxB: 0, Length: 2},
		},
		{"truncated to shorter", []float64{1, 1, 9}, []float64{1, 2}, diffStats{MaxAbs: 1, MeanAbs: 0.5, RMSE: math.Sqrt(0.5), Cosine: 3 / (math.Sqrt2 * math.Sqrt(5)), ArgmaxA: 0, ArgmaxB: 1, Length: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := diffArrays(tt.a, tt.b)
			if got.Length != tt.want.Length || got.ArgmaxA != tt.want.ArgmaxA || got.ArgmaxB != tt.want.ArgmaxB {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
			for _, f := range []struct {
				name      string
				got, want float64
			}{
				{"max", got.MaxAbs, tt.want.MaxAbs},
				{"mean", got.MeanAbs, tt.want.MeanAbs},
				{"rmse", got.RMSE, tt.want.RMSE},
				{"cosine", got.Cosine, tt.want.Cosine},
			} {
				if math.Abs(f.got-f.want) > 1e-12 {
					t.Fatalf("%s = %g, want %g", f.name, f.got, f.want)
				}
			}
		})
	}
}

func TestDiffCommand(t *testing.T) {
	dir := t.TempDir()
	golden := filepath.Join(dir, "goldens.db")
	actual := filepath.Join(dir, "actual.safetensors")
	writeStore(t, golden, goldens())
	writeStore(t, actual, map[string]tensor.Array{
		"logistic_regression/classification_1d/out": tensor.Vector(1, 0, 1, 0),
	})

	out, err := runApp(t, "diff", "--golden", golden, "--actual", actual)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	for _, want := range []string{"missing", "1!=0", "MAX_ABS"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}
