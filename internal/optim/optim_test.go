package optim

import (
	"math"
	"testing"
)

func approx(t *testing.T, label string, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: got %d values, want %d", label, len(got), len(want))
	}
	for i := range got {
		if math.Abs(got[i]-want[i]) > 1e-6 {
			t.Fatalf("%s[%d]: got %.9f want %.9f", label, i, got[i], want[i])
		}
	}
}

func runOne(t *testing.T, family string, s Surface, steps int) []*Param {
	t.Helper()
	f, err := Reference(family)
	if err != nil {
		t.Fatalf("Reference(%s): %v", family, err)
	}
	params, err := Run(f, DefaultHyper[family], s, steps)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return params
}

func TestFirstStepOnQuadratic(t *testing.T) {
	t.Parallel()
	// grad at w0 = 2*x*w = [-2.4, 8]
	tests := []struct {
		family string
		want   []float64
	}{
		{Momentum, []float64{-5.76, 1.2}},
		{Adagrad, []float64{-5.5, 1.5}},
		{RMSProp, []float64{-6 + 0.5/math.Sqrt(0.1), 2 - 0.5/math.Sqrt(0.1)}},
		{Adam, []float64{-5.5, 1.5}},
	}
	for _, tc := range tests {
		params := runOne(t, tc.family, Quadratic, 1)
		approx(t, tc.family, params[0].Data.Data, tc.want)
	}
}

func TestAdadeltaFirstStepOnAffine(t *testing.T) {
	t.Parallel()
	params := runOne(t, Adadelta, Affine, 1)
	d := math.Sqrt(0.1) / math.Sqrt(0.2)
	approx(t, "b", params[1].Data.Data, []float64{1 - d, -1 - d})
}

func TestMomentumAccumulatesConstantGradient(t *testing.T) {
	t.Parallel()
	params := runOne(t, Momentum, Affine, 10)
	// lr * sum_{t=1..10} (1-0.9^t)/(1-0.9) for a unit gradient.
	move := 10 - 9*(1-math.Pow(0.9, 10))
	approx(t, "b", params[1].Data.Data, []float64{1 - move, -1 - move})
	approx(t, "w", params[0].Data.Data, []float64{-6 - 0.2*move, 2 - 2*move})
}

func TestRunZeroesGradientsEachStep(t *testing.T) {
	t.Parallel()
	params := runOne(t, Adagrad, Affine, 3)
	// Affine gradients are constant, so stale accumulation would show up
	// as a gradient larger than one.
	approx(t, "grad b", params[1].Grad.Data, []float64{1, 1})
}

func TestRunDoesNotShareInitialState(t *testing.T) {
	t.Parallel()
	runOne(t, Adam, Quadratic, 5)
	fresh := Quadratic.Init()
	approx(t, "w0", fresh[0].Data.Data, []float64{-6, 2})
}

func TestReferenceAndFamilies(t *testing.T) {
	t.Parallel()
	families := Families()
	want := []string{Adadelta, Adagrad, Adam, Momentum, RMSProp}
	if len(families) != len(want) {
		t.Fatalf("families=%v", families)
	}
	for i := range want {
		if families[i] != want[i] {
			t.Fatalf("families=%v", families)
		}
		if _, err := Reference(want[i]); err != nil {
			t.Fatalf("Reference(%s): %v", want[i], err)
		}
	}
	if _, err := Reference("Lion"); err == nil {
		t.Fatal("expected unknown family error")
	}
	nilFactory := func([]*Param, Hyper) Optimizer { return nil }
	if _, err := Run(nilFactory, Hyper{}, Quadratic, 1); err == nil {
		t.Fatal("expected error for nil optimizer")
	}
}
