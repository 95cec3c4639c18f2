package dataset

import (
	"fmt"

	"github.com/m-kadula/ml2024-25/internal/tensor"
)

// Names of the generated classification sets.
const (
	Classification1D = "classification_1d"
	Classification2D = "classification_2d"
)

// Synthetic generates two-class Gaussian blob datasets. Each name draws from
// its own generator seeded from Seed, so a dataset does not depend on which
// other datasets were requested before it.
type Synthetic struct {
	Seed uint64
	// PerClass is the number of samples drawn for each class; 0 means 50.
	PerClass int
}

func (s Synthetic) Dataset(name string) (Dataset, error) {
	switch name {
	case Classification1D:
		return s.blobs(name, 1, 1), nil
	case Classification2D:
		return s.blobs(name, 2, 2), nil
	}
	return Dataset{}, fmt.Errorf("%w: %s", ErrUnknownDataset, name)
}

// blobs draws class 0 around -shift and class 1 around +shift on every
// feature, with unit variance. Samples alternate between classes.
func (s Synthetic) blobs(name string, features int, salt uint64) Dataset {
	per := s.PerClass
	if per <= 0 {
		per = 50
	}
	rng := tensor.NewRand(s.Seed*31 + salt)
	const shift = 1.5
	n := 2 * per
	data := tensor.New(n, features)
	target := tensor.New(n)
	for i := range n {
		class := float64(i % 2)
		center := shift * (2*class - 1)
		row := data.Row(i)
		for j := range row {
			row[j] = center + rng.NormFloat64()
		}
		target.Data[i] = class
	}
	return Dataset{Name: name, Data: data, Target: target}
}
