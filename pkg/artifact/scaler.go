package artifact

import (
	"context"
	"fmt"
)

// IdentityScaler passes rows through, for artifacts whose classifier scales internally.
type IdentityScaler struct{}

func (IdentityScaler) Transform(_ context.Context, x [][]float64) ([][]float64, error) {
	out := make([][]float64, len(x))
	for i, row := range x {
		out[i] = append([]float64(nil), row...)
	}
	return out, nil
}

// StandardScaler computes (x - mean) / scale per column.
type StandardScaler struct {
	mean  []float64
	scale []float64
}

func NewStandardScaler(mean, scale []float64, width int) (*StandardScaler, error) {
	if len(mean) != width || len(scale) != width {
		return nil, fmt.Errorf("%w: standard scaler has %d means and %d scales for %d features",
			ErrShape, len(mean), len(scale), width)
	}
	s := &StandardScaler{mean: append([]float64(nil), mean...), scale: make([]float64, width)}
	for i, v := range scale {
		// colonne a varianza nulla: sklearn usa scale 1
		if v == 0 {
			v = 1
		}
		s.scale[i] = v
	}
	return s, nil
}

func (s *StandardScaler) Transform(_ context.Context, x [][]float64) ([][]float64, error) {
	if err := checkWidth(x, len(s.mean)); err != nil {
		return nil, err
	}
	out := make([][]float64, len(x))
	for i, row := range x {
		r := make([]float64, len(row))
		for j, v := range row {
			r[j] = (v - s.mean[j]) / s.scale[j]
		}
		out[i] = r
	}
	return out, nil
}

// MinMaxScaler computes x*scale + min per column.
type MinMaxScaler struct {
	scale []float64
	min   []float64
}

func NewMinMaxScaler(scale, min []float64, width int) (*MinMaxScaler, error) {
	if len(scale) != width || len(min) != width {
		return nil, fmt.Errorf("%w: minmax scaler has %d scales and %d mins for %d features",
			ErrShape, len(scale), len(min), width)
	}
	return &MinMaxScaler{
		scale: append([]float64(nil), scale...),
		min:   append([]float64(nil), min...),
	}, nil
}

func (s *MinMaxScaler) Transform(_ context.Context, x [][]float64) ([][]float64, error) {
	if err := checkWidth(x, len(s.scale)); err != nil {
		return nil, err
	}
	out := make([][]float64, len(x))
	for i, row := range x {
		r := make([]float64, len(row))
		for j, v := range row {
			r[j] = v*s.scale[j] + s.min[j]
		}
		out[i] = r
	}
	return out, nil
}
