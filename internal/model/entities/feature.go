package entities

import "math"

// FeatureSpec is the ordered list of input names a model was trained on.
// The order is the column order of the matrix handed to the scaler.
type FeatureSpec []string

// CropFeatures is fixed: the crop model is always trained on these seven columns.
var CropFeatures = FeatureSpec{"N", "P", "K", "temperature", "humidity", "ph", "rainfall"}

// Names returns a copy, safe to hand out in response bodies.
func (s FeatureSpec) Names() []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func (s FeatureSpec) Equal(o FeatureSpec) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// FeatureVector holds the parsed values in FeatureSpec order.
type FeatureVector []float64

// Mean returns the arithmetic mean, 0 for an empty vector.
// Values near the float64 limits are averaged without overflowing the sum.
func (v FeatureVector) Mean() float64 {
	if len(v) == 0 {
		return 0
	}
	n := float64(len(v))
	var sum float64
	for _, x := range v {
		sum += x
	}
	if !math.IsInf(sum, 0) {
		return sum / n
	}
	var mean float64
	for _, x := range v {
		mean += x / n
	}
	return mean
}
