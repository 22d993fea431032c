package inference

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/LeonardoBeccarini/agri_inference/internal/model/entities"
)

// ParseFeatures resolves every name of spec from input, in spec order.
//
// A present value that cannot be coerced fails immediately with that field;
// absent names are collected and reported together once the walk completes.
// Keys of input that are not in spec are ignored.
func ParseFeatures(spec entities.FeatureSpec, input map[string]any) (entities.FeatureVector, error) {
	if len(input) == 0 {
		return nil, errNoData()
	}
	vec := make(entities.FeatureVector, 0, len(spec))
	var missing []string
	for _, name := range spec {
		raw, ok := input[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		v, ok := coerceFloat(raw)
		if !ok {
			return nil, Error{
				Code:  BadRequest,
				Msg:   fmt.Sprintf("Invalid value for %s: %s", name, renderRaw(raw)),
				Field: name,
				Value: raw,
			}
		}
		vec = append(vec, v)
	}
	if len(missing) > 0 {
		return nil, Error{
			Code:     BadRequest,
			Msg:      "Missing required features: " + strings.Join(missing, ", "),
			Missing:  missing,
			Received: sortedKeys(input),
			Expected: spec.Names(),
		}
	}
	return vec, nil
}

// coerceFloat accepts JSON numbers, numeric strings and booleans. Non-finite results are rejected
// because they cannot be scaled nor encoded back to JSON.
func coerceFloat(raw any) (float64, bool) {
	var (
		f   float64
		err error
	)
	switch v := raw.(type) {
	case json.Number:
		f, err = strconv.ParseFloat(string(v), 64)
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(v), 64)
	case bool:
		if v {
			f = 1
		}
	default:
		return 0, false
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func renderRaw(raw any) string {
	if s, ok := raw.(string); ok {
		return s
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return fmt.Sprintf("%v", raw)
	}
	return string(b)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
