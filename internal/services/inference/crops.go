package inference

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/LeonardoBeccarini/agri_inference/internal/model/entities"
)

const (
	maxCropRecommendations = 5
	minCropConfidence      = 0.01
)

// Suitability thresholds are exclusive lower bounds.
const (
	excellentAbove = 0.25
	goodAbove      = 0.10
)

func SuitabilityFor(p float64) entities.Suitability {
	switch {
	case p > excellentAbove:
		return entities.SuitabilityExcellent
	case p > goodAbove:
		return entities.SuitabilityGood
	default:
		return entities.SuitabilityFair
	}
}

// RankCrops returns at most five crops with probability above 0.01, highest first.
// Equal probabilities are ordered by crop label.
func RankCrops(classes []string, probs []float64) []entities.CropRecommendation {
	idx := make([]int, 0, len(classes))
	for i := range classes {
		if i < len(probs) {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		pa, pb := probs[idx[a]], probs[idx[b]]
		if pa != pb {
			return pa > pb
		}
		return classes[idx[a]] < classes[idx[b]]
	})
	if len(idx) > maxCropRecommendations {
		idx = idx[:maxCropRecommendations]
	}

	// cases.Caser non è thread-safe: uno per chiamata
	title := cases.Title(language.Und)
	out := make([]entities.CropRecommendation, 0, len(idx))
	for _, i := range idx {
		p := probs[i]
		if p <= minCropConfidence {
			continue
		}
		out = append(out, entities.CropRecommendation{
			Crop:                 title.String(strings.TrimSpace(classes[i])),
			Confidence:           p,
			ConfidencePercentage: percentage(p),
			Suitability:          SuitabilityFor(p),
		})
	}
	return out
}

func percentage(p float64) string {
	return fmt.Sprintf("%.1f%%", p*100)
}
