package inference

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/LeonardoBeccarini/agri_inference/internal/model/entities"
)

// FertilityClassLabels maps the fertility classifier's integer classes to levels.
var FertilityClassLabels = map[int]entities.FertilityLevel{
	0: entities.FertilityLow,
	1: entities.FertilityMedium,
	2: entities.FertilityHigh,
}

// FertilityLevelOf resolves a classifier class to a level. Classes spelled as
// level names are accepted too.
func FertilityLevelOf(class string) (entities.FertilityLevel, bool) {
	c := strings.TrimSpace(class)
	if f, err := strconv.ParseFloat(c, 64); err == nil && f == float64(int(f)) {
		if lvl, ok := FertilityClassLabels[int(f)]; ok {
			return lvl, true
		}
		return entities.FertilityUnknown, false
	}
	for _, lvl := range FertilityClassLabels {
		if strings.EqualFold(c, string(lvl)) {
			return lvl, true
		}
	}
	return entities.FertilityUnknown, false
}

var fertilityAdvisories = map[entities.FertilityLevel]entities.FertilityAdvisory{
	entities.FertilityLow: {
		Message:  "⚠️ Your soil fertility is LOW. Immediate action required!",
		Priority: "High",
		Color:    "#dc3545",
		Actions: []string{
			"Apply organic compost (5-10 tons/hectare)",
			"Use balanced NPK fertilizer (19:19:19) at 200-250 kg/hectare",
			"Add micronutrients: Zinc sulfate (25 kg/ha), Ferrous sulfate (25 kg/ha)",
			"Adjust pH to 6.0-7.0 range using lime if acidic",
			"Incorporate green manure crops (legumes) before main crop",
		},
		Timeline: "Implement within 2 weeks before planting",
	},
	entities.FertilityMedium: {
		Message:  "👍 Your soil fertility is MEDIUM. Good base, can be optimized.",
		Priority: "Medium",
		Color:    "#ffc107",
		Actions: []string{
			"Maintain with organic matter (2-3 tons/hectare)",
			"Apply targeted fertilizers based on specific crop needs",
			"Monitor nutrient levels quarterly with soil testing",
			"Practice crop rotation with nitrogen-fixing legumes",
			"Consider vermicompost (1-2 tons/ha) for micronutrient boost",
		},
		Timeline: "Implement within 1 month",
	},
	entities.FertilityHigh: {
		Message:  "✅ Excellent! Your soil fertility is HIGH.",
		Priority: "Low",
		Color:    "#28a745",
		Actions: []string{
			"Maintain current excellent practices",
			"Continue organic matter addition (1-2 tons/hectare annually)",
			"Regular soil testing every 6 months to monitor levels",
			"Watch for over-fertilization symptoms (excessive vegetative growth)",
			"Focus on maintaining soil structure and microbial health",
		},
		Timeline: "Maintain current schedule",
	},
}

// FertilityAdvice returns the advisory for level; unknown levels get the Medium one.
// The returned Actions slice is a copy.
func FertilityAdvice(level entities.FertilityLevel) entities.FertilityAdvisory {
	adv, ok := fertilityAdvisories[level]
	if !ok {
		adv = fertilityAdvisories[entities.FertilityMedium]
	}
	adv.Actions = append([]string(nil), adv.Actions...)
	return adv
}

// nutrientBand: below lowUpTo is Low, from highFrom is High, Medium in between.
// Sufficient is the inclusive [okMin, okMax] range.
type nutrientBand struct {
	name         string
	lowUpTo      float64
	highFrom     float64
	okMin, okMax float64
}

// bande in kg/ha
var nutrientBands = []nutrientBand{
	{name: "N", lowUpTo: 280, highFrom: 420, okMin: 280, okMax: 560},
	{name: "P", lowUpTo: 11, highFrom: 22, okMin: 11, okMax: 45},
	{name: "K", lowUpTo: 110, highFrom: 280, okMin: 110, okMax: 560},
}

func (b nutrientBand) classify(v float64) entities.NutrientStatus {
	st := entities.NutrientStatus{
		Value:        v,
		Level:        entities.FertilityMedium,
		Status:       entities.NutrientNeedsAttention,
		OptimalRange: fmt.Sprintf("%g-%g kg/ha", b.okMin, b.okMax),
	}
	switch {
	case v < b.lowUpTo:
		st.Level = entities.FertilityLow
	case v >= b.highFrom:
		st.Level = entities.FertilityHigh
	}
	if v >= b.okMin && v <= b.okMax {
		st.Status = entities.NutrientSufficient
	}
	return st
}

// AnalyzeNutrients bands N, P and K, which are the first three values of the fertility vector.
func AnalyzeNutrients(n, p, k float64) map[string]entities.NutrientStatus {
	values := [3]float64{n, p, k}
	out := make(map[string]entities.NutrientStatus, len(nutrientBands))
	for i, b := range nutrientBands {
		out[b.name] = b.classify(values[i])
	}
	return out
}

// FertilityProbabilities zips class probabilities onto the three levels.
// Levels the classifier does not know stay at 0.
func FertilityProbabilities(raw RawPrediction) map[entities.FertilityLevel]float64 {
	out := map[entities.FertilityLevel]float64{
		entities.FertilityLow:    0,
		entities.FertilityMedium: 0,
		entities.FertilityHigh:   0,
	}
	for i, class := range raw.Classes {
		if lvl, ok := FertilityLevelOf(class); ok {
			out[lvl] = raw.Probabilities[i]
		}
	}
	return out
}
