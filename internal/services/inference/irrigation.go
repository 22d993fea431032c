package inference

import (
	"strconv"
	"strings"

	"github.com/LeonardoBeccarini/agri_inference/internal/model/entities"
)

// Soglie di umidità media (%) per la scelta del livello.
const (
	criticalMoistureBelow = 20
	highMoistureBelow     = 35
	optimalMoistureAbove  = 70
)

var irrigationAdvisories = map[entities.IrrigationUrgency]entities.IrrigationAdvisory{
	entities.UrgencyCritical: {
		Urgency:   entities.UrgencyCritical,
		Color:     "#dc3545",
		Action:    "🚨 IRRIGATE IMMEDIATELY - Crops under severe stress!",
		Amount:    "50-75mm water depth (deep irrigation)",
		Method:    "Flood or sprinkler irrigation recommended",
		NextCheck: "12 hours",
		Timeline:  "Within 2 hours",
	},
	entities.UrgencyHigh: {
		Urgency:   entities.UrgencyHigh,
		Color:     "#fd7e14",
		Action:    "⚠️ Irrigate within 24 hours to prevent crop stress",
		Amount:    "30-50mm water depth",
		Method:    "Drip or sprinkler irrigation",
		NextCheck: "24 hours",
		Timeline:  "Within 24 hours",
	},
	entities.UrgencyModerate: {
		Urgency:   entities.UrgencyModerate,
		Color:     "#ffc107",
		Action:    "📅 Schedule irrigation within 48 hours",
		Amount:    "20-30mm water depth",
		Method:    "Drip irrigation preferred",
		NextCheck: "48 hours",
		Timeline:  "Within 2 days",
	},
	entities.UrgencyNone: {
		Urgency:   entities.UrgencyNone,
		Color:     "#28a745",
		Action:    "✅ Soil moisture is OPTIMAL. No irrigation needed.",
		Amount:    "Monitor only",
		Method:    "Continue current schedule",
		NextCheck: "3-4 days",
		Timeline:  "No action required",
	},
	entities.UrgencyLow: {
		Urgency:   entities.UrgencyLow,
		Color:     "#17a2b8",
		Action:    "👍 Soil moisture is adequate. Monitor daily.",
		Amount:    "No irrigation needed yet",
		Method:    "Check sensors daily",
		NextCheck: "48-72 hours",
		Timeline:  "Irrigate when below 45%",
	},
}

// IrrigationTier picks exactly one urgency for every (needed, avg) pair.
func IrrigationTier(needed bool, avgMoisture float64) entities.IrrigationUrgency {
	switch {
	case needed && avgMoisture < criticalMoistureBelow:
		return entities.UrgencyCritical
	case needed && avgMoisture < highMoistureBelow:
		return entities.UrgencyHigh
	case needed:
		return entities.UrgencyModerate
	case avgMoisture > optimalMoistureAbove:
		return entities.UrgencyNone
	default:
		return entities.UrgencyLow
	}
}

func IrrigationAdvice(needed bool, avgMoisture float64) entities.IrrigationAdvisory {
	return irrigationAdvisories[IrrigationTier(needed, avgMoisture)]
}

// IrrigationNeeded reports whether the predicted class is the positive one (1).
func IrrigationNeeded(label string) bool {
	l := strings.ToLower(strings.TrimSpace(label))
	if f, err := strconv.ParseFloat(l, 64); err == nil {
		return f == 1
	}
	return l == "true" || l == "yes"
}
