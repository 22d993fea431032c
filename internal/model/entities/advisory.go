package entities

// FertilityLevel is both the fertility prediction label and a per-nutrient band.
type FertilityLevel string

const (
	FertilityLow     FertilityLevel = "Low"
	FertilityMedium  FertilityLevel = "Medium"
	FertilityHigh    FertilityLevel = "High"
	FertilityUnknown FertilityLevel = "Unknown"
)

// FertilityAdvisory is the agronomic advice attached to a fertility prediction.
type FertilityAdvisory struct {
	Message  string   `json:"message"`
	Priority string   `json:"priority"`
	Color    string   `json:"color"`
	Actions  []string `json:"actions"`
	Timeline string   `json:"timeline"`
}

// NutrientStatus describes one of N, P, K against its agronomic range.
type NutrientStatus struct {
	Value        float64        `json:"value"`
	Level        FertilityLevel `json:"level"`
	Status       string         `json:"status"`
	OptimalRange string         `json:"optimal_range"`
}

const (
	NutrientSufficient     = "Sufficient"
	NutrientNeedsAttention = "Needs attention"
)

// IrrigationUrgency names the irrigation tier.
type IrrigationUrgency string

const (
	UrgencyCritical IrrigationUrgency = "Critical"
	UrgencyHigh     IrrigationUrgency = "High"
	UrgencyModerate IrrigationUrgency = "Moderate"
	UrgencyNone     IrrigationUrgency = "None"
	UrgencyLow      IrrigationUrgency = "Low"
)

type IrrigationAdvisory struct {
	Urgency   IrrigationUrgency `json:"urgency"`
	Color     string            `json:"color"`
	Action    string            `json:"action"`
	Amount    string            `json:"amount"`
	Method    string            `json:"method"`
	NextCheck string            `json:"next_check"`
	Timeline  string            `json:"timeline"`
}

// Suitability bands a crop probability.
type Suitability string

const (
	SuitabilityExcellent Suitability = "Excellent"
	SuitabilityGood      Suitability = "Good"
	SuitabilityFair      Suitability = "Fair"
)

type CropRecommendation struct {
	Crop                 string      `json:"crop"`
	Confidence           float64     `json:"confidence"`
	ConfidencePercentage string      `json:"confidence_percentage"`
	Suitability          Suitability `json:"suitability"`
}
