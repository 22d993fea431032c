package inference

import (
	"fmt"
	"math"

	"github.com/LeonardoBeccarini/agri_inference/internal/model/entities"
)

type FertilityResponse struct {
	Success              bool                                `json:"success"`
	Prediction           entities.FertilityLevel             `json:"prediction"`
	Confidence           float64                             `json:"confidence"`
	ConfidencePercentage string                              `json:"confidence_percentage"`
	Probabilities        map[entities.FertilityLevel]float64 `json:"probabilities"`
	Recommendation       entities.FertilityAdvisory          `json:"recommendation"`
	NutrientAnalysis     map[string]entities.NutrientStatus  `json:"nutrient_analysis"`
	InputValues          map[string]float64                  `json:"input_values"`
}

type IrrigationResponse struct {
	Success              bool                        `json:"success"`
	IrrigationNeeded     bool                        `json:"irrigationNeeded"`
	Confidence           float64                     `json:"confidence"`
	ConfidencePercentage string                      `json:"confidence_percentage"`
	AverageMoisture      float64                     `json:"average_moisture"`
	SensorReadings       map[string]float64          `json:"sensor_readings"`
	Recommendation       entities.IrrigationAdvisory `json:"recommendation"`
}

type CropConditions struct {
	Nitrogen    float64 `json:"nitrogen"`
	Phosphorus  float64 `json:"phosphorus"`
	Potassium   float64 `json:"potassium"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	PH          float64 `json:"ph"`
	Rainfall    float64 `json:"rainfall"`
}

type CropResponse struct {
	Success         bool                          `json:"success"`
	Recommendations []entities.CropRecommendation `json:"recommendations"`
	Conditions      CropConditions                `json:"conditions"`
}

type HealthResponse struct {
	Status          string        `json:"status"`
	Message         string        `json:"message"`
	Models          map[Kind]bool `json:"models"`
	AllModelsLoaded bool          `json:"all_models_loaded"`
}

func assembleFertility(spec entities.FeatureSpec, vec entities.FeatureVector, raw RawPrediction) (*FertilityResponse, error) {
	if len(vec) < 3 {
		return nil, fmt.Errorf("fertility vector has %d values, N, P and K are required", len(vec))
	}
	level, ok := FertilityLevelOf(raw.Label)
	if !ok {
		level = entities.FertilityUnknown
	}
	conf := raw.Confidence()
	return &FertilityResponse{
		Success:              true,
		Prediction:           level,
		Confidence:           conf,
		ConfidencePercentage: percentage(conf),
		Probabilities:        FertilityProbabilities(raw),
		Recommendation:       FertilityAdvice(level),
		NutrientAnalysis:     AnalyzeNutrients(vec[0], vec[1], vec[2]),
		InputValues:          zipInputs(spec, vec),
	}, nil
}

func assembleIrrigation(vec entities.FeatureVector, raw RawPrediction) (*IrrigationResponse, error) {
	needed := IrrigationNeeded(raw.Label)
	avg := vec.Mean()
	if math.IsNaN(avg) || math.IsInf(avg, 0) {
		return nil, fmt.Errorf("average moisture is not finite: %v", avg)
	}
	readings := make(map[string]float64, len(vec))
	for i, v := range vec {
		readings[fmt.Sprintf("sensor%d", i+1)] = v
	}
	conf := raw.Confidence()
	return &IrrigationResponse{
		Success:              true,
		IrrigationNeeded:     needed,
		Confidence:           conf,
		ConfidencePercentage: percentage(conf),
		AverageMoisture:      avg,
		SensorReadings:       readings,
		Recommendation:       IrrigationAdvice(needed, avg),
	}, nil
}

// assembleCrops expects vec in entities.CropFeatures order.
func assembleCrops(vec entities.FeatureVector, raw RawPrediction) (*CropResponse, error) {
	if len(vec) != len(entities.CropFeatures) {
		return nil, fmt.Errorf("crop vector has %d values, want %d", len(vec), len(entities.CropFeatures))
	}
	return &CropResponse{
		Success:         true,
		Recommendations: RankCrops(raw.Classes, raw.Probabilities),
		Conditions: CropConditions{
			Nitrogen:    vec[0],
			Phosphorus:  vec[1],
			Potassium:   vec[2],
			Temperature: vec[3],
			Humidity:    vec[4],
			PH:          vec[5],
			Rainfall:    vec[6],
		},
	}, nil
}

func zipInputs(spec entities.FeatureSpec, vec entities.FeatureVector) map[string]float64 {
	out := make(map[string]float64, len(spec))
	for i, name := range spec {
		if i < len(vec) {
			out[name] = vec[i]
		}
	}
	return out
}
