package model

import (
	"github.com/LeonardoBeccarini/agri_inference/internal/model/entities"
	"github.com/LeonardoBeccarini/agri_inference/internal/model/messages"
)

// Alias per esporre tipi comuni ai servizi

type (
	FeatureSpec        = entities.FeatureSpec
	FeatureVector      = entities.FeatureVector
	FertilityLevel     = entities.FertilityLevel
	IrrigationUrgency  = entities.IrrigationUrgency
	CropRecommendation = entities.CropRecommendation
	PredictionEvent    = messages.PredictionEvent
	InferenceResult    = messages.InferenceResult
)
