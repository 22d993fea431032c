package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/LeonardoBeccarini/agri_inference/internal/model/entities"
)

func TestIrrigationTier(t *testing.T) {
	tests := []struct {
		needed bool
		avg    float64
		want   entities.IrrigationUrgency
	}{
		{true, 0, entities.UrgencyCritical},
		{true, 19.99, entities.UrgencyCritical},
		{true, 20, entities.UrgencyHigh},
		{true, 34.99, entities.UrgencyHigh},
		{true, 35, entities.UrgencyModerate},
		{true, 90, entities.UrgencyModerate},
		{false, 70.01, entities.UrgencyNone},
		{false, 70, entities.UrgencyLow},
		{false, 10, entities.UrgencyLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IrrigationTier(tt.needed, tt.avg), "needed=%v avg=%v", tt.needed, tt.avg)
	}
}

func TestIrrigationTierIsTotal(t *testing.T) {
	valid := map[entities.IrrigationUrgency]bool{}
	for k := range irrigationAdvisories {
		valid[k] = true
	}
	for _, needed := range []bool{true, false} {
		for avg := -50.0; avg <= 150; avg += 0.5 {
			tier := IrrigationTier(needed, avg)
			assert.True(t, valid[tier], "tier %q for needed=%v avg=%v", tier, needed, avg)

			adv := IrrigationAdvice(needed, avg)
			assert.Equal(t, tier, adv.Urgency)
			assert.NotEmpty(t, adv.Action)
		}
	}
}

func TestIrrigationAdviceTexts(t *testing.T) {
	adv := IrrigationAdvice(true, 10)
	assert.Equal(t, "#dc3545", adv.Color)
	assert.Equal(t, "50-75mm water depth (deep irrigation)", adv.Amount)
	assert.Equal(t, "12 hours", adv.NextCheck)

	low := IrrigationAdvice(false, 50)
	assert.Equal(t, "Irrigate when below 45%", low.Timeline)
	assert.Equal(t, "#17a2b8", low.Color)
}

func TestIrrigationNeeded(t *testing.T) {
	for _, l := range []string{"1", "1.0", "true", "Yes"} {
		assert.True(t, IrrigationNeeded(l), l)
	}
	for _, l := range []string{"0", "0.0", "false", "2", "no"} {
		assert.False(t, IrrigationNeeded(l), l)
	}
}
