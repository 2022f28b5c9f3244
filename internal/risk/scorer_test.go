package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentra/internal/domain"
	"sentra/internal/platform/config"
)

func testWeights() config.RiskConfig {
	return config.RiskConfig{
		DeviceTrustWeight:     35,
		TravelWeight:          30,
		TimeOfDayWeight:       15,
		AuthFailureWeight:     20,
		MaxPlausibleSpeedKmh:  900,
		AuthFailureSaturation: 5,
	}
}

func baseContext(at time.Time) domain.RequestContext {
	return domain.RequestContext{
		Timestamp: at,
		History: domain.PrincipalHistory{
			TypicalStartHour: 8,
			TypicalEndHour:   18,
		},
	}
}

func trustedDevice() domain.DeviceAssessment {
	return domain.DeviceAssessment{TrustLevel: domain.TrustLevelTrusted}
}

func TestScore_LowRiskBaseline(t *testing.T) {
	scorer := NewScorer(testWeights())
	at := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	score := scorer.Score(domain.VerifiedIdentity{}, trustedDevice(), baseContext(at))

	assert.Zero(t, score.Value)
	require.Len(t, score.Factors, 4)
	for _, f := range score.Factors {
		assert.Zero(t, f.Raw, "factor %s", f.Name)
	}
}

func TestScore_DeviceTrustContribution(t *testing.T) {
	scorer := NewScorer(testWeights())
	at := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	partial := scorer.Score(domain.VerifiedIdentity{},
		domain.DeviceAssessment{TrustLevel: domain.TrustLevelPartiallyTrusted}, baseContext(at))
	untrusted := scorer.Score(domain.VerifiedIdentity{},
		domain.DeviceAssessment{TrustLevel: domain.TrustLevelUntrusted}, baseContext(at))

	assert.InDelta(t, 17.5, partial.Value, 0.01)
	assert.InDelta(t, 35, untrusted.Value, 0.01)
}

func TestScore_ImpossibleTravelSaturates(t *testing.T) {
	scorer := NewScorer(testWeights())
	at := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	// London one hour ago, request now from Sydney: far beyond any plausible speed.
	rctx := baseContext(at)
	rctx.Location = &domain.GeoPoint{Lat: -33.86, Lon: 151.21}
	rctx.History.LastKnownLocation = &domain.GeoPoint{Lat: 51.51, Lon: -0.13}
	rctx.History.LastKnownAt = at.Add(-time.Hour)

	score := scorer.Score(domain.VerifiedIdentity{}, trustedDevice(), rctx)

	assert.True(t, ImpossibleTravel(score))
	assert.InDelta(t, 30, score.Value, 0.01)
}

func TestScore_PlausibleTravelDoesNotSaturate(t *testing.T) {
	scorer := NewScorer(testWeights())
	at := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	// London to Paris (~340km) over six hours is easily plausible.
	rctx := baseContext(at)
	rctx.Location = &domain.GeoPoint{Lat: 48.85, Lon: 2.35}
	rctx.History.LastKnownLocation = &domain.GeoPoint{Lat: 51.51, Lon: -0.13}
	rctx.History.LastKnownAt = at.Add(-6 * time.Hour)

	score := scorer.Score(domain.VerifiedIdentity{}, trustedDevice(), rctx)

	assert.False(t, ImpossibleTravel(score))
	assert.Less(t, score.Value, 5.0)
}

func TestScore_OffHoursAccess(t *testing.T) {
	scorer := NewScorer(testWeights())
	// 03:00 UTC against an 08:00-18:00 window.
	at := time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)

	score := scorer.Score(domain.VerifiedIdentity{}, trustedDevice(), baseContext(at))

	assert.Greater(t, score.Value, 0.0)
	assert.LessOrEqual(t, score.Value, 15.0)
}

func TestScore_AuthFailuresSaturate(t *testing.T) {
	scorer := NewScorer(testWeights())
	at := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	rctx := baseContext(at)
	rctx.History.FailedAuthCount = 50

	score := scorer.Score(domain.VerifiedIdentity{}, trustedDevice(), rctx)
	assert.InDelta(t, 20, score.Value, 0.01)
}

// TestScore_MonotonicPerFactor raises one input factor at a time while holding
// the rest fixed and asserts the fused score never decreases.
func TestScore_MonotonicPerFactor(t *testing.T) {
	scorer := NewScorer(testWeights())
	at := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	t.Run("device trust", func(t *testing.T) {
		prev := -1.0
		for _, level := range []domain.TrustLevel{
			domain.TrustLevelTrusted, domain.TrustLevelPartiallyTrusted, domain.TrustLevelUntrusted,
		} {
			score := scorer.Score(domain.VerifiedIdentity{},
				domain.DeviceAssessment{TrustLevel: level}, baseContext(at))
			assert.GreaterOrEqual(t, score.Value, prev)
			prev = score.Value
		}
	})

	t.Run("auth failures", func(t *testing.T) {
		prev := -1.0
		for count := 0; count <= 10; count++ {
			rctx := baseContext(at)
			rctx.History.FailedAuthCount = count
			score := scorer.Score(domain.VerifiedIdentity{}, trustedDevice(), rctx)
			assert.GreaterOrEqual(t, score.Value, prev, "count=%d", count)
			prev = score.Value
		}
	})

	t.Run("travel distance", func(t *testing.T) {
		origin := domain.GeoPoint{Lat: 51.51, Lon: -0.13}
		prev := -1.0
		for lonOffset := 0.0; lonOffset <= 50; lonOffset += 5 {
			rctx := baseContext(at)
			rctx.Location = &domain.GeoPoint{Lat: origin.Lat, Lon: origin.Lon + lonOffset}
			rctx.History.LastKnownLocation = &origin
			rctx.History.LastKnownAt = at.Add(-time.Hour)

			score := scorer.Score(domain.VerifiedIdentity{}, trustedDevice(), rctx)
			assert.GreaterOrEqual(t, score.Value, prev, "lonOffset=%f", lonOffset)
			prev = score.Value
		}
	})
}

// TestScore_Deterministic verifies identical inputs always produce the
// identical score and breakdown.
func TestScore_Deterministic(t *testing.T) {
	scorer := NewScorer(testWeights())
	at := time.Date(2026, 3, 10, 22, 30, 0, 0, time.UTC)

	rctx := baseContext(at)
	rctx.Location = &domain.GeoPoint{Lat: 40.71, Lon: -74.0}
	rctx.History.LastKnownLocation = &domain.GeoPoint{Lat: 51.51, Lon: -0.13}
	rctx.History.LastKnownAt = at.Add(-8 * time.Hour)
	rctx.History.FailedAuthCount = 2

	device := domain.DeviceAssessment{TrustLevel: domain.TrustLevelPartiallyTrusted}

	first := scorer.Score(domain.VerifiedIdentity{}, device, rctx)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, scorer.Score(domain.VerifiedIdentity{}, device, rctx))
	}
}

func TestScore_ClampedToHundred(t *testing.T) {
	scorer := NewScorer(config.RiskConfig{
		DeviceTrustWeight:     200,
		TravelWeight:          30,
		TimeOfDayWeight:       15,
		AuthFailureWeight:     20,
		MaxPlausibleSpeedKmh:  900,
		AuthFailureSaturation: 5,
	})
	at := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	score := scorer.Score(domain.VerifiedIdentity{},
		domain.DeviceAssessment{TrustLevel: domain.TrustLevelUntrusted}, baseContext(at))
	assert.Equal(t, 100.0, score.Value)
}
