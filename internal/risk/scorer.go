// Package risk fuses identity, device, and context signals into a numeric
// risk value. Scoring is a pure function of its inputs: no I/O, no clock
// reads, no stored state, so identical inputs always produce identical
// scores.
package risk

import (
	"math"

	"sentra/internal/domain"
	"sentra/internal/platform/config"
)

// Factor names as they appear in score breakdowns and audit records.
const (
	FactorDeviceTrust  = "device_trust"
	FactorTravel       = "impossible_travel"
	FactorTimeOfDay    = "time_of_day"
	FactorAuthFailures = "auth_failures"
)

// Scorer computes weighted risk scores. Weights are configuration; each raw
// factor is normalized to [0,1] before weighting, so a weight set summing to
// 100 keeps the fused value inside [0,100].
type Scorer struct {
	cfg config.RiskConfig
}

// NewScorer constructs a Scorer with the given weights and bounds.
func NewScorer(cfg config.RiskConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score fuses the verified signals for one request. Raising any single raw
// factor while holding the others fixed never lowers the result.
func (s *Scorer) Score(identity domain.VerifiedIdentity, device domain.DeviceAssessment, rctx domain.RequestContext) domain.RiskScore {
	_ = identity // identity-derived factors arrive via rctx.History

	factors := []domain.RiskFactor{
		s.weigh(FactorDeviceTrust, deviceTrustFactor(device.TrustLevel), s.cfg.DeviceTrustWeight),
		s.weigh(FactorTravel, s.travelFactor(rctx), s.cfg.TravelWeight),
		s.weigh(FactorTimeOfDay, timeOfDayFactor(rctx), s.cfg.TimeOfDayWeight),
		s.weigh(FactorAuthFailures, s.authFailureFactor(rctx.History.FailedAuthCount), s.cfg.AuthFailureWeight),
	}

	total := 0.0
	for _, f := range factors {
		total += f.Weighted
	}

	return domain.RiskScore{
		Value:   clamp(total, 0, 100),
		Factors: factors,
	}
}

func (s *Scorer) weigh(name string, raw, weight float64) domain.RiskFactor {
	raw = clamp(raw, 0, 1)
	return domain.RiskFactor{Name: name, Raw: raw, Weighted: raw * weight}
}

func deviceTrustFactor(level domain.TrustLevel) float64 {
	return float64(level.Rank()) / 2
}

// travelFactor compares the implied travel speed between the principal's last
// known location and the current one against the plausible ceiling. Speed at
// or beyond the ceiling saturates at 1, which is the impossible-travel signal.
func (s *Scorer) travelFactor(rctx domain.RequestContext) float64 {
	h := rctx.History
	if rctx.Location == nil || h.LastKnownLocation == nil || h.LastKnownAt.IsZero() {
		return 0
	}
	elapsed := rctx.Timestamp.Sub(h.LastKnownAt).Hours()
	if elapsed <= 0 {
		elapsed = 1.0 / 3600 // floor at one second so co-located requests stay finite
	}
	distanceKm := haversineKm(*h.LastKnownLocation, *rctx.Location)
	if distanceKm < 1 {
		return 0
	}
	speed := distanceKm / elapsed
	if s.cfg.MaxPlausibleSpeedKmh <= 0 {
		return 0
	}
	return speed / s.cfg.MaxPlausibleSpeedKmh
}

// timeOfDayFactor measures how far (in hours) the request falls outside the
// principal's typical access window, normalized by the half-day maximum.
func timeOfDayFactor(rctx domain.RequestContext) float64 {
	h := rctx.History
	if h.TypicalStartHour == 0 && h.TypicalEndHour == 0 {
		return 0 // no established pattern
	}
	hour := float64(rctx.Timestamp.UTC().Hour())
	start, end := float64(h.TypicalStartHour), float64(h.TypicalEndHour)

	if inWindow(hour, start, end) {
		return 0
	}
	deviation := math.Min(hourDistance(hour, start), hourDistance(hour, end))
	return deviation / 12
}

func inWindow(hour, start, end float64) bool {
	if start <= end {
		return hour >= start && hour < end
	}
	// window wraps midnight
	return hour >= start || hour < end
}

// hourDistance is the circular distance between two hours on a 24h clock.
func hourDistance(a, b float64) float64 {
	d := math.Abs(a - b)
	return math.Min(d, 24-d)
}

func (s *Scorer) authFailureFactor(count int) float64 {
	if count <= 0 {
		return 0
	}
	saturation := s.cfg.AuthFailureSaturation
	if saturation <= 0 {
		saturation = 1
	}
	return float64(count) / float64(saturation)
}

// haversineKm is the great-circle distance between two WGS84 points.
func haversineKm(a, b domain.GeoPoint) float64 {
	const earthRadiusKm = 6371.0
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// ImpossibleTravel reports whether the travel factor saturated, meaning the
// implied speed met or exceeded the plausible ceiling. The orchestrator
// treats this as a security violation regardless of the fused score.
func ImpossibleTravel(score domain.RiskScore) bool {
	for _, f := range score.Factors {
		if f.Name == FactorTravel && f.Raw >= 1 {
			return true
		}
	}
	return false
}
