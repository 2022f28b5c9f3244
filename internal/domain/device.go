package domain

import "time"

// TrustLevel classifies a device after certificate and posture assessment.
// It is recomputed on every request and never cached as a long-lived fact.
type TrustLevel string

const (
	TrustLevelTrusted          TrustLevel = "trusted"
	TrustLevelPartiallyTrusted TrustLevel = "partially_trusted"
	TrustLevelUntrusted        TrustLevel = "untrusted"
)

// Rank orders trust levels for risk scoring: higher rank means less trust.
// Unknown values rank as untrusted so a bad input can never lower risk.
func (t TrustLevel) Rank() int {
	switch t {
	case TrustLevelTrusted:
		return 0
	case TrustLevelPartiallyTrusted:
		return 1
	default:
		return 2
	}
}

// DevicePosture carries the observable health attributes reported with a
// request. The assessor compares them against configured thresholds.
type DevicePosture struct {
	PatchLevel    int
	DiskEncrypted bool
	LastSeenAt    time.Time
}

// DeviceAssessment is the device assessor's output.
type DeviceAssessment struct {
	CertificateID string
	TrustLevel    TrustLevel
	// Degraded is set when the revocation source could not answer and the
	// assessment fell back to untrusted.
	Degraded bool
}
