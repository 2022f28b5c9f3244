package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// GeoPoint is a WGS84 coordinate used for travel-velocity checks.
type GeoPoint struct {
	Lat float64
	Lon float64
}

// PrincipalHistory is the behavioral snapshot the identity system supplies
// alongside a request. The core reads it for risk scoring but never stores it
// as authoritative state.
type PrincipalHistory struct {
	LastKnownLocation *GeoPoint
	LastKnownAt       time.Time
	// TypicalStartHour/TypicalEndHour bound the principal's usual access
	// window in UTC hours [0,24). Zero values mean no established pattern.
	TypicalStartHour int
	TypicalEndHour   int
	FailedAuthCount  int
}

// RequestContext captures the ambient facts about an access attempt.
type RequestContext struct {
	Timestamp     time.Time
	SourceNetwork string
	Location      *GeoPoint
	History       PrincipalHistory
}

// AccessRequest is one access attempt against one resource. It is immutable
// once constructed; exactly one Decision is produced for it.
type AccessRequest struct {
	Token       string
	Certificate string
	Posture     DevicePosture
	Resource    string
	Context     RequestContext
}

// Fingerprint derives a stable digest over the request inputs. The raw bearer
// token and certificate are hashed, never embedded, so the fingerprint is safe
// to persist in audit records.
func (r AccessRequest) Fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "tok:%x|", sha256.Sum256([]byte(r.Token)))
	fmt.Fprintf(h, "cert:%x|", sha256.Sum256([]byte(r.Certificate)))
	fmt.Fprintf(h, "res:%s|", r.Resource)
	fmt.Fprintf(h, "net:%s|", r.Context.SourceNetwork)
	fmt.Fprintf(h, "ts:%d|", r.Context.Timestamp.UnixNano())
	if r.Context.Location != nil {
		fmt.Fprintf(h, "loc:%.4f,%.4f|", r.Context.Location.Lat, r.Context.Location.Lon)
	}
	return hex.EncodeToString(h.Sum(nil))
}
