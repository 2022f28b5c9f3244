package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures everything the PDP reads from the environment. Every policy
// knob (weights, thresholds, TTL bounds, intervals) is configuration so
// operational changes never require a redeploy.
type Config struct {
	Addr     string
	LogLevel string

	Identity   IdentityConfig
	Device     DeviceConfig
	Risk       RiskConfig
	Policy     PolicyConfig
	Session    SessionConfig
	Audit      AuditConfig
	Revalidate RevalidateConfig
	Redis      RedisConfig
}

// IdentityConfig bounds calls against the external issuer key source.
type IdentityConfig struct {
	Audience      string
	VerifyTimeout time.Duration
	// KeysFile points at a JSON map of issuer to PEM (or shared secret)
	// verification key, loaded at startup.
	KeysFile string
}

// DeviceConfig holds posture thresholds and revocation-source bounds.
type DeviceConfig struct {
	MinPatchLevel     int
	RequireEncryption bool
	MaxLastSeenAge    time.Duration
	RevocationTimeout time.Duration
	// RootCAFile points at the PEM bundle of internal roots device
	// certificates must chain to.
	RootCAFile string
	// OCSPResponderURL, when set, routes revocation checks to an OCSP
	// responder instead of the revocation list store. The first certificate
	// in RootCAFile is taken as the issuing CA.
	OCSPResponderURL string
}

// RiskConfig holds the factor weights. Weights should sum to 100; the scorer
// normalizes each factor to [0,1] before weighting so the fused score stays
// inside [0,100].
type RiskConfig struct {
	DeviceTrustWeight float64
	TravelWeight      float64
	TimeOfDayWeight   float64
	AuthFailureWeight float64
	// MaxPlausibleSpeedKmh is the travel-velocity ceiling for the
	// impossible-travel check.
	MaxPlausibleSpeedKmh float64
	// AuthFailureSaturation is the failed-attempt count at which that factor
	// reaches its maximum contribution.
	AuthFailureSaturation int
}

// SessionConfig bounds issued session lifetimes.
type SessionConfig struct {
	MinTTL time.Duration
	MaxTTL time.Duration
}

// AuditConfig bounds the durable-write path. Exhausting retries fails the
// evaluation closed.
type AuditConfig struct {
	WriteTimeout   time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	KafkaBrokers   string
	KafkaTopic     string
	PostgresDSN    string
}

// PolicyConfig locates the startup rule bundle. An empty path boots with an
// empty set, so every request denies until a bundle is loaded.
type PolicyConfig struct {
	BundleFile string
}

// RevalidateConfig drives the continuous-verification loop.
type RevalidateConfig struct {
	Interval time.Duration
}

// RedisConfig configures the optional shared Redis backend for session and
// revocation state. Empty URL means in-memory stores.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Addr:     envStr("SENTRA_ADDR", ":8080"),
		LogLevel: envStr("SENTRA_LOG_LEVEL", "info"),
		Identity: IdentityConfig{
			Audience:      envStr("SENTRA_TOKEN_AUDIENCE", "sentra"),
			VerifyTimeout: envDur("SENTRA_IDENTITY_TIMEOUT", 2*time.Second),
			KeysFile:      os.Getenv("SENTRA_ISSUER_KEYS_FILE"),
		},
		Device: DeviceConfig{
			MinPatchLevel:     envInt("SENTRA_MIN_PATCH_LEVEL", 0),
			RequireEncryption: envBool("SENTRA_REQUIRE_DISK_ENCRYPTION", true),
			MaxLastSeenAge:    envDur("SENTRA_MAX_LAST_SEEN_AGE", 30*24*time.Hour),
			RevocationTimeout: envDur("SENTRA_REVOCATION_TIMEOUT", 2*time.Second),
			RootCAFile:        os.Getenv("SENTRA_DEVICE_CA_FILE"),
			OCSPResponderURL:  os.Getenv("SENTRA_DEVICE_OCSP_URL"),
		},
		Risk: RiskConfig{
			DeviceTrustWeight:     envFloat("SENTRA_RISK_WEIGHT_DEVICE", 35),
			TravelWeight:          envFloat("SENTRA_RISK_WEIGHT_TRAVEL", 30),
			TimeOfDayWeight:       envFloat("SENTRA_RISK_WEIGHT_TIME", 15),
			AuthFailureWeight:     envFloat("SENTRA_RISK_WEIGHT_AUTH_FAILURES", 20),
			MaxPlausibleSpeedKmh:  envFloat("SENTRA_MAX_TRAVEL_SPEED_KMH", 900),
			AuthFailureSaturation: envInt("SENTRA_AUTH_FAILURE_SATURATION", 5),
		},
		Policy: PolicyConfig{
			BundleFile: os.Getenv("SENTRA_POLICY_FILE"),
		},
		Session: SessionConfig{
			MinTTL: envDur("SENTRA_SESSION_MIN_TTL", 5*time.Minute),
			MaxTTL: envDur("SENTRA_SESSION_MAX_TTL", 8*time.Hour),
		},
		Audit: AuditConfig{
			WriteTimeout:   envDur("SENTRA_AUDIT_TIMEOUT", 2*time.Second),
			MaxRetries:     envInt("SENTRA_AUDIT_RETRIES", 2),
			InitialBackoff: envDur("SENTRA_AUDIT_BACKOFF", 100*time.Millisecond),
			KafkaBrokers:   os.Getenv("SENTRA_AUDIT_KAFKA_BROKERS"),
			KafkaTopic:     envStr("SENTRA_AUDIT_KAFKA_TOPIC", "sentra.audit"),
			PostgresDSN:    os.Getenv("SENTRA_AUDIT_POSTGRES_DSN"),
		},
		Revalidate: RevalidateConfig{
			Interval: envDur("SENTRA_REVALIDATION_INTERVAL", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("SENTRA_REDIS_URL"),
			PoolSize:     envInt("SENTRA_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("SENTRA_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDur("SENTRA_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDur("SENTRA_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDur("SENTRA_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return fallback
}

func envDur(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
