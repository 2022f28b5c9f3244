package main

import (
	"context"
	"crypto/x509"
	"database/sql"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	_ "github.com/lib/pq"

	"sentra/internal/audit"
	"sentra/internal/identity"
	"sentra/internal/platform/config"
	"sentra/internal/policy"
)

// loadIssuerKeys reads a JSON map of issuer to verification key. PEM blocks
// become public keys; anything else is treated as an HMAC shared secret.
func loadIssuerKeys(path string) (*identity.StaticKeySource, error) {
	if path == "" {
		return identity.NewStaticKeySource(nil), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read issuer keys: %w", err)
	}
	var entries map[string]string
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse issuer keys: %w", err)
	}

	keys := make(map[string]any, len(entries))
	for issuer, material := range entries {
		key, err := parseKeyMaterial(material)
		if err != nil {
			return nil, fmt.Errorf("issuer %q: %w", issuer, err)
		}
		keys[issuer] = key
	}
	return identity.NewStaticKeySource(keys), nil
}

func parseKeyMaterial(material string) (any, error) {
	if !strings.Contains(material, "-----BEGIN") {
		return []byte(material), nil
	}
	if key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(material)); err == nil {
		return key, nil
	}
	if key, err := jwt.ParseECPublicKeyFromPEM([]byte(material)); err == nil {
		return key, nil
	}
	return nil, fmt.Errorf("unsupported PEM key material")
}

// loadDeviceRoots builds the trust pool device certificates must chain to
// and returns the parsed roots so callers can address individual CAs. With
// no file configured the pool is empty and every certificate fails
// verification.
func loadDeviceRoots(path string) (*x509.CertPool, []*x509.Certificate, error) {
	pool := x509.NewCertPool()
	if path == "" {
		return pool, nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read device CA bundle: %w", err)
	}
	var certs []*x509.Certificate
	for rest := raw; len(rest) > 0; {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, nil, fmt.Errorf("parse device CA bundle %s: %w", path, err)
		}
		pool.AddCert(cert)
		certs = append(certs, cert)
	}
	if len(certs) == 0 {
		return nil, nil, fmt.Errorf("device CA bundle %s contains no certificates", path)
	}
	return pool, certs, nil
}

// loadPolicyStore compiles the startup bundle. No bundle means an empty rule
// set, which denies everything until an operator loads one.
func loadPolicyStore(path string) (*policy.Store, error) {
	if path == "" {
		return policy.NewStore(&policy.RuleSet{Version: "v0"}), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy bundle: %w", err)
	}
	var bundle policy.Bundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return nil, fmt.Errorf("parse policy bundle: %w", err)
	}
	set, err := policy.CompileBundle(bundle)
	if err != nil {
		return nil, fmt.Errorf("compile policy bundle: %w", err)
	}
	return policy.NewStore(set), nil
}

// buildAuditSink picks the durable sink by configuration: Kafka first,
// Postgres second, in-memory for development.
func buildAuditSink(ctx context.Context, cfg config.AuditConfig) (audit.Sink, func(), error) {
	if cfg.KafkaBrokers != "" {
		sink, err := audit.NewKafkaSink(strings.Split(cfg.KafkaBrokers, ","), cfg.KafkaTopic)
		if err != nil {
			return nil, nil, err
		}
		return sink, sink.Close, nil
	}

	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open audit postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("ping audit postgres: %w", err)
		}
		sink := audit.NewPostgresSink(db)
		if err := sink.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return sink, func() { db.Close() }, nil
	}

	return audit.NewInMemorySink(), func() {}, nil
}
