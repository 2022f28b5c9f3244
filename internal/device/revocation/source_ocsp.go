package revocation

import (
	"bytes"
	"context"
	"crypto"
	"crypto/sha1"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"golang.org/x/crypto/ocsp"
)

// maxOCSPResponseBytes bounds how much of a responder's body we will read.
const maxOCSPResponseBytes = 1 << 20

// OCSPSource checks certificate status against an OCSP responder. The
// certificate identifier is the hex serial number, matching what the device
// assessor extracts from presented certificates. Any transport, parse, or
// signature failure yields StatusUnknown so callers fail closed.
type OCSPSource struct {
	responderURL string
	issuer       *x509.Certificate
	nameHash     []byte
	keyHash      []byte
	client       *http.Client
}

// NewOCSPSource builds a source against the given responder URL. The issuer
// must be the CA that signed the device certificates; its name and key
// hashes identify the CA in every request. The timeout bounds each HTTP
// exchange on top of the caller's context.
func NewOCSPSource(responderURL string, issuer *x509.Certificate, timeout time.Duration) (*OCSPSource, error) {
	if responderURL == "" {
		return nil, fmt.Errorf("ocsp responder URL is empty")
	}
	if issuer == nil {
		return nil, fmt.Errorf("ocsp issuer certificate is nil")
	}
	var spki struct {
		Algorithm pkix.AlgorithmIdentifier
		PublicKey asn1.BitString
	}
	if _, err := asn1.Unmarshal(issuer.RawSubjectPublicKeyInfo, &spki); err != nil {
		return nil, fmt.Errorf("parse issuer public key: %w", err)
	}
	nameHash := sha1.Sum(issuer.RawSubject)
	keyHash := sha1.Sum(spki.PublicKey.RightAlign())
	return &OCSPSource{
		responderURL: responderURL,
		issuer:       issuer,
		nameHash:     nameHash[:],
		keyHash:      keyHash[:],
		client:       &http.Client{Timeout: timeout},
	}, nil
}

// Check asks the responder for the certificate's status.
func (s *OCSPSource) Check(ctx context.Context, certificateID string) (Status, error) {
	start := time.Now()
	defer func() {
		checkDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	serial, ok := new(big.Int).SetString(certificateID, 16)
	if !ok {
		return StatusUnknown, fmt.Errorf("certificate id %q is not a hex serial", certificateID)
	}

	req := ocsp.Request{
		HashAlgorithm:  crypto.SHA1,
		IssuerNameHash: s.nameHash,
		IssuerKeyHash:  s.keyHash,
		SerialNumber:   serial,
	}
	der, err := req.Marshal()
	if err != nil {
		return StatusUnknown, fmt.Errorf("marshal ocsp request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.responderURL, bytes.NewReader(der))
	if err != nil {
		return StatusUnknown, fmt.Errorf("build ocsp request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/ocsp-request")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return StatusUnknown, fmt.Errorf("query ocsp responder: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return StatusUnknown, fmt.Errorf("ocsp responder returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxOCSPResponseBytes))
	if err != nil {
		return StatusUnknown, fmt.Errorf("read ocsp response: %w", err)
	}

	parsed, err := ocsp.ParseResponse(body, s.issuer)
	if err != nil {
		return StatusUnknown, fmt.Errorf("parse ocsp response: %w", err)
	}
	switch parsed.Status {
	case ocsp.Good:
		return StatusValid, nil
	case ocsp.Revoked:
		return StatusRevoked, nil
	default:
		return StatusUnknown, nil
	}
}
