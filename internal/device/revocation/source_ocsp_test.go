package revocation

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/ocsp"
)

type OCSPSourceSuite struct {
	suite.Suite
	caCert *x509.Certificate
	caKey  *ecdsa.PrivateKey
}

func TestOCSPSourceSuite(t *testing.T) {
	suite.Run(t, new(OCSPSourceSuite))
}

func (s *OCSPSourceSuite) SetupSuite() {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	s.Require().NoError(err)

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "device-ca"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	s.Require().NoError(err)
	cert, err := x509.ParseCertificate(der)
	s.Require().NoError(err)

	s.caCert = cert
	s.caKey = key
}

// newResponder serves signed OCSP responses, answering the given status for
// whatever serial the request carries.
func (s *OCSPSourceSuite) newResponder(status int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		req, err := ocsp.ParseRequest(raw)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		template := ocsp.Response{
			Status:       status,
			SerialNumber: req.SerialNumber,
			ThisUpdate:   time.Now().Add(-time.Minute),
			NextUpdate:   time.Now().Add(time.Hour),
		}
		if status == ocsp.Revoked {
			template.RevokedAt = time.Now().Add(-time.Minute)
			template.RevocationReason = ocsp.KeyCompromise
		}
		resp, err := ocsp.CreateResponse(s.caCert, s.caCert, template, s.caKey)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/ocsp-response")
		w.Write(resp)
	}))
}

func (s *OCSPSourceSuite) newSource(responderURL string) *OCSPSource {
	source, err := NewOCSPSource(responderURL, s.caCert, time.Second)
	s.Require().NoError(err)
	return source
}

func (s *OCSPSourceSuite) TestCheckGoodCertificate() {
	responder := s.newResponder(ocsp.Good)
	defer responder.Close()

	status, err := s.newSource(responder.URL).Check(context.Background(), "a1b2c3")
	s.Require().NoError(err)
	s.Equal(StatusValid, status)
}

func (s *OCSPSourceSuite) TestCheckRevokedCertificate() {
	responder := s.newResponder(ocsp.Revoked)
	defer responder.Close()

	status, err := s.newSource(responder.URL).Check(context.Background(), "a1b2c3")
	s.Require().NoError(err)
	s.Equal(StatusRevoked, status)
}

func (s *OCSPSourceSuite) TestCheckUnknownCertificate() {
	responder := s.newResponder(ocsp.Unknown)
	defer responder.Close()

	status, err := s.newSource(responder.URL).Check(context.Background(), "a1b2c3")
	s.Require().NoError(err)
	s.Equal(StatusUnknown, status)
}

func (s *OCSPSourceSuite) TestResponderErrorIsUnknown() {
	responder := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer responder.Close()

	status, err := s.newSource(responder.URL).Check(context.Background(), "a1b2c3")
	s.Require().Error(err)
	s.Equal(StatusUnknown, status)
}

func (s *OCSPSourceSuite) TestUnreachableResponderIsUnknown() {
	status, err := s.newSource("http://127.0.0.1:1").Check(context.Background(), "a1b2c3")
	s.Require().Error(err)
	s.Equal(StatusUnknown, status)
}

func (s *OCSPSourceSuite) TestMalformedCertificateID() {
	responder := s.newResponder(ocsp.Good)
	defer responder.Close()

	status, err := s.newSource(responder.URL).Check(context.Background(), "not hex!")
	s.Require().Error(err)
	s.Equal(StatusUnknown, status)
}

func (s *OCSPSourceSuite) TestCanceledContextIsUnknown() {
	responder := s.newResponder(ocsp.Good)
	defer responder.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	status, err := s.newSource(responder.URL).Check(ctx, "a1b2c3")
	s.Require().Error(err)
	s.Equal(StatusUnknown, status)
}
