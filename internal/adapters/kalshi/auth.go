package kalshi

// auth.go: firma RSA-PSS de Kalshi.
//
// Cada petición autenticada lleva tres headers:
//   KALSHI-ACCESS-KEY        id de la API key
//   KALSHI-ACCESS-TIMESTAMP  unix ms
//   KALSHI-ACCESS-SIGNATURE  base64(RSA-PSS-SHA256(timestamp + METHOD + path))
// path es el path completo de la URL sin query string.

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

const (
	headerKey       = "KALSHI-ACCESS-KEY"
	headerTimestamp = "KALSHI-ACCESS-TIMESTAMP"
	headerSignature = "KALSHI-ACCESS-SIGNATURE"
)

// Signer firma peticiones con la clave privada de la cuenta.
type Signer struct {
	keyID string
	key   *rsa.PrivateKey
	now   func() time.Time
}

// NewSigner crea un Signer a partir de una clave ya cargada.
func NewSigner(keyID string, key *rsa.PrivateKey) *Signer {
	return &Signer{keyID: keyID, key: key, now: time.Now}
}

// LoadPrivateKey lee una clave RSA PEM (PKCS#1 o PKCS#8). Cualquier fallo
// se devuelve envuelto en domain.ErrAuth.
func LoadPrivateKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("kalshi.LoadPrivateKey: read %q: %w: %v", path, domain.ErrAuth, err)
	}
	return ParsePrivateKey(data)
}

// ParsePrivateKey decodifica una clave RSA PEM.
func ParsePrivateKey(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("kalshi.ParsePrivateKey: no PEM block: %w", domain.ErrAuth)
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("kalshi.ParsePrivateKey: %w: %v", domain.ErrAuth, err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("kalshi.ParsePrivateKey: key must be RSA, got %T: %w", parsed, domain.ErrAuth)
	}
	return key, nil
}

// Sign devuelve la firma base64 del mensaje timestamp+method+path.
func (s *Signer) Sign(timestampMs int64, method, path string) (string, error) {
	msg := strconv.FormatInt(timestampMs, 10) + method + path
	digest := sha256.Sum256([]byte(msg))
	sig, err := rsa.SignPSS(rand.Reader, s.key, crypto.SHA256, digest[:], &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
	})
	if err != nil {
		return "", fmt.Errorf("kalshi.Sign: %w: %v", domain.ErrAuth, err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// Apply añade los headers de autenticación a req. Se usa como hook del
// cliente REST, así que se ejecuta en cada reintento con un timestamp nuevo.
func (s *Signer) Apply(req *http.Request) error {
	ts := s.now().UnixMilli()
	sig, err := s.Sign(ts, req.Method, req.URL.Path)
	if err != nil {
		return err
	}
	req.Header.Set(headerKey, s.keyID)
	req.Header.Set(headerTimestamp, strconv.FormatInt(ts, 10))
	req.Header.Set(headerSignature, sig)
	return nil
}
