package certutil

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"strings"
	"time"

	"github.com/go-acme/lego/v4/certcrypto"
)

const pemTypeCertificate = "CERTIFICATE"

// GenerateRSAKey creates a new RSA private key. Key generation is CPU-heavy;
// callers on a latency-sensitive path should run it off that path.
func GenerateRSAKey(bits int) (*rsa.PrivateKey, error) {
	if bits < 2048 {
		bits = 2048
	}
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("certutil: generate RSA key: %w", err)
	}
	return key, nil
}

// EncodePrivateKeyPEM renders a private key as PEM.
func EncodePrivateKeyPEM(key crypto.PrivateKey) ([]byte, error) {
	block := certcrypto.PEMBlock(key)
	if block == nil {
		return nil, fmt.Errorf("certutil: unsupported private key type %T", key)
	}
	return pem.EncodeToMemory(block), nil
}

// ParsePrivateKeyPEM parses a PEM-encoded private key (PKCS#1, PKCS#8 or EC).
func ParsePrivateKeyPEM(pemBytes []byte) (crypto.PrivateKey, error) {
	key, err := certcrypto.ParsePEMPrivateKey(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("certutil: parse private key: %w", err)
	}
	return key, nil
}

// CreateCSR builds a certificate signing request covering exactly one domain,
// signed with the domain's private key.
func CreateCSR(key crypto.PrivateKey, domain string) (*x509.CertificateRequest, error) {
	der, err := certcrypto.GenerateCSR(key, domain, []string{domain}, false)
	if err != nil {
		return nil, fmt.Errorf("certutil: create CSR for %s: %w", domain, err)
	}
	csr, err := x509.ParseCertificateRequest(der)
	if err != nil {
		return nil, fmt.Errorf("certutil: parse CSR for %s: %w", domain, err)
	}
	return csr, nil
}

// ParseCertificatePEM parses the first certificate block in pemBytes.
func ParseCertificatePEM(pemBytes []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil || block.Type != pemTypeCertificate {
		return nil, fmt.Errorf("certutil: no certificate block found")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("certutil: parse certificate: %w", err)
	}
	return cert, nil
}

// SplitChainPEM splits a bundled PEM chain into the leaf certificate and the
// ordered list of intermediates.
func SplitChainPEM(bundle []byte) (leaf []byte, intermediates [][]byte) {
	rest := bundle
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			return leaf, intermediates
		}
		if block.Type != pemTypeCertificate {
			continue
		}
		encoded := pem.EncodeToMemory(block)
		if leaf == nil {
			leaf = encoded
			continue
		}
		intermediates = append(intermediates, encoded)
	}
}

// Info summarizes the identifying fields of a leaf certificate.
type Info struct {
	SerialNumber string
	Fingerprint  string
	AltNames     []string
	ValidFrom    time.Time
	ValidTo      time.Time
}

// Describe extracts the identifying fields of a certificate. The fingerprint
// is the SHA-256 digest of the DER encoding, colon-separated uppercase hex.
func Describe(cert *x509.Certificate) Info {
	altNames := append([]string(nil), cert.DNSNames...)
	if len(altNames) == 0 && cert.Subject.CommonName != "" {
		altNames = []string{cert.Subject.CommonName}
	}

	return Info{
		SerialNumber: strings.ToUpper(cert.SerialNumber.Text(16)),
		Fingerprint:  fingerprint(cert.Raw),
		AltNames:     altNames,
		ValidFrom:    cert.NotBefore,
		ValidTo:      cert.NotAfter,
	}
}

func fingerprint(der []byte) string {
	sum := sha256.Sum256(der)
	hexed := strings.ToUpper(hex.EncodeToString(sum[:]))

	var b strings.Builder
	b.Grow(len(hexed) + len(hexed)/2)
	for i := 0; i < len(hexed); i += 2 {
		if i > 0 {
			b.WriteByte(':')
		}
		b.WriteString(hexed[i : i+2])
	}
	return b.String()
}
