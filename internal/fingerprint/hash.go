// Package fingerprint computes content-addressed identities for
// integration requests.
//
// Two requests with the same fingerprint must produce the same value: the
// quadrature is deterministic for a fixed integrand, interval, sample
// count, mode, tier and precision. The run store records the fingerprint so
// that recorded runs disagreeing with each other can be found.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
)

// DomainRequest prefixes request hashes. The version suffix allows the
// encoding to change without colliding with old hashes.
const DomainRequest = "parabola/request/v1"

// Request is the part of an integration call that determines its result.
type Request struct {
	Integrand  string
	Lower      float64
	Upper      float64
	Iterations int
	Mode       string
	Tier       int
	Precision  uint32
}

// Object returns r as a canonical JSON object. Bounds are encoded as their
// shortest round-trip decimal strings.
func (r Request) Object() map[string]any {
	return map[string]any{
		"integrand":  r.Integrand,
		"lower":      formatFloat(r.Lower),
		"upper":      formatFloat(r.Upper),
		"iterations": r.Iterations,
		"mode":       r.Mode,
		"tier":       r.Tier,
		"precision":  r.Precision,
	}
}

// Hash returns the hex SHA-256 fingerprint of r.
func (r Request) Hash() (string, error) {
	canonical, err := MarshalCanonical(r.Object())
	if err != nil {
		return "", fmt.Errorf("request hash: %w", err)
	}
	return hashWithDomain(DomainRequest, canonical), nil
}

// MustHash is like Hash but panics on error.
func (r Request) MustHash() string {
	h, err := r.Hash()
	if err != nil {
		panic(err)
	}
	return h
}

// hashWithDomain computes SHA256(domain + 0x00 + data). The null separator
// keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

func formatFloat(x float64) string {
	if x == 0 {
		// -0 and 0 name the same bound.
		x = 0
	}
	return strconv.FormatFloat(x, 'g', -1, 64)
}
