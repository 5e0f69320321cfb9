// Package privacy provides pseudonymization helpers for client network
// addresses. Tokens produced here are for abuse throttling and audit fields
// only, never for authentication.
package privacy

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// UnknownIdentity is the sentinel token for a missing or empty client address.
const UnknownIdentity = "unknown"

const identityTokenLen = 16 // hex chars, 8 bytes of digest

// HashIdentity derives a short, stable, non-reversible token from a raw
// client address. Deterministic: the same input always maps to the same
// token. Raw addresses are never stored; only the token is.
func HashIdentity(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return UnknownIdentity
	}
	sum := blake2b.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])[:identityTokenLen]
}

// AnonymizeIP reduces an IP to a coarse prefix for log fields so logs never
// carry a full client address. IPv4 keeps the first two octets; IPv6 keeps
// the first two groups.
func AnonymizeIP(ip string) string {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return UnknownIdentity
	}
	if strings.Contains(ip, ":") {
		parts := strings.Split(ip, ":")
		if len(parts) >= 2 {
			return parts[0] + ":" + parts[1] + "::/32"
		}
		return ip
	}
	parts := strings.Split(ip, ".")
	if len(parts) == 4 {
		return parts[0] + "." + parts[1] + ".x.x"
	}
	return ip
}
