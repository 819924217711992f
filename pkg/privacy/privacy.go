// Package privacy keyless-hashes caller identities before they reach logs or
// audit sinks. Session ids and client keys are correlation handles, not
// secrets, but raw values still do not belong in operational storage.
package privacy

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// HashIdentity returns a short stable digest of an identity key. The digest
// is long enough to correlate events and short enough to stay readable in
// log lines.
func HashIdentity(identity string) string {
	if identity == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(identity))
	return hex.EncodeToString(sum[:8])
}
