// internal/engine/fingerprint.go
package engine

import (
	"encoding/hex"
	"encoding/json"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint returns a hex blake2b-256 digest of the state's canonical JSON
// encoding. GameState holds only ordered slices and scalars, so the encoding
// is stable and two equal states always hash identically.
func Fingerprint(s GameState) string {
	data, err := json.Marshal(s)
	if err != nil {
		// GameState contains no unmarshalable types; this cannot happen.
		panic(err)
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
