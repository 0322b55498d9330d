package common

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashCredential digests a bearer secret (refresh token, login code) for
// storage. Only the digest is persisted, so a leaked row cannot be replayed
// as the original credential.
func HashCredential(raw string) string {
	digest := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(digest[:])
}
