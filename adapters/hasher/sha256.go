package hasher

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/satriahrh/cocoa-fruit/teacher/domain"
)

// New returns a domain.Hasher backed by SHA‑256. Result digests use it so
// clients can tell whether the displayed answer changed.
func New() domain.Hasher { return sha256Hasher{} }

type sha256Hasher struct{}

func (h sha256Hasher) Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
