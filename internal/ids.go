package internal

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// NewID returns a collision-resistant identifier for sessions, messages
// and documents.
func NewID() string {
	return uuid.NewString()
}

const tokenAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewCorrelationToken returns the per-chat token the workflow uses to keep
// its own conversation context: "hein-<unix ms>-<7 base36 chars>".
func NewCorrelationToken(now time.Time) string {
	suffix := make([]byte, 7)
	base := big.NewInt(int64(len(tokenAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			return fmt.Sprintf("hein-%d-%s", now.UnixMilli(), uuid.NewString()[:7])
		}
		suffix[i] = tokenAlphabet[n.Int64()]
	}
	return fmt.Sprintf("hein-%d-%s", now.UnixMilli(), suffix)
}
