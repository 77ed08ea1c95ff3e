package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"math/rand/v2"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Rand returns a generator seeded from HMAC(salt, YYYY-MM-DD).
// Everyone shuffling with it on the same date gets the same deck order.
func Rand(date time.Time, salt string) *rand.Rand {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	var seed [32]byte
	copy(seed[:], h.Sum(nil))
	return rand.New(rand.NewChaCha8(seed))
}
