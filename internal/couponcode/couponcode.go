// Package couponcode generates human-readable order codes of the form
// PREFIX-<base36 timestamp>-<4 char suffix>, uppercased. The generator is
// probabilistic; global uniqueness is enforced by the store's unique index on
// bookings.coupon_code, and the writer retries with a fresh code on collision.
package couponcode

import (
	"crypto/rand"
	"strconv"
	"strings"
	"time"
)

// DefaultPrefix matches the storefront's historical code prefix.
const DefaultPrefix = "GIT"

const suffixAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const suffixLen = 4

// Generate produces a new candidate coupon code. An empty prefix falls back
// to DefaultPrefix.
func Generate(prefix string) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)

	var sb strings.Builder
	sb.WriteString(prefix)
	sb.WriteByte('-')
	sb.WriteString(ts)
	sb.WriteByte('-')
	sb.WriteString(randomSuffix())

	return strings.ToUpper(sb.String())
}

// Normalize maps caller-supplied codes onto the stored representation.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func randomSuffix() string {
	buf := make([]byte, suffixLen)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails if the OS entropy source is broken; fall back
		// to the timestamp so generation never blocks booking creation.
		return strconv.FormatInt(time.Now().UnixNano()%1679616, 36) // 36^4
	}
	for i, b := range buf {
		buf[i] = suffixAlphabet[int(b)%len(suffixAlphabet)]
	}
	return string(buf)
}
