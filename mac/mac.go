package mac

import (
	"fmt"
	"math/rand/v2"
	"regexp"
)

var (
	// \w{2} pairs: accepts any word character, not only hex digits.
	// The kernel rejects what is not hex when the address is applied.
	validPattern   = regexp.MustCompile(`^(\w{2}:){5}\w{2}$`)
	extractPattern = regexp.MustCompile(`(\w{2}:){5}\w{2}`)
)

// Generate returns a random locally-administered unicast MAC address.
// The first octet is always 02; the other five are uniformly random bytes.
// Not cryptographically secure.
func Generate() string {
	var buf [5]byte
	for i := range buf {
		buf[i] = byte(rand.IntN(256)) //nolint:gosec,mnd
	}
	return fmt.Sprintf("02:%02x:%02x:%02x:%02x:%02x", buf[0], buf[1], buf[2], buf[3], buf[4])
}

// IsValid reports whether s has the six colon-separated pairs shape.
func IsValid(s string) bool {
	return validPattern.MatchString(s)
}

// Extract returns the first MAC-shaped substring of out, or "" when there is none.
func Extract(out string) string {
	return extractPattern.FindString(out)
}
