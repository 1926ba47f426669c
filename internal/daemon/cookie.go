package daemon

import (
	"crypto/rand"
	"crypto/subtle"
	"os"

	"github.com/pkg/errors"
)

// CookieSize is the number of random bytes written to the cookie file
// (§6: 16-32 bytes).
const CookieSize = 32

// GenerateCookie produces a fresh random authorization token.
func GenerateCookie() ([]byte, error) {
	buf := make([]byte, CookieSize)
	if _, err := rand.Read(buf); err != nil {
		return nil, errors.Wrap(err, "daemon: generate cookie")
	}
	return buf, nil
}

// WriteCookieFile persists cookie to path with permissions readable
// only by the daemon's intended principals (§6).
func WriteCookieFile(path string, cookie []byte) error {
	if err := os.WriteFile(path, cookie, 0o600); err != nil {
		return errors.Wrap(err, "daemon: write cookie file")
	}
	return nil
}

// ReadCookieFile reads a cookie previously written by WriteCookieFile.
func ReadCookieFile(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "daemon: read cookie file")
	}
	return b, nil
}

// CookiesEqual compares two cookies in constant time to avoid timing
// side channels on the authentication check.
func CookiesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
