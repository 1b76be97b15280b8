package gateway

import (
	"time"

	"github.com/pquerna/otp/totp"
)

// authWindow is how long a session may idle before completing the TOTP
// handshake.
const authWindow = 10 * time.Second

// validateTOTP checks a client-supplied code against the shared secret.
// An empty secret disables authentication entirely.
func validateTOTP(secret, code string) bool {
	if secret == "" {
		return true
	}
	return totp.Validate(code, secret)
}
