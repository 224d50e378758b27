package idp

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// tempPasswordBytes gives 144 bits of entropy, enough for a one-time
// credential the user is expected to change.
const tempPasswordBytes = 18

// GenerateTempPassword returns a cryptographically random temporary
// password for administrative provisioning.
func GenerateTempPassword() (string, error) {
	buf := make([]byte, tempPasswordBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
