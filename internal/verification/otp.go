package verification

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// OTPLifetime is how long an emailed code stays valid.
const OTPLifetime = 15 * time.Minute

// GenerateOTP returns a uniformly random six-digit code.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generating otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
