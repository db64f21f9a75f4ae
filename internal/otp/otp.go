// Package otp produces the 6-digit time-based codes the upstream token
// endpoint validates: RFC 6238, 30-second period, SHA-1.
package otp

import (
	"encoding/base32"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// Generate returns the code for the hex-encoded secret at the given
// Unix-millisecond instant. The instant is explicit so callers can compute
// codes for both local and server-reported time.
func Generate(hexSecret string, atMs int64) (string, error) {
	key, err := hex.DecodeString(hexSecret)
	if err != nil {
		return "", fmt.Errorf("invalid otp secret: %w", err)
	}

	code, err := totp.GenerateCodeCustom(b32.EncodeToString(key), time.UnixMilli(atMs), totp.ValidateOpts{
		Period:    30,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("generate otp code: %w", err)
	}
	return code, nil
}
