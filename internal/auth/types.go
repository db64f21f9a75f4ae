package auth

import "fmt"

// TokenError reports that no usable bearer token could be obtained.
type TokenError struct {
	Msg string
	Err error
}

func (e *TokenError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token: %s: %v", e.Msg, e.Err)
	}
	return "token: " + e.Msg
}

func (e *TokenError) Unwrap() error { return e.Err }

// activeSecret is the current OTP secret/version pair. It is swapped whole so
// readers never observe a mismatched combination.
type activeSecret struct {
	secret  string
	version string
}
