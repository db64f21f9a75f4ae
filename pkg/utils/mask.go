package utils

// MaskSecret returns a redacted form of a credential suitable for logging:
// the first and last three characters with the middle elided. Values shorter
// than ten characters are fully masked.
func MaskSecret(s string) string {
	if len(s) < 10 {
		return "***"
	}
	return s[:3] + "..." + s[len(s)-3:]
}
