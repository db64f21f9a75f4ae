package secrets

import (
	"encoding/hex"
	"strconv"
	"strings"
)

// Derive deobfuscates a raw seed byte array into OTP secret material.
//
// Each byte is XORed with (i%33)+9, the results are concatenated as decimal
// text, and the UTF-8 bytes of that text are hex-encoded. The transform must
// match the upstream validator exactly or generated codes will not verify.
func Derive(raw []int) string {
	var sb strings.Builder
	for i, b := range raw {
		sb.WriteString(strconv.Itoa(b ^ (i%33 + 9)))
	}
	return hex.EncodeToString([]byte(sb.String()))
}
