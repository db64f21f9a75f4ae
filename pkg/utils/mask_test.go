package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "AQB...xyz", MaskSecret("AQB1234567890xyz"))
	assert.Equal(t, "***", MaskSecret("short"))
	assert.Equal(t, "***", MaskSecret(""))
}
