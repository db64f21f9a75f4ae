package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerive_KnownVector(t *testing.T) {
	// 1^9=8, 2^10=8, 3^11=8 -> "888" -> hex("888")
	got := Derive([]int{1, 2, 3})
	assert.Equal(t, "383838", got)
}

func TestDerive_Deterministic(t *testing.T) {
	raw := []int{63, 12, 115, 0, 44, 255, 33, 7, 90, 18}
	first := Derive(raw)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Derive(raw))
	}
}

func TestDerive_EmptyInput(t *testing.T) {
	assert.Equal(t, "", Derive(nil))
}

func TestDerive_IndexDependent(t *testing.T) {
	// The same byte value transforms differently by position:
	// 5^9=12, 5^10=15 -> "1215" -> hex("1215").
	assert.Equal(t, "31323135", Derive([]int{5, 5}))
}

func TestTable_Newest(t *testing.T) {
	table := Table{
		"18": {1, 2, 3},
		"19": {4, 5, 6},
		"9":  {7, 8, 9},
	}

	version, raw, ok := table.Newest()
	require.True(t, ok)
	assert.Equal(t, "19", version)
	assert.Equal(t, []int{4, 5, 6}, raw)
}

func TestTable_Newest_IgnoresNonNumeric(t *testing.T) {
	table := Table{
		"latest": {9, 9, 9},
		"7":      {1, 2, 3},
	}

	version, raw, ok := table.Newest()
	require.True(t, ok)
	assert.Equal(t, "7", version)
	assert.Equal(t, []int{1, 2, 3}, raw)
}

func TestTable_Newest_Empty(t *testing.T) {
	_, _, ok := Table{}.Newest()
	assert.False(t, ok)

	_, _, ok = Table{"abc": {1}}.Newest()
	assert.False(t, ok)
}
