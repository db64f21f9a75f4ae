package secrets

import "strconv"

// Table maps a secret version identifier to its obfuscated seed bytes as
// distributed upstream. A Table is immutable once fetched; refreshes replace
// it wholesale.
type Table map[string][]int

// Newest returns the entry with the numerically greatest version identifier.
// Non-numeric keys are ignored. ok is false when no numeric entry exists.
func (t Table) Newest() (version string, raw []int, ok bool) {
	best := -1
	for k, v := range t {
		n, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		if n > best {
			best = n
			version = k
			raw = v
		}
	}
	if best < 0 {
		return "", nil, false
	}
	return version, raw, true
}
