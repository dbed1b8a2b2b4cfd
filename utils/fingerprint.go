package utils

import (
	"hash/fnv"
	"strconv"
	"strings"
)

// Fingerprint hashes query with FNV-64a after collapsing whitespace, so the
// same statement laid out differently gets the same value.
func Fingerprint(query string) string {
	h := fnv.New64a()
	for i, field := range strings.Fields(query) {
		if i > 0 {
			h.Write([]byte{' '})
		}
		h.Write([]byte(field))
	}
	s := strconv.FormatUint(h.Sum64(), 16)
	return strings.Repeat("0", 16-len(s)) + s
}
