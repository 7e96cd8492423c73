package storage

import (
	"strconv"
	"strings"
)

// fieldsKey encodes a field selection the way result logs print it, e.g.
// []int{0, 1, 2} -> "012".
func fieldsKey(fields []int) string {
	var b strings.Builder
	for _, f := range fields {
		b.WriteString(strconv.Itoa(f))
	}
	return b.String()
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
