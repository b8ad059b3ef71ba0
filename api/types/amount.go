package types

import (
	"strconv"
)

// ParseAmount parses a decimal token amount
func ParseAmount(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}

// FormatAmount formats a token amount as a decimal string
func FormatAmount(v uint64) string {
	return strconv.FormatUint(v, 10)
}
