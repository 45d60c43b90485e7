package util

import "strconv"

// ParseIntDefault parses s or returns def when s is empty or not an integer.
func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// ParseIntClamp is ParseIntDefault bounded to [lo, hi].
func ParseIntClamp(s string, def, lo, hi int) int {
	return min(max(ParseIntDefault(s, def), lo), hi)
}
