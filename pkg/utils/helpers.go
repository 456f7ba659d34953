package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseLots parses a comma separated lot list like "1,2, 3".
func ParseLots(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	lots := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid lot %q: %w", strings.TrimSpace(p), err)
		}
		lots = append(lots, n)
	}
	return lots, nil
}

// ParseKeyValues parses repeated key=value flags into a map.
func ParseKeyValues(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("expected key=value, got %q", pair)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}
