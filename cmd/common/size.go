package common

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	KB int64 = 1024
	MB       = 1024 * KB
	GB       = 1024 * MB
	TB       = 1024 * GB
)

// ParseSize parses a human size such as "512", "1k", "1.5MB" or "2 g".
// Units are binary and case-insensitive.
func ParseSize(s string) (int64, error) {
	str := strings.ToLower(strings.TrimSpace(s))
	if str == "" {
		return 0, fmt.Errorf("empty size")
	}

	i := 0
	for i < len(str) && (str[i] >= '0' && str[i] <= '9' || str[i] == '.') {
		i++
	}
	if i == 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}

	num, err := strconv.ParseFloat(str[:i], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}

	var mult int64
	switch strings.TrimSpace(str[i:]) {
	case "", "b":
		mult = 1
	case "k", "kb":
		mult = KB
	case "m", "mb":
		mult = MB
	case "g", "gb":
		mult = GB
	case "t", "tb":
		mult = TB
	default:
		return 0, fmt.Errorf("invalid size unit in %q", s)
	}

	return int64(num * float64(mult)), nil
}
