package utils

import (
	"regexp"
	"strconv"
	"strings"
)

func Filter[A any](arr []A, f func(A) bool) []A {
	var res []A
	res = make([]A, 0)
	for _, v := range arr {
		if f(v) {
			res = append(res, v)
		}
	}
	return res
}

var sizeRegex = regexp.MustCompile(`(?i)([\d.]+)\s*([KMGT]?)[OB]?`)

var sizeMultipliers = map[string]int64{
	"":  1,
	"K": 1024,
	"M": 1024 * 1024,
	"G": 1024 * 1024 * 1024,
	"T": 1024 * 1024 * 1024 * 1024,
}

// ParseSize converts a localized size string ("1,5 Go", "700 Mo", "512 Ko",
// "2.75 MB") to bytes. Unknown formats yield 0.
func ParseSize(sizeStr string) int64 {
	sizeStr = strings.ReplaceAll(sizeStr, ",", ".")

	m := sizeRegex.FindStringSubmatch(strings.TrimSpace(sizeStr))
	if m == nil {
		return 0
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	mult, ok := sizeMultipliers[strings.ToUpper(m[2])]
	if !ok {
		return 0
	}
	return int64(value * float64(mult))
}
