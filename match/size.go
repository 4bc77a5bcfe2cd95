package match

import "fmt"

const (
	kib = 1024
	mib = 1024 * kib
	gib = 1024 * mib
)

// FormatSize renders a byte count with binary units and the French unit
// suffixes the trackers in scope use (Go/Mo/Ko), two decimal places.
func FormatSize(sizeBytes int64) string {
	if sizeBytes < 0 {
		return "0 B"
	}
	size := float64(sizeBytes)
	switch {
	case size >= gib:
		return fmt.Sprintf("%.2f Go", size/gib)
	case size >= mib:
		return fmt.Sprintf("%.2f Mo", size/mib)
	default:
		return fmt.Sprintf("%.2f Ko", size/kib)
	}
}
