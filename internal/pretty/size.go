package pretty

import "fmt"

const (
	kilobyte = 1024
	megabyte = 1024 * kilobyte
)

// Size formats a byte count as B, KB or MB with one decimal
func Size(n int64) string {
	switch {
	case n < kilobyte:
		return fmt.Sprintf("%d B", n)
	case n < megabyte:
		return fmt.Sprintf("%.1f KB", float64(n)/kilobyte)
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/megabyte)
	}
}
