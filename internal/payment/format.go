package payment

import "fmt"

// FormatRemainingTime renders a countdown as "{m}m {s}s" when at least a
// minute remains, otherwise "{s}s". Negative values render as "0s".
func FormatRemainingTime(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	totalSeconds := ms / 1000
	minutes := totalSeconds / 60
	seconds := totalSeconds % 60
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
