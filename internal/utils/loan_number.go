package utils

import (
	"fmt"
	"time"
)

// GenerateLoanNumber produces a human-facing loan number of the form
// LN-<year>-<6 digits>, derived from the millisecond clock. The loans table
// still enforces uniqueness.
func GenerateLoanNumber(now time.Time) string {
	return fmt.Sprintf("LN-%d-%06d", now.Year(), now.UnixMilli()%1_000_000)
}
