// internal/workflow/numbers.go
package workflow

import "fmt"

// Number prefixes per document kind.
const (
	PrefixApplication = "FD"
	PrefixNOC         = "NOC"
	PrefixLicense     = "LIC"
)

// FormatNumber renders <prefix><year><6-digit sequence>.
func FormatNumber(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s%d%06d", prefix, year, seq)
}
