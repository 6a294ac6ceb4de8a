package nvdlib

import (
	"fmt"
	"log"
)

// Severity is the CVSS severity level NVD reports for a CVE. Entries
// without impact data carry SeverityUnknown.
type Severity string

const (
	SeverityUnknown  Severity = "UNKNOWN"
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Rank returns the comparable rank of a severity level. A level
// outside the NVD set means the upstream schema changed and is
// reported instead of being coerced.
func (s Severity) Rank() (int, error) {
	switch s {
	case SeverityUnknown:
		return -1, nil
	case SeverityLow:
		return 0, nil
	case SeverityMedium:
		return 1, nil
	case SeverityHigh:
		return 2, nil
	case SeverityCritical:
		return 3, nil
	}

	err := &DataError{Message: fmt.Sprintf("unexpected severity level %q", string(s))}
	log.Printf("%v", err)
	return 0, err
}
