package diag

// Severity orders diagnostics; only SevError makes a run fail.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning // the value was still lowered, possibly degraded
	SevError
)

var severityNames = [...]string{
	SevInfo:    "INFO",
	SevWarning: "WARNING",
	SevError:   "ERROR",
}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "UNKNOWN"
}
