package diag

// Severity ranks how serious a diagnostic is. Bags sort higher severities
// first within the same span.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	// SevError fails the compile that produced it.
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}
