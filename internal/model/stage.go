package model

// Stage is the lifecycle state of one analysis run.
//
//	Pending -> Fetching -> Analyzing -> Sizing -> Estimating -> Done
//
// Failed is reachable from every non-terminal stage.
type Stage int

const (
	StagePending Stage = iota
	StageFetching
	StageAnalyzing
	StageSizing
	StageEstimating
	StageDone
	StageFailed
)

// String returns the lowercase stage name.
func (s Stage) String() string {
	switch s {
	case StagePending:
		return "pending"
	case StageFetching:
		return "fetching"
	case StageAnalyzing:
		return "analyzing"
	case StageSizing:
		return "sizing"
	case StageEstimating:
		return "estimating"
	case StageDone:
		return "done"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further transition is possible.
func (s Stage) IsTerminal() bool {
	return s == StageDone || s == StageFailed
}

// MarshalText implements encoding.TextMarshaler.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
