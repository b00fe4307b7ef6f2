package notifications

import "fmt"

// Summary counts the outcomes of one fan-out.
type Summary struct {
	SuccessCount int
	TotalCount   int
	Outcomes     []Outcome
}

// Aggregate counts successes. TotalCount is always len(outcomes).
func Aggregate(outcomes []Outcome) Summary {
	s := Summary{TotalCount: len(outcomes), Outcomes: outcomes}
	for _, o := range outcomes {
		if o.Success {
			s.SuccessCount++
		}
	}
	if s.Outcomes == nil {
		s.Outcomes = []Outcome{}
	}
	return s
}

// Message renders the human-readable summary line.
func (s Summary) Message() string {
	return fmt.Sprintf("Sent %d/%d notifications", s.SuccessCount, s.TotalCount)
}
