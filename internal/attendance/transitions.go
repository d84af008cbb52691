package attendance

import (
	"fmt"

	"attendx/pkg/contracts/domain"
)

// DefaultTransitions are the watched kinds: sick then truant, late then truant.
func DefaultTransitions() []domain.TransitionKind {
	return []domain.TransitionKind{
		{From: domain.LabelYellow, To: domain.LabelRed},
		{From: domain.LabelGreen, To: domain.LabelRed},
	}
}

// ParseTransitions parses "from>to" entries in order.
func ParseTransitions(entries []string) ([]domain.TransitionKind, error) {
	kinds := make([]domain.TransitionKind, 0, len(entries))
	for _, e := range entries {
		k, err := domain.ParseTransitionKind(e)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// TransitionDetector finds watched adjacent label pairs within a day.
type TransitionDetector struct {
	watched []domain.TransitionKind
}

// NewTransitionDetector creates a detector for the given kinds, in priority
// order. An empty list watches nothing.
func NewTransitionDetector(watched []domain.TransitionKind) (*TransitionDetector, error) {
	seen := make(map[domain.TransitionKind]bool, len(watched))
	for _, k := range watched {
		if k.From == domain.LabelNone || k.To == domain.LabelNone {
			return nil, fmt.Errorf("transition %s uses an empty label", k)
		}
		if seen[k] {
			return nil, fmt.Errorf("transition %s listed twice", k)
		}
		seen[k] = true
	}
	return &TransitionDetector{watched: append([]domain.TransitionKind(nil), watched...)}, nil
}

// Watched returns the configured kinds.
func (d *TransitionDetector) Watched() []domain.TransitionKind {
	return append([]domain.TransitionKind(nil), d.watched...)
}

// Detect scans each day of the record independently and reports at most one
// event per day: the first adjacent pair, left to right, that matches a
// watched kind. Unclassified cells never take part in a match.
func (d *TransitionDetector) Detect(record domain.StudentRecord) []domain.TransitionEvent {
	var events []domain.TransitionEvent
	for _, day := range record.Days {
		kind, pos, ok := d.firstMatch(day.Labels)
		if !ok {
			continue
		}
		events = append(events, domain.TransitionEvent{
			Row:      record.Row,
			Student:  record.Student,
			Day:      day.Day,
			Kind:     kind,
			Position: pos,
		})
	}
	return events
}

func (d *TransitionDetector) firstMatch(labels []domain.Label) (domain.TransitionKind, int, bool) {
	for i := 0; i+1 < len(labels); i++ {
		from, to := labels[i], labels[i+1]
		if from == domain.LabelNone || to == domain.LabelNone {
			continue
		}
		for _, k := range d.watched {
			if k.From == from && k.To == to {
				return k, i, true
			}
		}
	}
	return domain.TransitionKind{}, 0, false
}
