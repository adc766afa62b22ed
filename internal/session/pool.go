package session

import (
	"github.com/stemsi/exam-portal/internal/model"
)

// Location is where a written fragment currently sits. QuestionID 0 is the
// section's shared pool.
type Location struct {
	QuestionID int `json:"question_id"`
}

// PoolLocation is the section's shared pool.
var PoolLocation = Location{}

func (l Location) IsPool() bool { return l.QuestionID == 0 }

// sectionFragments returns the distinct written fragments of a section in
// option order.
func sectionFragments(s model.Section) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, q := range s.Questions {
		if q.Type != model.QuestionTypeWritten {
			continue
		}
		for _, o := range q.Options {
			if _, ok := seen[o.Text]; ok || o.Text == "" {
				continue
			}
			seen[o.Text] = struct{}{}
			out = append(out, o.Text)
		}
	}
	return out
}

// buildPools derives every section's pool from the placed fragments and
// drops placements that violate the one-location rule: unknown fragments,
// fragments already placed elsewhere and slots holding more than two.
func buildPools(sections []model.Section, answers model.Answers, shuffle func(n int, swap func(i, j int))) map[string][]string {
	pools := make(map[string][]string, len(sections))

	for _, s := range sections {
		known := sectionFragments(s)
		knownSet := make(map[string]struct{}, len(known))
		for _, f := range known {
			knownSet[f] = struct{}{}
		}

		placed := make(map[string]struct{})
		for _, q := range s.Questions {
			if q.Type != model.QuestionTypeWritten {
				continue
			}
			a, ok := answers[q.Key()]
			if !ok {
				continue
			}
			var kept []string
			for _, f := range a.Values {
				if _, isKnown := knownSet[f]; !isKnown {
					continue
				}
				if _, dup := placed[f]; dup {
					continue
				}
				if len(kept) == model.MaxWrittenFragments {
					break
				}
				placed[f] = struct{}{}
				kept = append(kept, f)
			}
			if len(kept) == 0 {
				delete(answers, q.Key())
				continue
			}
			answers[q.Key()] = model.Ordered(kept...)
		}

		pool := make([]string, 0, len(known))
		for _, f := range known {
			if _, ok := placed[f]; !ok {
				pool = append(pool, f)
			}
		}
		if shuffle != nil {
			shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
		}
		pools[s.Name] = pool
	}
	return pools
}

func indexOf(list []string, v string) int {
	for i, x := range list {
		if x == v {
			return i
		}
	}
	return -1
}

func removeAt(list []string, i int) []string {
	out := make([]string, 0, len(list)-1)
	out = append(out, list[:i]...)
	return append(out, list[i+1:]...)
}
