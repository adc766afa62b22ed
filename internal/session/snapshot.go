package session

import (
	"sort"
	"time"

	"github.com/stemsi/exam-portal/internal/model"
)

// Snapshot is a read-only copy of a controller's state, safe to serialize
// to the candidate. Sections carry no answer keys.
type Snapshot struct {
	State            State               `json:"state"`
	Identity         model.Identity      `json:"identity"`
	Language         model.Language      `json:"language"`
	Sections         []model.Section     `json:"sections,omitempty"`
	Answers          model.Answers       `json:"answers"`
	Flags            []int               `json:"flags"`
	Missing          []string            `json:"missing,omitempty"`
	Pools            map[string][]string `json:"pools,omitempty"`
	RemainingSeconds int                 `json:"remaining_seconds"`
	Expired          bool                `json:"expired"`
	ResultID         string              `json:"result_id,omitempty"`
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:            c.state,
		Identity:         c.identity,
		Language:         c.language,
		Answers:          make(model.Answers, len(c.answers)),
		Flags:            c.flagListLocked(),
		Pools:            make(map[string][]string, len(c.pools)),
		RemainingSeconds: int(c.remaining / time.Second),
		Expired:          c.expired,
		ResultID:         c.resultID,
	}

	for k, v := range c.answers {
		snap.Answers[k] = v
	}
	for name, pool := range c.pools {
		snap.Pools[name] = append([]string(nil), pool...)
	}
	for k := range c.missing {
		snap.Missing = append(snap.Missing, k)
	}
	sort.Strings(snap.Missing)

	if len(c.sections) > 0 {
		snap.Sections = make([]model.Section, 0, len(c.sections))
		for _, s := range c.sections {
			public := model.Section{Name: s.Name, Questions: make([]model.Question, 0, len(s.Questions))}
			for _, q := range s.Questions {
				public.Questions = append(public.Questions, q.WithoutKey())
			}
			snap.Sections = append(snap.Sections, public)
		}
	}
	return snap
}
