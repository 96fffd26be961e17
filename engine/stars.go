package engine

import "github.com/korea/kivescript/session"

// Stars holds the wildcard captures from a matched trigger (or its
// %Previous pattern). Index 0 is a reserved sentinel, never handed
// out to callers; Star(1) is the first real capture.
type Stars struct {
	values []string
}

func newStars() *Stars {
	return &Stars{values: []string{""}}
}

func starsFromMatch(groups []string) *Stars {
	s := newStars()
	if len(groups) > 1 {
		s.values = append(s.values, groups[1:]...)
	}
	if len(s.values) == 1 {
		s.values = append(s.values, session.Undefined)
	}
	return s
}

// Star returns the i-th capture, 1-based. Out-of-range indices return
// session.Undefined.
func (s *Stars) Star(i int) string {
	if s == nil || i < 1 || i >= len(s.values) {
		return session.Undefined
	}
	return s.values[i]
}
