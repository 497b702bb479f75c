package progress

import (
	"time"

	"github.com/roshankumarc210506-arch/learnsphere/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// STREAK
// ══════════════════════════════════════════════════════════════════════════════

// AdvanceLogin засчитывает вход за день today (в часовом поясе loc).
//   - тот же день: ничего не меняется;
//   - вчера: серия +1;
//   - любой разрыв, включая первый вход: серия = 1.
func AdvanceLogin(s State, today time.Time, loc *time.Location) State {
	c := s.Clone()
	advanceLogin(&c, today, loc)
	return c
}

// advanceLogin возвращает true, если состояние изменилось.
func advanceLogin(s *State, today time.Time, loc *time.Location) bool {
	todayStr := timeutil.ISODate(today, loc)
	if s.LastLoginDate == todayStr {
		return false
	}

	if s.LastLoginDate != "" && s.LastLoginDate == timeutil.PreviousISODate(today, loc) {
		s.Streak++
	} else {
		s.Streak = 1
	}

	s.LastLoginDate = todayStr
	return true
}
