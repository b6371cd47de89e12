package backend

import "time"

// NextStreak advances a daily streak for activity at now. Activity on the same
// day keeps the streak, the following day extends it, and a gap restarts it.
func NextStreak(streak int, last *time.Time, now time.Time) (int, *time.Time) {
	today := day(now)
	if last == nil {
		return 1, &today
	}
	switch diff := today.Sub(day(*last)); {
	case diff <= 0:
		return max(streak, 1), last
	case diff == 24*time.Hour:
		return streak + 1, &today
	default:
		return 1, &today
	}
}

func day(ts time.Time) time.Time {
	y, m, d := ts.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
