package job

import "time"

// HoldUntilKeyword is one of the standard job-hold-until keywords, RFC
// 2911 §4.2.7. "no-hold" releases a job immediately.
type HoldUntilKeyword string

const (
	HoldNone        HoldUntilKeyword = "no-hold"
	HoldIndefinite  HoldUntilKeyword = "indefinite"
	HoldDayTime     HoldUntilKeyword = "day-time"
	HoldEvening     HoldUntilKeyword = "evening"
	HoldNight       HoldUntilKeyword = "night"
	HoldWeekend     HoldUntilKeyword = "weekend"
	HoldSecondShift HoldUntilKeyword = "second-shift"
	HoldThirdShift  HoldUntilKeyword = "third-shift"
)

// NextReleaseTime returns the next time at or after now that a job held
// with the given keyword should be released. "no-hold" and unrecognized
// keywords return now (release immediately); "indefinite" returns the
// zero Time, meaning the job stays held until an operator releases it.
//
// Each keyword implements its own literal rule rather than a shared
// window abstraction, since evening and night are defined identically
// and the other keywords' boundary handling doesn't generalize cleanly:
//
//	day-time      -> next 06:00 if now >= 18:00 else now.
//	evening/night -> next 18:00 if now in [06:00,18:00) else now.
//	second-shift  -> next 16:00 if now < 16:00 else now.
//	third-shift   -> next 00:00 if now >= 08:00 else now.
//	weekend       -> next Saturday 00:00 if weekday else now.
func NextReleaseTime(keyword string, now time.Time) time.Time {
	switch HoldUntilKeyword(keyword) {
	case "", HoldNone:
		return now
	case HoldIndefinite:
		return time.Time{}
	case HoldDayTime:
		if now.Hour() >= 18 {
			return atHour(now, 1, 6)
		}
		return now
	case HoldEvening, HoldNight:
		if h := now.Hour(); h >= 6 && h < 18 {
			return atHour(now, 0, 18)
		}
		return now
	case HoldSecondShift:
		if now.Hour() < 16 {
			return atHour(now, 0, 16)
		}
		return now
	case HoldThirdShift:
		if now.Hour() >= 8 {
			return atHour(now, 1, 0)
		}
		return now
	case HoldWeekend:
		return nextWeekend(now)
	default:
		return now
	}
}

// atHour returns now shifted by dayOffset days, at hour:00:00 in now's
// location.
func atHour(now time.Time, dayOffset, hour int) time.Time {
	d := now.AddDate(0, 0, dayOffset)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, d.Location())
}

func nextWeekend(now time.Time) time.Time {
	switch now.Weekday() {
	case time.Saturday, time.Sunday:
		return now
	default:
		daysUntilSaturday := (int(time.Saturday) - int(now.Weekday()) + 7) % 7
		if daysUntilSaturday == 0 {
			daysUntilSaturday = 7
		}
		next := now.AddDate(0, 0, daysUntilSaturday)
		return time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, next.Location())
	}
}
