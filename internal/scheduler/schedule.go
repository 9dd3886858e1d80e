package scheduler

import "time"

// NextFireTime returns midnight of the given day in now's month when that
// instant is still ahead of now, and the same day of the following month
// otherwise. now's location decides where midnight falls.
func NextFireTime(now time.Time, day int) time.Time {
	fire := time.Date(now.Year(), now.Month(), day, 0, 0, 0, 0, now.Location())
	if now.Before(fire) {
		return fire
	}
	return time.Date(now.Year(), now.Month()+1, day, 0, 0, 0, 0, now.Location())
}
