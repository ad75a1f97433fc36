package world

import (
	"time"
)

// SeedFromTime derives a world seed from date and time components. Used when a world is created
// without an explicit seed.
func SeedFromTime(t time.Time) int64 {
	return int64((t.Year()-2018)*356 + t.YearDay()*24 + t.Hour()*60 + t.Minute()*60 + t.Second())
}

// ResolveSeed returns seed unchanged unless it is zero, in which case a time-derived seed is used.
func ResolveSeed(seed int64, now time.Time) int64 {
	if seed != 0 {
		return seed
	}
	s := SeedFromTime(now)
	if s == 0 {
		s = 1
	}
	return s
}
