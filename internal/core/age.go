package core

import "time"

// AgeBucket is one of the five fixed dashboard age bands.
type AgeBucket string

const (
	BucketAnak    AgeBucket = "0-12"
	BucketRemaja  AgeBucket = "13-17"
	BucketPemuda  AgeBucket = "18-35"
	BucketDewasa  AgeBucket = "36-60"
	BucketLansia  AgeBucket = ">60"
)

// AgeBuckets lists the bands in fixed display order.
var AgeBuckets = []AgeBucket{BucketAnak, BucketRemaja, BucketPemuda, BucketDewasa, BucketLansia}

// AgeAt returns the age in whole years at the reference date, using the
// usual "has the birthday occurred yet this year" adjustment.
func AgeAt(birth, ref time.Time) int {
	age := ref.Year() - birth.Year()
	if ref.Month() < birth.Month() ||
		(ref.Month() == birth.Month() && ref.Day() < birth.Day()) {
		age--
	}
	return age
}

// BucketFor assigns an age to its band. Upper bounds are inclusive.
func BucketFor(age int) AgeBucket {
	switch {
	case age <= 12:
		return BucketAnak
	case age <= 17:
		return BucketRemaja
	case age <= 35:
		return BucketPemuda
	case age <= 60:
		return BucketDewasa
	default:
		return BucketLansia
	}
}

// birthdayIn places a birthday into the given year. A Feb 29 birth clamps
// to Feb 28 when the target year is not a leap year.
func birthdayIn(year int, birth time.Time) time.Time {
	month, day := birth.Month(), birth.Day()
	if month == time.February && day == 29 && !isLeap(year) {
		day = 28
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// NextBirthday returns the next occurrence of the birthday on or after
// today (today's own date counts as an occurrence).
func NextBirthday(birth, today time.Time) time.Time {
	occ := birthdayIn(today.Year(), birth)
	if occ.Before(truncateToDay(today)) {
		occ = birthdayIn(today.Year()+1, birth)
	}
	return occ
}

// BirthdayInWindow reports whether the birthday has an occurrence inside
// [today, today+days], inclusive on both ends, and returns that occurrence.
// Both the this-year and next-year candidates are checked so a window that
// spans the year boundary still matches early-January birthdays.
func BirthdayInWindow(birth, today time.Time, days int) (time.Time, bool) {
	start := truncateToDay(today)
	end := start.AddDate(0, 0, days)

	for _, occ := range []time.Time{
		birthdayIn(today.Year(), birth),
		birthdayIn(today.Year()+1, birth),
	} {
		if !occ.Before(start) && !occ.After(end) {
			return occ, true
		}
	}
	return time.Time{}, false
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
