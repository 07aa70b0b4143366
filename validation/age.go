package validation

import (
	"strings"
	"time"
)

type AgeRange struct {
	Min int
	Max int
}

func (r AgeRange) Contains(age int) bool {
	return age >= r.Min && age <= r.Max
}

var ageBrackets = map[string]AgeRange{
	"U8":   {Min: 6, Max: 7},
	"U10":  {Min: 8, Max: 9},
	"U12":  {Min: 10, Max: 11},
	"U14":  {Min: 12, Max: 13},
	"U16":  {Min: 14, Max: 15},
	"U18":  {Min: 16, Max: 17},
	"U20":  {Min: 18, Max: 19},
	"OPEN": {Min: 20, Max: 99},
}

func BracketRange(bracket string) (AgeRange, bool) {
	r, ok := ageBrackets[strings.ToUpper(strings.TrimSpace(bracket))]
	return r, ok
}

// IsAgeInBracket is false for unknown brackets.
func IsAgeInBracket(age int, bracket string) bool {
	r, ok := BracketRange(bracket)
	return ok && r.Contains(age)
}

// AgeOn returns the number of completed years between dob and at.
func AgeOn(dob time.Time, at time.Time) int {
	age := at.Year() - dob.Year()
	if at.Month() < dob.Month() || (at.Month() == dob.Month() && at.Day() < dob.Day()) {
		age--
	}
	return age
}
