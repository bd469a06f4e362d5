package snapshot

import "fmt"

const secondsPerDay = 86400

var daysInMonth = [12]int64{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// FormatTimestamp renders Unix seconds as YYYY-MM-DDTHH:MM:SSZ. Times before
// the epoch clamp to 1970-01-01T00:00:00Z.
func FormatTimestamp(secs int64) string {
	if secs < 0 {
		secs = 0
	}

	year, month, day := DaysToDate(secs / secondsPerDay)
	tod := secs % secondsPerDay

	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02dZ",
		year, month, day, tod/3600, (tod%3600)/60, tod%60)
}

// DaysToDate converts days since 1970-01-01 to a proleptic Gregorian date
func DaysToDate(days int64) (year, month, day int64) {
	year = 1970
	remaining := days
	for {
		length := int64(365)
		if IsLeapYear(year) {
			length = 366
		}
		if remaining < length {
			break
		}
		remaining -= length
		year++
	}

	month = 1
	for i, length := range daysInMonth {
		if i == 1 && IsLeapYear(year) {
			length = 29
		}
		if remaining < length {
			break
		}
		remaining -= length
		month++
	}

	return year, month, remaining + 1
}

// IsLeapYear reports whether year has a February 29th
func IsLeapYear(year int64) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}
