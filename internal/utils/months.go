package utils

import (
	"strings"
	"time"
)

// monthNames is the single month lookup shared by every report. Index 0 is unused.
var monthNames = [13]string{
	"",
	"enero",
	"febrero",
	"marzo",
	"abril",
	"mayo",
	"junio",
	"julio",
	"agosto",
	"septiembre",
	"octubre",
	"noviembre",
	"diciembre",
}

var monthNumbers = func() map[string]int {
	m := make(map[string]int, 12)
	for i := 1; i <= 12; i++ {
		m[monthNames[i]] = i
	}
	return m
}()

// MonthNumber maps a month name to 1..12. Matching ignores case and surrounding blanks.
func MonthNumber(name string) (int, bool) {
	n, ok := monthNumbers[strings.ToLower(strings.TrimSpace(name))]
	return n, ok
}

// MonthName returns the lowercase month name for 1..12.
func MonthName(month int) (string, bool) {
	if month < 1 || month > 12 {
		return "", false
	}
	return monthNames[month], true
}

// PreviousMonth returns the calendar month before (month, year).
func PreviousMonth(month, year int) (int, int) {
	if month == 1 {
		return 12, year - 1
	}
	return month - 1, year
}

// MonthRange returns [start, end) of a calendar month in UTC.
func MonthRange(month, year int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// DayOf truncates t to its calendar date, keeping the date as seen in t's location.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayKey is the map key used to match dates across the source and the datamart.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// ReportDate formats a datamart date for report responses.
func ReportDate(t time.Time) string {
	return t.Format("02/01/2006")
}
