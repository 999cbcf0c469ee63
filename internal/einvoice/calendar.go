package einvoice

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Calendar tags the calendar system a date token was parsed from. Taiwanese
// invoices mix the Minguo (Republic of China) calendar with the Gregorian
// one; the tag is kept on the record for audit and debugging.
type Calendar string

const (
	CalendarMinguo    Calendar = "minguo"
	CalendarGregorian Calendar = "gregorian"
)

// ErrInvalidDate is returned when a date token matched structurally but the
// month, day, or converted year is out of calendar range.
var ErrInvalidDate = errors.New("invalid date")

// minguoEpoch is the Gregorian year of Minguo year zero.
const minguoEpoch = 1911

// InvoiceDate is a calendar date stored in proleptic Gregorian form,
// tagged with the calendar system it was parsed from.
type InvoiceDate struct {
	Date   time.Time
	Source Calendar
}

// ISO renders the date as an ISO calendar date string.
func (d InvoiceDate) ISO() string {
	return d.Date.Format("2006-01-02")
}

// NormalizeDate converts a (calendar, year, month, day) tuple into a
// canonical Gregorian date. Minguo years convert as gregorian = year + 1911.
// Out-of-range months and days, and converted years before 1911, fail with
// ErrInvalidDate.
func NormalizeDate(cal Calendar, year, month, day int) (InvoiceDate, error) {
	gregorianYear := year
	if cal == CalendarMinguo {
		if year < 1 {
			return InvoiceDate{}, fmt.Errorf("%w: minguo year %d", ErrInvalidDate, year)
		}
		gregorianYear = year + minguoEpoch
	}
	if gregorianYear < minguoEpoch {
		return InvoiceDate{}, fmt.Errorf("%w: year %d precedes %d", ErrInvalidDate, gregorianYear, minguoEpoch)
	}
	if month < 1 || month > 12 {
		return InvoiceDate{}, fmt.Errorf("%w: month %d", ErrInvalidDate, month)
	}
	if day < 1 || day > 31 {
		return InvoiceDate{}, fmt.Errorf("%w: day %d", ErrInvalidDate, day)
	}

	date := time.Date(gregorianYear, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Feb 30 becomes Mar 2); reject any
	// tuple that did not survive round-trip.
	if date.Year() != gregorianYear || date.Month() != time.Month(month) || date.Day() != day {
		return InvoiceDate{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, gregorianYear, month, day)
	}

	return InvoiceDate{Date: date, Source: cal}, nil
}

// loadDate rebuilds an InvoiceDate from its serialized ISO string and
// calendar tag. An empty tag defaults to Gregorian.
func loadDate(iso string, cal Calendar) (*InvoiceDate, error) {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, iso)
	}
	if cal == "" {
		cal = CalendarGregorian
	}
	return &InvoiceDate{Date: t, Source: cal}, nil
}

// Date token families. Minguo tokens carry explicit 年月日 markers or a
// three-digit slash year; Gregorian tokens carry a four-digit year. A
// two-digit year with slashes matches neither family and is rejected
// rather than guessed.
var (
	minguoDatePattern = regexp.MustCompile(`(\d{1,3})\s*年\s*(\d{1,2})\s*月\s*(\d{1,2})\s*日?`)
	minguoSlashDate   = regexp.MustCompile(`\b(\d{3})[./](\d{1,2})[./](\d{1,2})\b`)
	gregorianDate     = regexp.MustCompile(`\b(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})\b`)
)

// LocateDate finds the first recognizable invoice date in document order,
// trying Minguo token forms before Gregorian ones. A token that matches but
// fails calendar validation returns found=true with ErrInvalidDate so the
// caller can record the attempt and leave the field unset.
func LocateDate(c RawContent) (InvoiceDate, string, bool, error) {
	text := c.Text()

	type candidate struct {
		cal   Calendar
		match []string
	}
	var cand *candidate
	if m := minguoDatePattern.FindStringSubmatch(text); m != nil {
		cand = &candidate{cal: CalendarMinguo, match: m}
	} else if m := minguoSlashDate.FindStringSubmatch(text); m != nil {
		cand = &candidate{cal: CalendarMinguo, match: m}
	} else if m := gregorianDate.FindStringSubmatch(text); m != nil {
		cand = &candidate{cal: CalendarGregorian, match: m}
	}
	if cand == nil {
		return InvoiceDate{}, "", false, nil
	}

	year, _ := strconv.Atoi(cand.match[1])
	month, _ := strconv.Atoi(cand.match[2])
	day, _ := strconv.Atoi(cand.match[3])

	date, err := NormalizeDate(cand.cal, year, month, day)
	if err != nil {
		return InvoiceDate{}, cand.match[0], true, err
	}
	return date, cand.match[0], true, nil
}
