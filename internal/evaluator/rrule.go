package evaluator

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/availd-io/availd/internal/domain/availability"
)

// RRule matches when the moment lands on an occurrence of a recurrence rule.
// It implements a pragmatic subset of RFC 5545, not the full grammar.
//
// Config: rrule — semicolon-delimited KEY=VALUE pairs (keys case-insensitive,
// unknown keys ignored); tz — optional IANA zone overriding the evaluation
// zone for this predicate only.
//
// Supported keys: FREQ (DAILY|WEEKLY|MONTHLY|YEARLY), INTERVAL, DTSTART,
// UNTIL (inclusive), BYMONTH, BYMONTHDAY, BYDAY, BYHOUR, BYMINUTE, BYSECOND.
// BYWEEKNO and BYYEARDAY are recognized but not enforced; their presence only
// satisfies the yearly anchor-day branch.
//
// Parsed rules are cached per (rrule, zone) pair so repeated evaluations of
// the same rule skip the parse.
type RRule struct {
	mu    sync.RWMutex
	cache map[uint64]*recurrence
}

// NewRRule creates an RRule evaluator with an empty parse cache.
func NewRRule() *RRule {
	return &RRule{cache: make(map[uint64]*recurrence)}
}

// Matches implements availability.Predicate.
func (r *RRule) Matches(_ context.Context, cfg map[string]any, moment time.Time, _ availability.Subject) (bool, error) {
	raw, ok := stringValue(cfg["rrule"])
	if !ok || strings.TrimSpace(raw) == "" {
		return false, nil
	}

	loc := moment.Location()
	if tz, ok := stringValue(cfg["tz"]); ok && tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return false, nil
		}
		loc = l
	}

	rec := r.parsed(raw, loc)
	if rec == nil || !rec.valid {
		return false, nil
	}
	return rec.matches(moment.In(loc)), nil
}

// parsed returns the cached recurrence for the rule text in the given zone,
// parsing and caching on first use.
func (r *RRule) parsed(raw string, loc *time.Location) *recurrence {
	h := xxhash.New()
	_, _ = h.WriteString(raw)
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(loc.String())
	key := h.Sum64()

	r.mu.RLock()
	rec, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		return rec
	}

	rec = parseRecurrence(raw, loc)
	r.mu.Lock()
	r.cache[key] = rec
	r.mu.Unlock()
	return rec
}

// byDaySpec is one BYDAY entry: an optional ordinal and an ISO weekday.
type byDaySpec struct {
	ord     int // 0 = any occurrence
	weekday int // 1=Monday .. 7=Sunday
}

// recurrence is a parsed, zone-bound rule ready for matching.
type recurrence struct {
	valid bool

	freq     string
	interval int
	dtstart  *time.Time
	until    *time.Time

	byMonth    map[int]struct{}
	hasMonth   bool
	byMonthDay map[int]struct{}
	hasMonDay  bool
	byDay      []byDaySpec
	hasDay     bool
	byHour     map[int]struct{}
	hasHour    bool
	byMinute   map[int]struct{}
	hasMinute  bool
	bySecond   map[int]struct{}
	hasSecond  bool

	hasWeekNo  bool
	hasYearDay bool
}

var weekdayNames = map[string]int{
	"MO": 1, "TU": 2, "WE": 3, "TH": 4, "FR": 5, "SA": 6, "SU": 7,
}

func parseRecurrence(raw string, loc *time.Location) *recurrence {
	rec := &recurrence{interval: 1}
	broken := false

	for _, pair := range strings.Split(raw, ";") {
		pair = strings.TrimSpace(pair)
		eq := strings.Index(pair, "=")
		if eq < 0 {
			continue // no '='
		}
		key := strings.ToUpper(strings.TrimSpace(pair[:eq]))
		if key == "" {
			continue
		}
		val := strings.TrimSpace(pair[eq+1:])

		switch key {
		case "FREQ":
			rec.freq = strings.ToUpper(val)
		case "INTERVAL":
			n, err := strconv.Atoi(val)
			if err != nil || n < 1 {
				broken = true
				continue
			}
			rec.interval = n
		case "DTSTART":
			t, ok := parseStamp(val, loc)
			if !ok {
				broken = true
				continue
			}
			rec.dtstart = &t
		case "UNTIL":
			t, ok := parseStamp(val, loc)
			if !ok {
				broken = true
				continue
			}
			rec.until = &t
		case "BYMONTH":
			rec.hasMonth = true
			rec.byMonth = intList(val, func(n int) bool { return n >= 1 && n <= 12 })
		case "BYMONTHDAY":
			rec.hasMonDay = true
			rec.byMonthDay = intList(val, func(n int) bool { return n != 0 && n >= -31 && n <= 31 })
		case "BYDAY":
			rec.hasDay = true
			rec.byDay = parseByDay(val)
		case "BYHOUR":
			rec.hasHour = true
			rec.byHour = intList(val, func(n int) bool { return n >= 0 && n <= 23 })
		case "BYMINUTE":
			rec.hasMinute = true
			rec.byMinute = intList(val, func(n int) bool { return n >= 0 && n <= 59 })
		case "BYSECOND":
			rec.hasSecond = true
			rec.bySecond = intList(val, func(n int) bool { return n >= 0 && n <= 59 })
		case "BYWEEKNO":
			rec.hasWeekNo = true
		case "BYYEARDAY":
			rec.hasYearDay = true
		}
	}

	switch rec.freq {
	case "DAILY", "WEEKLY", "MONTHLY", "YEARLY":
		rec.valid = !broken
	default:
		rec.valid = false
	}
	return rec
}

// intList parses a comma-separated integer list, dropping entries rejected
// by keep.
func intList(val string, keep func(int) bool) map[int]struct{} {
	set := make(map[int]struct{})
	for _, item := range strings.Split(val, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(item))
		if err != nil || !keep(n) {
			continue
		}
		set[n] = struct{}{}
	}
	return set
}

// parseByDay parses a comma-separated BYDAY list of [±N]WEEKDAY items,
// dropping malformed entries.
func parseByDay(val string) []byDaySpec {
	var specs []byDaySpec
	for _, item := range strings.Split(val, ",") {
		item = strings.ToUpper(strings.TrimSpace(item))
		if len(item) < 2 {
			continue
		}
		wd, ok := weekdayNames[item[len(item)-2:]]
		if !ok {
			continue
		}
		ord := 0
		if prefix := item[:len(item)-2]; prefix != "" {
			n, err := strconv.Atoi(prefix)
			if err != nil || n == 0 {
				continue
			}
			ord = n
		}
		specs = append(specs, byDaySpec{ord: ord, weekday: wd})
	}
	return specs
}

// stampLayouts are tried in order after the compact forms. The trailing two
// are the permissive fallback for hand-written config values.
var stampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// parseStamp parses a DTSTART/UNTIL value. Compact UTC ("20060102T150405Z"),
// compact local, and compact date forms come first, then ISO-8601 layouts.
func parseStamp(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if strings.HasSuffix(s, "Z") {
		if t, err := time.ParseInLocation("20060102T150405", strings.TrimSuffix(s, "Z"), time.UTC); err == nil {
			return t, true
		}
	}
	if t, err := time.ParseInLocation("20060102T150405", s, loc); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation("20060102", s, loc); err == nil {
		return t, true
	}
	for _, layout := range stampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// matches applies the full conjunction of recurrence conditions to a moment
// already localized to the rule's zone.
func (rec *recurrence) matches(t time.Time) bool {
	if rec.until != nil && t.After(*rec.until) {
		return false
	}
	if rec.interval > 1 && !rec.intervalHit(t) {
		return false
	}
	if rec.hasMonth {
		if _, ok := rec.byMonth[int(t.Month())]; !ok {
			return false
		}
	}
	if rec.hasMonDay && !rec.monthDayHit(t) {
		return false
	}
	if rec.hasDay && !rec.dayHit(t) {
		return false
	}
	if rec.hasHour {
		if _, ok := rec.byHour[t.Hour()]; !ok {
			return false
		}
	}
	if rec.hasMinute {
		if _, ok := rec.byMinute[t.Minute()]; !ok {
			return false
		}
	}
	if rec.hasSecond {
		if _, ok := rec.bySecond[t.Second()]; !ok {
			return false
		}
	}
	return rec.frequencyHit(t)
}

// intervalHit checks the multiple-of-interval test anchored at DTSTART.
func (rec *recurrence) intervalHit(t time.Time) bool {
	if rec.dtstart == nil {
		return false
	}
	start := rec.dtstart.In(t.Location())
	if t.Before(start) {
		return false
	}

	var units int
	switch rec.freq {
	case "DAILY":
		units = daysBetween(start, t)
	case "WEEKLY":
		units = daysBetween(weekStart(start), weekStart(t)) / 7
	case "MONTHLY":
		units = (t.Year()-start.Year())*12 + int(t.Month()) - int(start.Month())
	case "YEARLY":
		units = t.Year() - start.Year()
	}
	return units%rec.interval == 0
}

func (rec *recurrence) monthDayHit(t time.Time) bool {
	day := t.Day()
	last := daysInMonth(t)
	for n := range rec.byMonthDay {
		if n > 0 && day == n {
			return true
		}
		if n < 0 && day == last+n+1 {
			return true
		}
	}
	return false
}

func (rec *recurrence) dayHit(t time.Time) bool {
	wd := isoWeekday(t)
	for _, spec := range rec.byDay {
		if spec.weekday != wd {
			continue
		}
		if spec.ord == 0 || rec.freq == "DAILY" || rec.freq == "WEEKLY" {
			return true
		}

		var occ, occFromEnd int
		switch rec.freq {
		case "MONTHLY":
			occ = (t.Day()-1)/7 + 1
			occFromEnd = (daysInMonth(t)-t.Day())/7 + 1
		case "YEARLY":
			occ = (t.YearDay()-1)/7 + 1
			occFromEnd = (daysInYear(t.Year())-t.YearDay())/7 + 1
		}
		if spec.ord > 0 && spec.ord == occ {
			return true
		}
		if spec.ord < 0 && -spec.ord == occFromEnd {
			return true
		}
	}
	return false
}

// frequencyHit is the frequency-specific closing check: when no BY*
// constraint pins the day, the anchor's calendar day must line up.
func (rec *recurrence) frequencyHit(t time.Time) bool {
	switch rec.freq {
	case "DAILY", "WEEKLY":
		return true
	case "MONTHLY":
		if rec.hasMonDay || rec.hasDay {
			return true
		}
		if rec.dtstart == nil {
			return false
		}
		return t.Day() == rec.dtstart.In(t.Location()).Day()
	case "YEARLY":
		if rec.hasMonth || rec.hasWeekNo || rec.hasYearDay || rec.hasDay {
			return true
		}
		if rec.dtstart == nil {
			return false
		}
		start := rec.dtstart.In(t.Location())
		return t.Month() == start.Month() && t.Day() == start.Day()
	}
	return false
}

// daysBetween counts whole calendar days from a's date to b's date.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	au := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	bu := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au) / (24 * time.Hour))
}

// weekStart returns midnight on the Monday of t's ISO week.
func weekStart(t time.Time) time.Time {
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return midnight.AddDate(0, 0, -(isoWeekday(t) - 1))
}

func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

func daysInYear(year int) int {
	if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
		return 366
	}
	return 365
}

var _ availability.Predicate = (*RRule)(nil)
