package common

import (
	"strings"
	"time"
)

const (
	DateLayout        = "2006-01-02"
	TimeLayout        = "15:04"
	TimeSecondsLayout = "15:04:05"
)

// ValidateEventDraft trims the draft, checks the required fields and
// normalizes date and time so the (name, date, time) key compares reliably.
func ValidateEventDraft(draft EventDraft) (EventDraft, error) {
	d := EventDraft{
		Name:        strings.TrimSpace(draft.Name),
		Description: strings.TrimSpace(draft.Description),
		Date:        strings.TrimSpace(draft.Date),
		Time:        strings.TrimSpace(draft.Time),
		Location:    strings.TrimSpace(draft.Location),
		Details:     strings.TrimSpace(draft.Details),
		CreatedBy:   strings.TrimSpace(draft.CreatedBy),
	}

	verr := &ValidationError{}
	if d.Name == "" {
		verr.add("name", "")
	} else if len(d.Name) > 255 {
		verr.add("name", "must be at most 255 characters")
	}
	if d.Description == "" {
		verr.add("description", "")
	}

	if d.Date == "" {
		verr.add("date", "")
	} else if day, err := time.Parse(DateLayout, d.Date); err != nil {
		verr.add("date", "must be formatted as YYYY-MM-DD")
	} else {
		d.Date = day.Format(DateLayout)
	}

	if d.Time == "" {
		verr.add("time", "")
	} else if clock, ok := parseClock(d.Time); !ok {
		verr.add("time", "must be formatted as HH:MM or HH:MM:SS")
	} else {
		d.Time = clock
	}

	if d.Location == "" {
		verr.add("location", "")
	} else if len(d.Location) > 255 {
		verr.add("location", "must be at most 255 characters")
	}

	if len(verr.Fields) > 0 {
		return EventDraft{}, verr
	}
	return d, nil
}

// parseClock normalizes to HH:MM, keeping the seconds only when non-zero.
func parseClock(s string) (string, bool) {
	if t, err := time.Parse(TimeLayout, s); err == nil {
		return t.Format(TimeLayout), true
	}
	t, err := time.Parse(TimeSecondsLayout, s)
	if err != nil {
		return "", false
	}
	if t.Second() == 0 {
		return t.Format(TimeLayout), true
	}
	return t.Format(TimeSecondsLayout), true
}
