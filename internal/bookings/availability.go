package bookings

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Slot is a coarse time-of-day preference.
type Slot string

const (
	SlotMorning   Slot = "morning"
	SlotAfternoon Slot = "afternoon"
	SlotEvening   Slot = "evening"
)

// SlotSchedule maps each slot to its candidate hours. It is
// configuration data: replacing the hour sets does not touch the
// conflict detection below.
type SlotSchedule map[Slot][]int

// DefaultSlotSchedule is the schedule the persona offers.
func DefaultSlotSchedule() SlotSchedule {
	return SlotSchedule{
		SlotMorning:   {9, 10, 11},
		SlotAfternoon: {14, 15, 16},
		SlotEvening:   {17, 18, 19},
	}
}

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// AvailabilityResult is the outcome of one availability check.
type AvailabilityResult struct {
	Available      bool     `json:"available"`
	SuggestedTimes []string `json:"suggestedTimes,omitempty"`
	Message        string   `json:"message"`
}

// BookingTimes is the read-side dependency of the checker: requested
// datetimes of non-cancelled bookings within a window.
type BookingTimes interface {
	RequestedTimesBetween(ctx context.Context, from, to time.Time) ([]time.Time, error)
}

// AvailabilityChecker cross-references candidate hours against existing
// bookings. Hours are compared in an explicit location rather than
// whatever the stored datetimes happen to resolve to.
type AvailabilityChecker struct {
	store    BookingTimes
	schedule SlotSchedule
	loc      *time.Location
}

// NewAvailabilityChecker creates a checker over the given booking store.
func NewAvailabilityChecker(store BookingTimes, schedule SlotSchedule, loc *time.Location) *AvailabilityChecker {
	if schedule == nil {
		schedule = DefaultSlotSchedule()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &AvailabilityChecker{store: store, schedule: schedule, loc: loc}
}

// Check reports which of the slot's hours are free on the given date.
func (c *AvailabilityChecker) Check(ctx context.Context, date string, slot Slot) (AvailabilityResult, error) {
	if !datePattern.MatchString(date) {
		return AvailabilityResult{Message: "Invalid date format. Use YYYY-MM-DD."}, ErrInvalidDate
	}
	candidates, ok := c.schedule[slot]
	if !ok {
		return AvailabilityResult{Message: "Unknown time slot. Use morning, afternoon or evening."}, ErrInvalidSlot
	}

	dayStart, err := time.ParseInLocation("2006-01-02", date, c.loc)
	if err != nil {
		return AvailabilityResult{Message: "Invalid date format. Use YYYY-MM-DD."}, ErrInvalidDate
	}
	dayEnd := dayStart.AddDate(0, 0, 1)

	times, err := c.store.RequestedTimesBetween(ctx, dayStart, dayEnd)
	if err != nil {
		return AvailabilityResult{Message: "Failed to check availability."}, fmt.Errorf("bookings: availability query: %w", err)
	}

	booked := make(map[int]struct{}, len(times))
	for _, t := range times {
		booked[t.In(c.loc).Hour()] = struct{}{}
	}

	var suggested []string
	for _, h := range candidates {
		if _, taken := booked[h]; !taken {
			suggested = append(suggested, fmt.Sprintf("%02d:00", h))
		}
	}
	sort.Strings(suggested)

	if len(suggested) == 0 {
		return AvailabilityResult{
			Available: false,
			Message:   fmt.Sprintf("That slot on %s is fully booked", date),
		}, nil
	}
	return AvailabilityResult{
		Available:      true,
		SuggestedTimes: suggested,
		Message:        fmt.Sprintf("Available times on %s: %s", date, strings.Join(suggested, ", ")),
	}, nil
}
