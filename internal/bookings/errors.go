package bookings

import "errors"

var (
	// ErrMissingFields is returned when a required field is absent
	ErrMissingFields = errors.New("missing required fields")

	// ErrInvalidEmail is returned when the email fails the syntactic check
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrInvalidDate is returned for dates outside YYYY-MM-DD
	ErrInvalidDate = errors.New("invalid date format, use YYYY-MM-DD")

	// ErrInvalidSlot is returned for slots outside morning/afternoon/evening
	ErrInvalidSlot = errors.New("invalid time slot")

	// ErrInvalidDatetime is returned when a datetime fails to parse
	ErrInvalidDatetime = errors.New("invalid datetime")

	// ErrInvalidMeetingType is returned for an unknown meeting type
	ErrInvalidMeetingType = errors.New("invalid meeting type")

	// ErrInvalidStatus is returned for an unknown booking status
	ErrInvalidStatus = errors.New("invalid booking status")

	// ErrBookingNotFound is returned when a booking lookup misses
	ErrBookingNotFound = errors.New("booking not found")
)
