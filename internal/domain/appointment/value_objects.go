package appointment

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"
)

type TimeSlot struct {
	start time.Time
	end   time.Time
}

func NewTimeSlot(start time.Time, durationMinutes int32) (TimeSlot, error) {
	if durationMinutes <= 0 {
		return TimeSlot{}, ErrInvalidDuration
	}

	return TimeSlot{
		start: start,
		end:   start.Add(time.Duration(durationMinutes) * time.Minute),
	}, nil
}

func (ts TimeSlot) Start() time.Time {
	return ts.start
}

func (ts TimeSlot) End() time.Time {
	return ts.end
}

func (ts TimeSlot) Duration() time.Duration {
	return ts.end.Sub(ts.start)
}

func (ts TimeSlot) DurationMinutes() int32 {
	return int32(ts.end.Sub(ts.start) / time.Minute)
}

// Overlaps uses half-open interval intersection: two slots overlap iff
// startA < endB && startB < endA.
func (ts TimeSlot) Overlaps(other TimeSlot) bool {
	return ts.start.Before(other.end) && other.start.Before(ts.end)
}

func (ts TimeSlot) MeetsLeadTimeAt(now time.Time, lead time.Duration) bool {
	return !ts.start.Before(now.Add(lead))
}

func (ts TimeSlot) ValidateLeadTimeAt(now time.Time, lead time.Duration) error {
	if !ts.MeetsLeadTimeAt(now, lead) {
		return ErrLeadTimeNotMet
	}
	return nil
}

const (
	confirmationPrefix     = "APT"
	confirmationPayloadLen = 8
	// Excludes visually ambiguous characters (0/O, 1/I/L) so the code
	// survives being read over the phone.
	confirmationAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
)

// ConfirmationNumber is the short public identifier shown to customers,
// shaped APT-XXXX-XXXX.
type ConfirmationNumber struct {
	value string
}

func GenerateConfirmationNumber() (ConfirmationNumber, error) {
	buf := make([]byte, confirmationPayloadLen)
	if _, err := rand.Read(buf); err != nil {
		return ConfirmationNumber{}, fmt.Errorf("read random bytes: %w", err)
	}

	chars := make([]byte, confirmationPayloadLen)
	for i, b := range buf {
		chars[i] = confirmationAlphabet[int(b)%len(confirmationAlphabet)]
	}

	return ConfirmationNumber{
		value: fmt.Sprintf("%s-%s-%s", confirmationPrefix, chars[:4], chars[4:]),
	}, nil
}

func NewConfirmationNumber(s string) (ConfirmationNumber, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 || parts[0] != confirmationPrefix || len(parts[1]) != 4 || len(parts[2]) != 4 {
		return ConfirmationNumber{}, ErrInvalidConfirmation
	}
	for _, r := range parts[1] + parts[2] {
		if !strings.ContainsRune(confirmationAlphabet, r) {
			return ConfirmationNumber{}, ErrInvalidConfirmation
		}
	}
	return ConfirmationNumber{value: s}, nil
}

func (c ConfirmationNumber) String() string {
	return c.value
}

type Note struct {
	value string
}

func NewNote(value string) Note {
	return Note{value: value}
}

func (n Note) String() string {
	return n.value
}

func (n Note) IsEmpty() bool {
	return n.value == ""
}
