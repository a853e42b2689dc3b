package schedule

import (
	"errors"
	"time"
)

var (
	ErrInvalidWindow      = errors.New("close time must be after open time")
	ErrInvalidGranularity = errors.New("granularity must be positive")
)

// DayWindow is one weekday's bookable window, expressed as offsets from
// local midnight. A remainder at the end of the window that cannot fit a
// full service duration is dropped, not rejected.
type DayWindow struct {
	opens       time.Duration
	closes      time.Duration
	granularity time.Duration
}

func NewDayWindow(opens, closes, granularity time.Duration) (DayWindow, error) {
	if closes <= opens {
		return DayWindow{}, ErrInvalidWindow
	}
	if granularity <= 0 {
		return DayWindow{}, ErrInvalidGranularity
	}
	return DayWindow{
		opens:       opens,
		closes:      closes,
		granularity: granularity,
	}, nil
}

func (w DayWindow) Opens() time.Duration       { return w.opens }
func (w DayWindow) Closes() time.Duration      { return w.closes }
func (w DayWindow) Granularity() time.Duration { return w.granularity }

// FitsSlot reports whether a slot at the given offset from local
// midnight sits on the grid: aligned to the granularity and with its
// full duration inside the window.
func (w DayWindow) FitsSlot(offset, duration time.Duration) bool {
	if duration <= 0 {
		return false
	}
	if offset < w.opens || offset+duration > w.closes {
		return false
	}
	return (offset-w.opens)%w.granularity == 0
}
