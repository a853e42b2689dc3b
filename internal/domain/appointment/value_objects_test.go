//go:build unit

package appointment_test

import (
	"strings"
	"testing"
	"time"

	"garage-booking/internal/domain/appointment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeSlotOverlaps(t *testing.T) {
	base := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	slot := func(start time.Time, minutes int32) appointment.TimeSlot {
		s, err := appointment.NewTimeSlot(start, minutes)
		require.NoError(t, err)
		return s
	}

	a := slot(base, 60)

	assert.True(t, a.Overlaps(slot(base, 60)), "identical slots")
	assert.True(t, a.Overlaps(slot(base.Add(30*time.Minute), 60)), "straddles the end")
	assert.True(t, a.Overlaps(slot(base.Add(-30*time.Minute), 60)), "straddles the start")
	assert.False(t, a.Overlaps(slot(base.Add(time.Hour), 30)), "touching end to start")
	assert.False(t, a.Overlaps(slot(base.Add(-time.Hour), 60)), "touching start to end")
	assert.False(t, a.Overlaps(slot(base.Add(3*time.Hour), 60)), "disjoint")
}

func TestGenerateConfirmationNumber(t *testing.T) {
	generated, err := appointment.GenerateConfirmationNumber()
	require.NoError(t, err)

	value := generated.String()
	parts := strings.Split(value, "-")
	require.Len(t, parts, 3)
	assert.Equal(t, "APT", parts[0])
	assert.Len(t, parts[1], 4)
	assert.Len(t, parts[2], 4)

	for _, r := range parts[1] + parts[2] {
		assert.NotContains(t, "0O1IL", string(r), "ambiguous character in %s", value)
	}

	_, err = appointment.NewConfirmationNumber(value)
	assert.NoError(t, err, "generated numbers round-trip through validation")
}

func TestNewConfirmationNumber(t *testing.T) {
	cases := []struct {
		name  string
		input string
		valid bool
	}{
		{name: "well formed", input: "APT-A2B3-C4D5", valid: true},
		{name: "wrong prefix", input: "XYZ-A2B3-C4D5", valid: false},
		{name: "missing segment", input: "APT-A2B3", valid: false},
		{name: "short payload", input: "APT-A2B-C4D5", valid: false},
		{name: "ambiguous zero", input: "APT-A0B3-C4D5", valid: false},
		{name: "lowercase", input: "APT-a2b3-c4d5", valid: false},
		{name: "empty", input: "", valid: false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := appointment.NewConfirmationNumber(c.input)
			if c.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, appointment.ErrInvalidConfirmation)
			}
		})
	}
}
