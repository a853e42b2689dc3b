//go:build unit

package appointment_test

import (
	"testing"

	"garage-booking/internal/domain/appointment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []appointment.Status{
	appointment.StatusPending,
	appointment.StatusConfirmed,
	appointment.StatusInProgress,
	appointment.StatusCompleted,
	appointment.StatusCancelled,
	appointment.StatusNoShow,
}

func TestStatusTransitionTable(t *testing.T) {
	allowed := map[appointment.Status][]appointment.Status{
		appointment.StatusPending:    {appointment.StatusConfirmed, appointment.StatusCancelled},
		appointment.StatusConfirmed:  {appointment.StatusInProgress, appointment.StatusCancelled, appointment.StatusNoShow},
		appointment.StatusInProgress: {appointment.StatusCompleted},
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := false
			for _, next := range allowed[from] {
				if next == to {
					want = true
				}
			}
			assert.Equalf(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestStatusIsTerminal(t *testing.T) {
	terminal := map[appointment.Status]bool{
		appointment.StatusCompleted: true,
		appointment.StatusCancelled: true,
		appointment.StatusNoShow:    true,
	}

	for _, s := range allStatuses {
		assert.Equalf(t, terminal[s], s.IsTerminal(), "status %s", s)
	}
}

func TestStatusBlocks(t *testing.T) {
	for _, s := range allStatuses {
		assert.Equalf(t, s != appointment.StatusCancelled, s.Blocks(), "status %s", s)
	}
	assert.False(t, appointment.Status("bogus").Blocks())
}

func TestNewStatus(t *testing.T) {
	for _, s := range allStatuses {
		parsed, err := appointment.NewStatus(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := appointment.NewStatus("unknown")
	assert.ErrorIs(t, err, appointment.ErrInvalidStatus)
}
