package readstore

import (
	"context"
	"time"

	"garage-booking/internal/infra"
	"garage-booking/internal/infra/db"
	"garage-booking/internal/pkg/pgconv"
	"garage-booking/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgtype"
)

type HoursReadStore struct{}

func NewHoursReadStore() *HoursReadStore {
	return &HoursReadStore{}
}

const findHoursByWeekdayQuery = `
SELECT weekday, opens_at, closes_at, granularity_minutes
FROM operating_hours
WHERE weekday = $1
`

// FindByWeekday returns the shop hours for one weekday (0 = Sunday).
// A missing row means the shop is closed that day.
func (r *HoursReadStore) FindByWeekday(ctx context.Context, db db.DBTX, weekday int) (*shared.DayHours, error) {
	var (
		hours       shared.DayHours
		opensAt     pgtype.Time
		closesAt    pgtype.Time
		granularity int32
	)

	row := db.QueryRow(ctx, findHoursByWeekdayQuery, weekday)
	err := row.Scan(&hours.Weekday, &opensAt, &closesAt, &granularity)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("operating hours not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find operating hours", err)
	}

	hours.Opens = time.Duration(opensAt.Microseconds) * time.Microsecond
	hours.Closes = time.Duration(closesAt.Microseconds) * time.Microsecond
	hours.Granularity = time.Duration(granularity) * time.Minute

	return &hours, nil
}
