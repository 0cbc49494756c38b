package repository

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seongmin-dev/welfare-report/internal/entity"
)

// ActivityRepository reads repair and self-check history for a vehicle.
// The store has no compound (vehicle, date) index, so callers fetch all
// records for the vehicle and filter by date themselves.
type ActivityRepository interface {
	ListForVehicle(ctx context.Context, vehicleID string) ([]entity.ActivityRecord, error)
}

type activityRepo struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewActivityRepository(pool *pgxpool.Pool, log *slog.Logger) ActivityRepository {
	if log == nil {
		log = slog.Default()
	}
	return &activityRepo{pool: pool, log: log}
}

func (r *activityRepo) ListForVehicle(ctx context.Context, vehicleID string) ([]entity.ActivityRecord, error) {
	rows, err := r.pool.Query(ctx, `
select id, vehicle_id, record_type, occurred_at
from vehicle_activity
where vehicle_id = $1`, vehicleID)
	if err != nil {
		r.log.Error("activity.list.failed", "vehicle_id", vehicleID, "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []entity.ActivityRecord
	for rows.Next() {
		var (
			rec     entity.ActivityRecord
			recType string
		)
		if err := rows.Scan(&rec.ID, &rec.VehicleID, &recType, &rec.OccurredAt); err != nil {
			return nil, err
		}
		rec.Type = entity.ActivityType(recType)
		out = append(out, rec)
	}
	return out, rows.Err()
}
