package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seongmin-dev/welfare-report/constants"
	"github.com/seongmin-dev/welfare-report/internal/entity"
)

// ProfileRepository reads user profiles and maintains their device token
// lists. Profile CRUD itself lives elsewhere; the pipeline only reads.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID string) (*entity.UserProfile, error)
	// RemoveDeviceTokens deletes exactly the given tokens from the user's
	// stored token list. Unknown tokens are ignored.
	RemoveDeviceTokens(ctx context.Context, userID string, tokens []string) error
}

type profileRepo struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewProfileRepository(pool *pgxpool.Pool, log *slog.Logger) ProfileRepository {
	if log == nil {
		log = slog.Default()
	}
	return &profileRepo{pool: pool, log: log}
}

func (r *profileRepo) GetByUserID(ctx context.Context, userID string) (*entity.UserProfile, error) {
	row := r.pool.QueryRow(ctx, `
select user_id, recipient_type, district, sensor_id, vehicle_id, device_tokens,
       guardian_alerts_enabled, guardian_ids, created_at, updated_at
from user_profile
where user_id = $1`, userID)

	var (
		p             entity.UserProfile
		recipientType string
	)
	err := row.Scan(&p.UserID, &recipientType, &p.District, &p.SensorID, &p.VehicleID,
		&p.DeviceTokens, &p.GuardianAlertsEnabled, &p.GuardianIDs, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.RecipientType = constants.RecipientType(recipientType)
	return &p, nil
}

func (r *profileRepo) RemoveDeviceTokens(ctx context.Context, userID string, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `
update user_profile
set device_tokens = (
  select coalesce(array_agg(t), '{}')
  from unnest(device_tokens) as t
  where t <> all($2)
), updated_at = now()
where user_id = $1`, userID, tokens)
	if err != nil {
		r.log.Error("profile.remove_tokens.failed", "user_id", userID, "error", err)
		return err
	}
	r.log.Info("profile.tokens_pruned", "user_id", userID, "removed", len(tokens))
	return nil
}
