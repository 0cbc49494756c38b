package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seongmin-dev/welfare-report/internal/entity"
)

// ReportRepository stores one report per user, overwritten on every
// completed run (last-write-wins).
type ReportRepository interface {
	Upsert(ctx context.Context, report *entity.Report) error
	GetByUserID(ctx context.Context, userID string) (*entity.Report, error)
}

type reportRepo struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewReportRepository(pool *pgxpool.Pool, log *slog.Logger) ReportRepository {
	if log == nil {
		log = slog.Default()
	}
	return &reportRepo{pool: pool, log: log}
}

func (r *reportRepo) Upsert(ctx context.Context, report *entity.Report) error {
	services, err := json.Marshal(report.Services)
	if err != nil {
		return err
	}
	metadata, err := json.Marshal(report.Metadata)
	if err != nil {
		return err
	}
	var perf []byte
	if report.PerformanceMetrics != nil {
		if b, err := json.Marshal(report.PerformanceMetrics); err == nil {
			perf = b
		}
	}

	_, err = r.pool.Exec(ctx, `
insert into user_report
  (user_id, summary, risk, advice, services, is_fallback, metadata, version, generation_method, performance_metrics, generated_at)
values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
on conflict (user_id) do update set
  summary = excluded.summary,
  risk = excluded.risk,
  advice = excluded.advice,
  services = excluded.services,
  is_fallback = excluded.is_fallback,
  metadata = excluded.metadata,
  version = excluded.version,
  generation_method = excluded.generation_method,
  performance_metrics = excluded.performance_metrics,
  generated_at = excluded.generated_at`,
		report.UserID, report.Summary, report.Risk, report.Advice, services,
		report.IsFallback, metadata, report.Version, report.GenerationMethod,
		perf, report.GeneratedAt)
	if err != nil {
		r.log.Error("report.upsert.failed", "user_id", report.UserID, "error", err)
		return err
	}
	r.log.Info("report.upserted", "user_id", report.UserID, "is_fallback", report.IsFallback, "services", len(report.Services))
	return nil
}

func (r *reportRepo) GetByUserID(ctx context.Context, userID string) (*entity.Report, error) {
	row := r.pool.QueryRow(ctx, `
select user_id, summary, risk, advice, services, is_fallback, metadata, version, generation_method, performance_metrics, generated_at
from user_report
where user_id = $1`, userID)

	var (
		rep      entity.Report
		services []byte
		metadata []byte
		perf     []byte
	)
	err := row.Scan(&rep.UserID, &rep.Summary, &rep.Risk, &rep.Advice, &services,
		&rep.IsFallback, &metadata, &rep.Version, &rep.GenerationMethod, &perf, &rep.GeneratedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(services, &rep.Services); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(metadata, &rep.Metadata); err != nil {
		return nil, err
	}
	if len(perf) > 0 {
		var pm entity.PerformanceMetrics
		if err := json.Unmarshal(perf, &pm); err == nil {
			rep.PerformanceMetrics = &pm
		}
	}
	return &rep, nil
}
