package store

import (
	"context"
	"fmt"

	"jobhub/common/telemetry"
	"jobhub/services/dashboard/internal/errors"
	"jobhub/services/dashboard/internal/models"

	"github.com/ClickHouse/clickhouse-go/v2"
	"go.uber.org/zap"
)

// ClickHouseStore keeps the collections in the local_jobs and applications
// tables. A save writes the collection as one batch into a staging table and
// swaps it in; the position column preserves order.
type ClickHouseStore struct {
	conn   clickhouse.Conn
	logger *zap.Logger
}

func NewClickHouseStore(conn clickhouse.Conn, logger *zap.Logger) *ClickHouseStore {
	return &ClickHouseStore{conn: conn, logger: logger}
}

const (
	jobColumns = `id, title, company, location, employment_type, experience,
		salary_min, salary_max, tags, description, requirements, benefits, posted_at`
	applicationColumns = `job_id, applied_at`
)

func (s *ClickHouseStore) LoadJobs(ctx context.Context) ([]models.Job, error) {
	ctx, span := tracer.Start(ctx, "ClickHouseStore.LoadJobs")
	defer span.End()

	rows, err := s.conn.Query(ctx, "SELECT "+jobColumns+" FROM local_jobs ORDER BY position")
	if err != nil {
		span.RecordError(err)
		s.logger.Error("failed to query local jobs", zap.Error(err))
		return nil, errors.Storage("querying local jobs", err)
	}
	defer rows.Close()

	jobs := []models.Job{}
	for rows.Next() {
		var j models.Job
		if err := rows.Scan(
			&j.ID, &j.Title, &j.Company, &j.Location, &j.EmploymentType, &j.Experience,
			&j.SalaryMin, &j.SalaryMax, &j.Tags, &j.Description, &j.Requirements, &j.Benefits, &j.Date,
		); err != nil {
			span.RecordError(err)
			return nil, errors.Storage("scanning local job", err)
		}
		j.Date = j.Date.UTC()
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Storage("iterating local jobs", err)
	}

	span.SetAttributes(telemetry.Int("jobs.count", len(jobs)))
	return jobs, nil
}

func (s *ClickHouseStore) SaveJobs(ctx context.Context, jobs []models.Job) error {
	ctx, span := tracer.Start(ctx, "ClickHouseStore.SaveJobs")
	defer span.End()
	span.SetAttributes(telemetry.Int("jobs.count", len(jobs)))

	rows := make([][]any, 0, len(jobs))
	for i, j := range jobs {
		rows = append(rows, jobRow(i, j))
	}

	if err := s.replace(ctx, "local_jobs", "position, "+jobColumns, rows); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (s *ClickHouseStore) LoadApplications(ctx context.Context) ([]models.ApplicationRecord, error) {
	ctx, span := tracer.Start(ctx, "ClickHouseStore.LoadApplications")
	defer span.End()

	rows, err := s.conn.Query(ctx, "SELECT "+applicationColumns+" FROM applications ORDER BY position")
	if err != nil {
		span.RecordError(err)
		s.logger.Error("failed to query applications", zap.Error(err))
		return nil, errors.Storage("querying applications", err)
	}
	defer rows.Close()

	apps := []models.ApplicationRecord{}
	for rows.Next() {
		var a models.ApplicationRecord
		if err := rows.Scan(&a.JobID, &a.AppliedAt); err != nil {
			return nil, errors.Storage("scanning application", err)
		}
		a.AppliedAt = a.AppliedAt.UTC()
		apps = append(apps, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Storage("iterating applications", err)
	}
	return apps, nil
}

func (s *ClickHouseStore) SaveApplications(ctx context.Context, apps []models.ApplicationRecord) error {
	ctx, span := tracer.Start(ctx, "ClickHouseStore.SaveApplications")
	defer span.End()

	rows := make([][]any, 0, len(apps))
	for i, a := range apps {
		rows = append(rows, applicationRow(i, a))
	}

	if err := s.replace(ctx, "applications", "position, "+applicationColumns, rows); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// replace writes rows into a staging copy of table and swaps it in with
// EXCHANGE TABLES, so a failed write leaves the live table as it was.
// EXCHANGE needs an Atomic database, the ClickHouse default.
func (s *ClickHouseStore) replace(ctx context.Context, table, columns string, rows [][]any) error {
	staging := table + "_staging"

	if err := s.conn.Exec(ctx, "DROP TABLE IF EXISTS "+staging); err != nil {
		return errors.Storage("dropping "+staging, err)
	}
	if err := s.conn.Exec(ctx, fmt.Sprintf("CREATE TABLE %s AS %s", staging, table)); err != nil {
		s.logger.Error("failed to create staging table", zap.String("table", table), zap.Error(err))
		return errors.Storage("creating "+staging, err)
	}

	if err := s.writeBatch(ctx, staging, columns, rows); err != nil {
		s.logger.Error("failed to write staging table", zap.String("table", table), zap.Error(err))
		s.dropStaging(ctx, staging)
		return err
	}

	if err := s.conn.Exec(ctx, fmt.Sprintf("EXCHANGE TABLES %s AND %s", staging, table)); err != nil {
		s.logger.Error("failed to swap staging table", zap.String("table", table), zap.Error(err))
		s.dropStaging(ctx, staging)
		return errors.Storage("swapping "+table, err)
	}
	s.dropStaging(ctx, staging)

	s.logger.Debug("replaced table contents",
		zap.String("table", table),
		zap.Int("rows", len(rows)))
	return nil
}

func (s *ClickHouseStore) writeBatch(ctx context.Context, table, columns string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, fmt.Sprintf("INSERT INTO %s (%s)", table, columns))
	if err != nil {
		return errors.Storage("preparing batch for "+table, err)
	}
	for _, row := range rows {
		if err := batch.Append(row...); err != nil {
			_ = batch.Abort()
			return errors.Storage("appending to "+table, err)
		}
	}
	if err := batch.Send(); err != nil {
		return errors.Storage("writing "+table, err)
	}
	return nil
}

// dropStaging is best effort; the next replace drops a leftover table.
func (s *ClickHouseStore) dropStaging(ctx context.Context, staging string) {
	if err := s.conn.Exec(ctx, "DROP TABLE IF EXISTS "+staging); err != nil {
		s.logger.Warn("failed to drop staging table", zap.String("table", staging), zap.Error(err))
	}
}

func jobRow(position int, j models.Job) []any {
	return []any{
		uint32(position),
		j.ID, j.Title, j.Company, j.Location, j.EmploymentType, j.Experience,
		j.SalaryMin, j.SalaryMax, nonNil(j.Tags), j.Description,
		nonNil(j.Requirements), nonNil(j.Benefits), j.Date.UTC(),
	}
}

func applicationRow(position int, a models.ApplicationRecord) []any {
	return []any{uint32(position), a.JobID, a.AppliedAt.UTC()}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (s *ClickHouseStore) Close() error {
	return s.conn.Close()
}
