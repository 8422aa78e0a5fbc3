package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/repair-report-service/internal/domain"
)

const reportColumns = `id, name, building, room_number, details, category, image_path,
               report_date, status, note, created_by, created_at, updated_at`

// ReportRepository encapsulates report persistence. Missing rows surface
// as pgx.ErrNoRows.
type ReportRepository interface {
	Create(ctx context.Context, report *domain.Report) error
	List(ctx context.Context) ([]domain.Report, error)
	GetByID(ctx context.Context, id string) (*domain.Report, error)
	UpdateStatus(ctx context.Context, id string, status domain.ReportStatus, note *string) (*domain.Report, error)
	Delete(ctx context.Context, id string) error
}

type reportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository instantiates repository.
func NewReportRepository(pool *pgxpool.Pool) ReportRepository {
	return &reportRepository{pool: pool}
}

func (r *reportRepository) Create(ctx context.Context, report *domain.Report) error {
	const query = `
        INSERT INTO reports (name, building, room_number, details, category, image_path, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, report_date, status, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		report.Name,
		report.Building,
		report.RoomNumber,
		report.Details,
		report.Category,
		report.ImagePath,
		report.CreatedBy,
	).Scan(&report.ID, &report.ReportDate, &report.Status, &report.CreatedAt, &report.UpdatedAt)
}

// List returns every report, newest first. Each call issues a fresh query.
func (r *reportRepository) List(ctx context.Context) ([]domain.Report, error) {
	const query = `
        SELECT ` + reportColumns + `
        FROM reports ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReports(rows)
}

func (r *reportRepository) GetByID(ctx context.Context, id string) (*domain.Report, error) {
	const query = `
        SELECT ` + reportColumns + `
        FROM reports WHERE id=$1`

	var report domain.Report
	if err := scanReport(r.pool.QueryRow(ctx, query, id), &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// UpdateStatus sets status and note and refreshes updated_at in a single
// statement; the store is the arbiter between concurrent transitions. A
// nil note keeps the stored value.
func (r *reportRepository) UpdateStatus(ctx context.Context, id string, status domain.ReportStatus, note *string) (*domain.Report, error) {
	const query = `
        UPDATE reports SET status=$1, note=COALESCE($2, note), updated_at=NOW()
        WHERE id=$3
        RETURNING ` + reportColumns

	var report domain.Report
	if err := scanReport(r.pool.QueryRow(ctx, query, status, note, id), &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM reports WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanReport(row pgx.Row, report *domain.Report) error {
	return row.Scan(
		&report.ID,
		&report.Name,
		&report.Building,
		&report.RoomNumber,
		&report.Details,
		&report.Category,
		&report.ImagePath,
		&report.ReportDate,
		&report.Status,
		&report.Note,
		&report.CreatedBy,
		&report.CreatedAt,
		&report.UpdatedAt,
	)
}

func scanReports(rows pgx.Rows) ([]domain.Report, error) {
	var result []domain.Report
	for rows.Next() {
		var report domain.Report
		if err := scanReport(rows, &report); err != nil {
			return nil, err
		}
		result = append(result, report)
	}
	return result, rows.Err()
}
