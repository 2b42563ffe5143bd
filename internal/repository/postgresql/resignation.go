package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/contactevin2u/AAHRMS-sub010/internal/domain/resignation"
	"github.com/contactevin2u/AAHRMS-sub010/internal/pkg/database"
)

type resignationRepositoryImpl struct {
	db *database.DB
}

func NewResignationRepository(db *database.DB) resignation.ResignationRepository {
	return &resignationRepositoryImpl{db: db}
}

const resignationColumns = `
	r.id, r.company_id, r.employee_id, r.notice_date, r.last_working_day,
	r.reason, r.status,
	r.unused_leave_days, r.pro_rated_salary, r.leave_encashment,
	r.pending_claims, r.total_final_settlement,
	r.completed_at, r.created_at, r.updated_at,
	e.full_name, e.employee_code
`

func scanResignation(row pgx.Row) (resignation.Resignation, error) {
	var res resignation.Resignation
	err := row.Scan(
		&res.ID, &res.CompanyID, &res.EmployeeID, &res.NoticeDate, &res.LastWorkingDay,
		&res.Reason, &res.Status,
		&res.UnusedLeaveDays, &res.ProRatedSalary, &res.LeaveEncashment,
		&res.PendingClaims, &res.TotalFinalSettlement,
		&res.CompletedAt, &res.CreatedAt, &res.UpdatedAt,
		&res.EmployeeName, &res.EmployeeCode,
	)
	if err != nil {
		return resignation.Resignation{}, err
	}
	return res, nil
}

// Create implements resignation.ResignationRepository.
func (r *resignationRepositoryImpl) Create(ctx context.Context, res resignation.Resignation) (resignation.Resignation, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		WITH inserted AS (
			INSERT INTO resignations (
				id, company_id, employee_id, notice_date, last_working_day, reason, status,
				unused_leave_days, pro_rated_salary, leave_encashment, pending_claims, total_final_settlement
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING *
		)
		SELECT ` + resignationColumns + `
		FROM inserted r
		JOIN employees e ON e.id = r.employee_id
	`

	created, err := scanResignation(q.QueryRow(ctx, query,
		uuid.NewString(), res.CompanyID, res.EmployeeID, res.NoticeDate, res.LastWorkingDay,
		res.Reason, res.Status,
		res.UnusedLeaveDays, res.ProRatedSalary, res.LeaveEncashment,
		res.PendingClaims, res.TotalFinalSettlement,
	))
	if err != nil {
		return resignation.Resignation{}, fmt.Errorf("failed to create resignation: %w", err)
	}
	return created, nil
}

// GetByID implements resignation.ResignationRepository.
func (r *resignationRepositoryImpl) GetByID(ctx context.Context, id string, companyID string) (resignation.Resignation, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		SELECT ` + resignationColumns + `
		FROM resignations r
		JOIN employees e ON e.id = r.employee_id
		WHERE r.id = $1 AND r.company_id = $2
	`

	res, err := scanResignation(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return resignation.Resignation{}, resignation.ErrNotFound
		}
		return resignation.Resignation{}, fmt.Errorf("failed to get resignation %s: %w", id, err)
	}
	return res, nil
}

// List implements resignation.ResignationRepository.
func (r *resignationRepositoryImpl) List(ctx context.Context, companyID string) ([]resignation.Resignation, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		SELECT ` + resignationColumns + `
		FROM resignations r
		JOIN employees e ON e.id = r.employee_id
		WHERE r.company_id = $1
		ORDER BY r.created_at DESC
	`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []resignation.Resignation
	for rows.Next() {
		res, err := scanResignation(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, res)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// UpdateSettlement implements resignation.ResignationRepository.
func (r *resignationRepositoryImpl) UpdateSettlement(ctx context.Context, res resignation.Resignation, companyID string) error {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		UPDATE resignations
		SET unused_leave_days = $1, pro_rated_salary = $2, leave_encashment = $3,
			pending_claims = $4, total_final_settlement = $5, updated_at = NOW()
		WHERE id = $6 AND company_id = $7
		RETURNING id
	`

	var updatedID string
	err := q.QueryRow(ctx, query,
		res.UnusedLeaveDays, res.ProRatedSalary, res.LeaveEncashment,
		res.PendingClaims, res.TotalFinalSettlement,
		res.ID, companyID,
	).Scan(&updatedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return resignation.ErrNotFound
		}
		return fmt.Errorf("failed to update settlement for resignation %s: %w", res.ID, err)
	}
	return nil
}

// SetStatus implements resignation.ResignationRepository. completed_at
// is stamped when the transition is to completed, cleared otherwise.
func (r *resignationRepositoryImpl) SetStatus(ctx context.Context, id string, companyID string, status resignation.Status) error {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		UPDATE resignations
		SET status = $1,
			completed_at = CASE WHEN $1 = 'completed' THEN NOW() ELSE NULL END,
			updated_at = NOW()
		WHERE id = $2 AND company_id = $3
		RETURNING id
	`

	var updatedID string
	err := q.QueryRow(ctx, query, status, id, companyID).Scan(&updatedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return resignation.ErrNotFound
		}
		return fmt.Errorf("failed to set status for resignation %s: %w", id, err)
	}
	return nil
}

// Delete implements resignation.ResignationRepository.
func (r *resignationRepositoryImpl) Delete(ctx context.Context, id string, companyID string) error {
	q := database.QuerierFrom(ctx, r.db)

	query := `DELETE FROM resignations WHERE id = $1 AND company_id = $2`

	tag, err := q.Exec(ctx, query, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete resignation %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return resignation.ErrNotFound
	}
	return nil
}

// PendingClaims implements resignation.ResignationRepository.
func (r *resignationRepositoryImpl) PendingClaims(ctx context.Context, employeeID string, companyID string, through time.Time) (decimal.Decimal, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM claims
		WHERE employee_id = $1 AND company_id = $2
			AND status = 'approved' AND paid_at IS NULL
			AND claim_date <= $3
	`

	var total decimal.Decimal
	err := q.QueryRow(ctx, query, employeeID, companyID, through).Scan(&total)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to sum pending claims for employee %s: %w", employeeID, err)
	}
	return total, nil
}
