package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/contactevin2u/AAHRMS-sub010/internal/domain/payrun"
	"github.com/contactevin2u/AAHRMS-sub010/internal/pkg/database"
)

type runRepositoryImpl struct {
	db *database.DB
}

func NewRunRepository(db *database.DB) payrun.RunRepository {
	return &runRepositoryImpl{db: db}
}

const runColumns = `
	id, company_id, year, month, scope_key, status,
	total_gross, total_deductions, total_net, employee_count,
	finalized_at, created_at, updated_at
`

func scanRun(row pgx.Row) (payrun.PayrollRun, error) {
	var r payrun.PayrollRun
	var month int
	err := row.Scan(
		&r.ID, &r.CompanyID, &r.Year, &month, &r.ScopeKey, &r.Status,
		&r.TotalGross, &r.TotalDeductions, &r.TotalNet, &r.EmployeeCount,
		&r.FinalizedAt, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return payrun.PayrollRun{}, err
	}
	r.Month = time.Month(month)
	return r, nil
}

// CreateRun implements payrun.RunRepository.
func (r *runRepositoryImpl) CreateRun(ctx context.Context, run payrun.PayrollRun) (payrun.PayrollRun, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		INSERT INTO payroll_runs (id, company_id, year, month, scope_key, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + runColumns

	created, err := scanRun(q.QueryRow(ctx, query,
		uuid.NewString(), run.CompanyID, run.Year, int(run.Month), run.ScopeKey, run.Status,
	))
	if err != nil {
		if strings.Contains(err.Error(), "uk_payroll_runs_period_scope") {
			return payrun.PayrollRun{}, payrun.ErrDuplicateRun
		}
		return payrun.PayrollRun{}, fmt.Errorf("failed to create payroll run: %w", err)
	}
	return created, nil
}

// GetRunByID implements payrun.RunRepository.
func (r *runRepositoryImpl) GetRunByID(ctx context.Context, id string, companyID string) (payrun.PayrollRun, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `SELECT ` + runColumns + ` FROM payroll_runs WHERE id = $1 AND company_id = $2`

	run, err := scanRun(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payrun.PayrollRun{}, payrun.ErrRunNotFound
		}
		return payrun.PayrollRun{}, fmt.Errorf("failed to get payroll run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns implements payrun.RunRepository.
func (r *runRepositoryImpl) ListRuns(ctx context.Context, companyID string, filter payrun.RunFilter) ([]payrun.PayrollRun, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `SELECT ` + runColumns + ` FROM payroll_runs WHERE company_id = $1`
	args := []interface{}{companyID}
	argIdx := 2

	if filter.Year != nil {
		query += fmt.Sprintf(" AND year = $%d", argIdx)
		args = append(args, *filter.Year)
		argIdx++
	}
	if filter.Month != nil {
		query += fmt.Sprintf(" AND month = $%d", argIdx)
		args = append(args, *filter.Month)
		argIdx++
	}
	if filter.ScopeKey != nil {
		query += fmt.Sprintf(" AND scope_key = $%d", argIdx)
		args = append(args, *filter.ScopeKey)
		argIdx++
	}
	query += " ORDER BY year DESC, month DESC, scope_key ASC"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []payrun.PayrollRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// FinalizeRun implements payrun.RunRepository.
func (r *runRepositoryImpl) FinalizeRun(ctx context.Context, id string, companyID string, totals payrun.RunTotals) (payrun.PayrollRun, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		UPDATE payroll_runs
		SET status = $1, total_gross = $2, total_deductions = $3, total_net = $4,
			employee_count = $5, finalized_at = NOW(), updated_at = NOW()
		WHERE id = $6 AND company_id = $7 AND status = $8
		RETURNING ` + runColumns

	run, err := scanRun(q.QueryRow(ctx, query,
		payrun.RunStatusFinalized, totals.Gross, totals.Deductions, totals.Net,
		totals.Count, id, companyID, payrun.RunStatusDraft,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payrun.PayrollRun{}, payrun.ErrRunFinalized
		}
		return payrun.PayrollRun{}, fmt.Errorf("failed to finalize payroll run %s: %w", id, err)
	}
	return run, nil
}

// UpdateRunTotals implements payrun.RunRepository.
func (r *runRepositoryImpl) UpdateRunTotals(ctx context.Context, id string, companyID string, totals payrun.RunTotals) error {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		UPDATE payroll_runs
		SET total_gross = $1, total_deductions = $2, total_net = $3, employee_count = $4, updated_at = NOW()
		WHERE id = $5 AND company_id = $6
		RETURNING id
	`

	var updatedID string
	err := q.QueryRow(ctx, query, totals.Gross, totals.Deductions, totals.Net, totals.Count, id, companyID).Scan(&updatedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payrun.ErrRunNotFound
		}
		return fmt.Errorf("failed to update totals for payroll run %s: %w", id, err)
	}
	return nil
}

// DeleteRun implements payrun.RunRepository. Items go with the run via
// ON DELETE CASCADE.
func (r *runRepositoryImpl) DeleteRun(ctx context.Context, id string, companyID string) error {
	q := database.QuerierFrom(ctx, r.db)

	query := `DELETE FROM payroll_runs WHERE id = $1 AND company_id = $2`

	tag, err := q.Exec(ctx, query, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete payroll run %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return payrun.ErrRunNotFound
	}
	return nil
}

const itemColumns = `
	i.id, i.run_id, i.employee_id,
	i.basic_salary, i.fixed_allowance, i.ot_hours, i.ph_days_worked,
	i.incentive, i.commission, i.trade_commission, i.outstation, i.bonus, i.claims_amount,
	i.pro_rated_basic, i.ot_amount, i.ph_pay, i.gross_salary,
	i.unpaid_leave_days, i.advance_deduction, i.other_deductions,
	i.unpaid_leave_deduction, i.epf_employee, i.epf_employer,
	i.socso_employee, i.socso_employer, i.eis_employee, i.eis_employer,
	i.pcb, i.total_deductions, i.net_pay,
	i.epf_override, i.pcb_override, i.claims_override,
	i.created_at, i.updated_at,
	e.full_name, e.employee_code, e.ic_number
`

func scanItem(row pgx.Row) (payrun.PayrollItem, error) {
	var it payrun.PayrollItem
	err := row.Scan(
		&it.ID, &it.RunID, &it.EmployeeID,
		&it.BasicSalary, &it.FixedAllowance, &it.OTHours, &it.PHDaysWorked,
		&it.Incentive, &it.Commission, &it.TradeCommission, &it.Outstation, &it.Bonus, &it.ClaimsAmount,
		&it.ProRatedBasic, &it.OTAmount, &it.PHPay, &it.GrossSalary,
		&it.UnpaidLeaveDays, &it.AdvanceDeduction, &it.OtherDeductions,
		&it.UnpaidLeaveDeduction, &it.EPFEmployee, &it.EPFEmployer,
		&it.SocsoEmployee, &it.SocsoEmployer, &it.EISEmployee, &it.EISEmployer,
		&it.PCB, &it.TotalDeductions, &it.NetPay,
		&it.EPFOverride, &it.PCBOverride, &it.ClaimsOverride,
		&it.CreatedAt, &it.UpdatedAt,
		&it.EmployeeName, &it.EmployeeCode, &it.ICNumber,
	)
	if err != nil {
		return payrun.PayrollItem{}, err
	}
	return it, nil
}

// CreateItem implements payrun.RunRepository.
func (r *runRepositoryImpl) CreateItem(ctx context.Context, item payrun.PayrollItem) (payrun.PayrollItem, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		WITH inserted AS (
			INSERT INTO payroll_items (
				id, run_id, employee_id,
				basic_salary, fixed_allowance, ot_hours, ph_days_worked,
				incentive, commission, trade_commission, outstation, bonus, claims_amount,
				pro_rated_basic, ot_amount, ph_pay, gross_salary,
				unpaid_leave_days, advance_deduction, other_deductions,
				unpaid_leave_deduction, epf_employee, epf_employer,
				socso_employee, socso_employer, eis_employee, eis_employer,
				pcb, total_deductions, net_pay,
				epf_override, pcb_override, claims_override
			) VALUES (
				$1, $2, $3,
				$4, $5, $6, $7,
				$8, $9, $10, $11, $12, $13,
				$14, $15, $16, $17,
				$18, $19, $20,
				$21, $22, $23,
				$24, $25, $26, $27,
				$28, $29, $30,
				$31, $32, $33
			)
			RETURNING *
		)
		SELECT ` + itemColumns + `
		FROM inserted i
		JOIN employees e ON e.id = i.employee_id
	`

	created, err := scanItem(q.QueryRow(ctx, query,
		uuid.NewString(), item.RunID, item.EmployeeID,
		item.BasicSalary, item.FixedAllowance, item.OTHours, item.PHDaysWorked,
		item.Incentive, item.Commission, item.TradeCommission, item.Outstation, item.Bonus, item.ClaimsAmount,
		item.ProRatedBasic, item.OTAmount, item.PHPay, item.GrossSalary,
		item.UnpaidLeaveDays, item.AdvanceDeduction, item.OtherDeductions,
		item.UnpaidLeaveDeduction, item.EPFEmployee, item.EPFEmployer,
		item.SocsoEmployee, item.SocsoEmployer, item.EISEmployee, item.EISEmployer,
		item.PCB, item.TotalDeductions, item.NetPay,
		item.EPFOverride, item.PCBOverride, item.ClaimsOverride,
	))
	if err != nil {
		if strings.Contains(err.Error(), "uk_payroll_items_run_employee") {
			return payrun.PayrollItem{}, &payrun.EmployeeAlreadyInPeriodError{EmployeeIDs: []string{item.EmployeeID}}
		}
		return payrun.PayrollItem{}, fmt.Errorf("failed to create payroll item: %w", err)
	}
	return created, nil
}

// GetItemByID implements payrun.RunRepository.
func (r *runRepositoryImpl) GetItemByID(ctx context.Context, id string, companyID string) (payrun.PayrollItem, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		SELECT ` + itemColumns + `
		FROM payroll_items i
		JOIN payroll_runs pr ON pr.id = i.run_id
		JOIN employees e ON e.id = i.employee_id
		WHERE i.id = $1 AND pr.company_id = $2
	`

	item, err := scanItem(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payrun.PayrollItem{}, payrun.ErrItemNotFound
		}
		return payrun.PayrollItem{}, fmt.Errorf("failed to get payroll item %s: %w", id, err)
	}
	return item, nil
}

// ListItemsByRun implements payrun.RunRepository.
func (r *runRepositoryImpl) ListItemsByRun(ctx context.Context, runID string, companyID string) ([]payrun.PayrollItem, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		SELECT ` + itemColumns + `
		FROM payroll_items i
		JOIN payroll_runs pr ON pr.id = i.run_id
		JOIN employees e ON e.id = i.employee_id
		WHERE i.run_id = $1 AND pr.company_id = $2
		ORDER BY e.employee_code ASC
	`

	rows, err := q.Query(ctx, query, runID, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []payrun.PayrollItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateItem implements payrun.RunRepository. The full row is written:
// the service recomputes every derived column before calling.
func (r *runRepositoryImpl) UpdateItem(ctx context.Context, item payrun.PayrollItem, companyID string) (payrun.PayrollItem, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		WITH updated AS (
			UPDATE payroll_items SET
				basic_salary = $1, fixed_allowance = $2, ot_hours = $3, ph_days_worked = $4,
				incentive = $5, commission = $6, trade_commission = $7, outstation = $8,
				bonus = $9, claims_amount = $10,
				pro_rated_basic = $11, ot_amount = $12, ph_pay = $13, gross_salary = $14,
				unpaid_leave_days = $15, advance_deduction = $16, other_deductions = $17,
				unpaid_leave_deduction = $18, epf_employee = $19, epf_employer = $20,
				socso_employee = $21, socso_employer = $22, eis_employee = $23, eis_employer = $24,
				pcb = $25, total_deductions = $26, net_pay = $27,
				epf_override = $28, pcb_override = $29, claims_override = $30,
				updated_at = NOW()
			WHERE id = $31
				AND run_id IN (SELECT id FROM payroll_runs WHERE company_id = $32)
			RETURNING *
		)
		SELECT ` + itemColumns + `
		FROM updated i
		JOIN employees e ON e.id = i.employee_id
	`

	updated, err := scanItem(q.QueryRow(ctx, query,
		item.BasicSalary, item.FixedAllowance, item.OTHours, item.PHDaysWorked,
		item.Incentive, item.Commission, item.TradeCommission, item.Outstation,
		item.Bonus, item.ClaimsAmount,
		item.ProRatedBasic, item.OTAmount, item.PHPay, item.GrossSalary,
		item.UnpaidLeaveDays, item.AdvanceDeduction, item.OtherDeductions,
		item.UnpaidLeaveDeduction, item.EPFEmployee, item.EPFEmployer,
		item.SocsoEmployee, item.SocsoEmployer, item.EISEmployee, item.EISEmployer,
		item.PCB, item.TotalDeductions, item.NetPay,
		item.EPFOverride, item.PCBOverride, item.ClaimsOverride,
		item.ID, companyID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payrun.PayrollItem{}, payrun.ErrItemNotFound
		}
		return payrun.PayrollItem{}, fmt.Errorf("failed to update payroll item %s: %w", item.ID, err)
	}
	return updated, nil
}

// DeleteItem implements payrun.RunRepository.
func (r *runRepositoryImpl) DeleteItem(ctx context.Context, id string, companyID string) error {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		DELETE FROM payroll_items
		WHERE id = $1
			AND run_id IN (SELECT id FROM payroll_runs WHERE company_id = $2)
	`

	tag, err := q.Exec(ctx, query, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete payroll item %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return payrun.ErrItemNotFound
	}
	return nil
}

// SumTotals implements payrun.RunRepository.
func (r *runRepositoryImpl) SumTotals(ctx context.Context, runID string, companyID string) (payrun.RunTotals, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		SELECT
			COALESCE(SUM(i.gross_salary), 0),
			COALESCE(SUM(i.total_deductions), 0),
			COALESCE(SUM(i.net_pay), 0),
			COUNT(*)
		FROM payroll_items i
		JOIN payroll_runs pr ON pr.id = i.run_id
		WHERE i.run_id = $1 AND pr.company_id = $2
	`

	var totals payrun.RunTotals
	err := q.QueryRow(ctx, query, runID, companyID).Scan(
		&totals.Gross, &totals.Deductions, &totals.Net, &totals.Count,
	)
	if err != nil {
		return payrun.RunTotals{}, fmt.Errorf("failed to sum totals for run %s: %w", runID, err)
	}
	return totals, nil
}

// EmployeeIDsInPeriod implements payrun.RunRepository.
func (r *runRepositoryImpl) EmployeeIDsInPeriod(ctx context.Context, companyID string, year int, month time.Month, employeeIDs []string, excludeRunID *string) ([]string, error) {
	if len(employeeIDs) == 0 {
		return nil, nil
	}
	q := database.QuerierFrom(ctx, r.db)

	query := `
		SELECT DISTINCT i.employee_id
		FROM payroll_items i
		JOIN payroll_runs pr ON pr.id = i.run_id
		WHERE pr.company_id = $1 AND pr.year = $2 AND pr.month = $3
			AND i.employee_id = ANY($4)
	`
	args := []interface{}{companyID, year, int(month), employeeIDs}
	if excludeRunID != nil {
		query += " AND pr.id <> $5"
		args = append(args, *excludeRunID)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// FindPriorItem implements payrun.RunRepository.
func (r *runRepositoryImpl) FindPriorItem(ctx context.Context, companyID string, employeeID string, year int, month time.Month) (payrun.PayrollItem, error) {
	prevYear, prevMonth := payrun.PrevPeriod(year, month)

	q := database.QuerierFrom(ctx, r.db)

	query := `
		SELECT ` + itemColumns + `
		FROM payroll_items i
		JOIN payroll_runs pr ON pr.id = i.run_id
		JOIN employees e ON e.id = i.employee_id
		WHERE pr.company_id = $1 AND pr.year = $2 AND pr.month = $3
			AND pr.status = $4 AND i.employee_id = $5
		ORDER BY pr.finalized_at DESC
		LIMIT 1
	`

	item, err := scanItem(q.QueryRow(ctx, query, companyID, prevYear, int(prevMonth), payrun.RunStatusFinalized, employeeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payrun.PayrollItem{}, payrun.ErrItemNotFound
		}
		return payrun.PayrollItem{}, fmt.Errorf("failed to find prior item for employee %s: %w", employeeID, err)
	}
	return item, nil
}

// WorkingDays implements payrun.RunRepository.
func (r *runRepositoryImpl) WorkingDays(ctx context.Context, companyID string, year int, fallback int) (int, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `SELECT working_days FROM payroll_calendars WHERE company_id = $1 AND year = $2`

	var workingDays int
	err := q.QueryRow(ctx, query, companyID, year).Scan(&workingDays)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fallback, nil
		}
		return 0, fmt.Errorf("failed to get payroll calendar for %d: %w", year, err)
	}
	return workingDays, nil
}
