package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/contactevin2u/AAHRMS-sub010/internal/domain/employee"
	"github.com/contactevin2u/AAHRMS-sub010/internal/pkg/database"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

const employeeColumns = `
	id, company_id, department_id, outlet_id, employee_code, full_name,
	ic_number, dob, is_citizen, bank_name, bank_account_number,
	hire_date, status, resignation_date,
	basic_salary, fixed_allowance, ot_eligible,
	epf_voluntary_rate, socso_category, pcb_marital_status, pcb_spouse_working, pcb_dependents,
	created_at, updated_at, deleted_at
`

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var e employee.Employee
	err := row.Scan(
		&e.ID, &e.CompanyID, &e.DepartmentID, &e.OutletID, &e.EmployeeCode, &e.FullName,
		&e.ICNumber, &e.DOB, &e.IsCitizen, &e.BankName, &e.BankAccountNumber,
		&e.HireDate, &e.Status, &e.ResignationDate,
		&e.BasicSalary, &e.FixedAllowance, &e.OTEligible,
		&e.EPFVoluntaryRate, &e.SocsoCategory, &e.PCBMaritalStatus, &e.PCBSpouseWorking, &e.PCBDependents,
		&e.CreatedAt, &e.UpdatedAt, &e.DeletedAt,
	)
	if err != nil {
		return employee.Employee{}, err
	}
	return e, nil
}

// GetByID implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) GetByID(ctx context.Context, id string, companyID string) (employee.Employee, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		SELECT ` + employeeColumns + `
		FROM employees
		WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL
	`

	emp, err := scanEmployee(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee %s: %w", id, err)
	}
	return emp, nil
}

// ListEligible implements employee.EmployeeRepository. An employee
// resigned before the month starts is out; one whose last working day
// falls inside the month still gets a (pro-rated) payslip.
func (r *employeeRepositoryImpl) ListEligible(ctx context.Context, companyID string, monthStart time.Time, departmentID, outletID *string) ([]employee.Employee, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		SELECT ` + employeeColumns + `
		FROM employees
		WHERE company_id = $1 AND deleted_at IS NULL
			AND hire_date < $2
			AND (resignation_date IS NULL OR resignation_date >= $3)
	`
	monthEnd := monthStart.AddDate(0, 1, 0)
	args := []interface{}{companyID, monthEnd, monthStart}
	argIdx := 4

	if departmentID != nil {
		query += fmt.Sprintf(" AND department_id = $%d", argIdx)
		args = append(args, *departmentID)
		argIdx++
	}
	if outletID != nil {
		query += fmt.Sprintf(" AND outlet_id = $%d", argIdx)
		args = append(args, *outletID)
		argIdx++
	}
	query += " ORDER BY employee_code ASC"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return employees, nil
}

// ListDepartmentIDs implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) ListDepartmentIDs(ctx context.Context, companyID string) ([]string, error) {
	return r.listPartitionIDs(ctx, companyID, "department_id")
}

// ListOutletIDs implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) ListOutletIDs(ctx context.Context, companyID string) ([]string, error) {
	return r.listPartitionIDs(ctx, companyID, "outlet_id")
}

func (r *employeeRepositoryImpl) listPartitionIDs(ctx context.Context, companyID string, column string) ([]string, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := fmt.Sprintf(`
		SELECT DISTINCT %s
		FROM employees
		WHERE company_id = $1 AND %s IS NOT NULL AND deleted_at IS NULL
		ORDER BY %s ASC
	`, column, column, column)

	rows, err := q.Query(ctx, query, companyID)
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

// MarkResigned implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) MarkResigned(ctx context.Context, id string, companyID string, lastWorkingDay time.Time) error {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		UPDATE employees
		SET status = $1, resignation_date = $2, updated_at = NOW()
		WHERE id = $3 AND company_id = $4 AND deleted_at IS NULL
		RETURNING id
	`

	var updatedID string
	err := q.QueryRow(ctx, query, employee.StatusResigned, lastWorkingDay, id, companyID).Scan(&updatedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.ErrEmployeeNotFound
		}
		return fmt.Errorf("failed to mark employee %s resigned: %w", id, err)
	}
	return nil
}
