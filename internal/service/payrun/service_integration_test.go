package payrun

import (
	"context"
	"os"
	"testing"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactevin2u/AAHRMS-sub010/internal/config"
	"github.com/contactevin2u/AAHRMS-sub010/internal/domain/payrun"
	"github.com/contactevin2u/AAHRMS-sub010/internal/pkg/database"
	"github.com/contactevin2u/AAHRMS-sub010/internal/pkg/runlock"
	"github.com/contactevin2u/AAHRMS-sub010/internal/repository/postgresql"
	"github.com/contactevin2u/AAHRMS-sub010/internal/statutory"
)

var testDB *database.DB

const testSchema = `
CREATE TABLE IF NOT EXISTS employees (
	id UUID PRIMARY KEY,
	company_id UUID NOT NULL,
	department_id UUID,
	outlet_id UUID,
	employee_code TEXT NOT NULL,
	full_name TEXT NOT NULL,
	ic_number TEXT NOT NULL DEFAULT '',
	dob DATE,
	is_citizen BOOLEAN NOT NULL DEFAULT TRUE,
	bank_name TEXT NOT NULL DEFAULT '',
	bank_account_number TEXT NOT NULL DEFAULT '',
	hire_date DATE NOT NULL,
	status TEXT NOT NULL DEFAULT 'active',
	resignation_date DATE,
	basic_salary NUMERIC(12,2) NOT NULL DEFAULT 0,
	fixed_allowance NUMERIC(12,2) NOT NULL DEFAULT 0,
	ot_eligible BOOLEAN NOT NULL DEFAULT TRUE,
	epf_voluntary_rate NUMERIC(5,2),
	socso_category TEXT NOT NULL DEFAULT 'first',
	pcb_marital_status TEXT NOT NULL DEFAULT 'single',
	pcb_spouse_working BOOLEAN NOT NULL DEFAULT FALSE,
	pcb_dependents INT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	deleted_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS payroll_runs (
	id UUID PRIMARY KEY,
	company_id UUID NOT NULL,
	year INT NOT NULL,
	month INT NOT NULL,
	scope_key TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'draft',
	total_gross NUMERIC(14,2) NOT NULL DEFAULT 0,
	total_deductions NUMERIC(14,2) NOT NULL DEFAULT 0,
	total_net NUMERIC(14,2) NOT NULL DEFAULT 0,
	employee_count INT NOT NULL DEFAULT 0,
	finalized_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT uk_payroll_runs_period_scope UNIQUE (company_id, year, month, scope_key)
);

CREATE TABLE IF NOT EXISTS payroll_items (
	id UUID PRIMARY KEY,
	run_id UUID NOT NULL REFERENCES payroll_runs(id) ON DELETE CASCADE,
	employee_id UUID NOT NULL REFERENCES employees(id),
	basic_salary NUMERIC(12,2) NOT NULL DEFAULT 0,
	fixed_allowance NUMERIC(12,2) NOT NULL DEFAULT 0,
	ot_hours NUMERIC(8,2) NOT NULL DEFAULT 0,
	ph_days_worked NUMERIC(6,2) NOT NULL DEFAULT 0,
	incentive NUMERIC(12,2) NOT NULL DEFAULT 0,
	commission NUMERIC(12,2) NOT NULL DEFAULT 0,
	trade_commission NUMERIC(12,2) NOT NULL DEFAULT 0,
	outstation NUMERIC(12,2) NOT NULL DEFAULT 0,
	bonus NUMERIC(12,2) NOT NULL DEFAULT 0,
	claims_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
	pro_rated_basic NUMERIC(12,2) NOT NULL DEFAULT 0,
	ot_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
	ph_pay NUMERIC(12,2) NOT NULL DEFAULT 0,
	gross_salary NUMERIC(12,2) NOT NULL DEFAULT 0,
	unpaid_leave_days NUMERIC(6,2) NOT NULL DEFAULT 0,
	advance_deduction NUMERIC(12,2) NOT NULL DEFAULT 0,
	other_deductions NUMERIC(12,2) NOT NULL DEFAULT 0,
	unpaid_leave_deduction NUMERIC(12,2) NOT NULL DEFAULT 0,
	epf_employee NUMERIC(12,2) NOT NULL DEFAULT 0,
	epf_employer NUMERIC(12,2) NOT NULL DEFAULT 0,
	socso_employee NUMERIC(12,2) NOT NULL DEFAULT 0,
	socso_employer NUMERIC(12,2) NOT NULL DEFAULT 0,
	eis_employee NUMERIC(12,2) NOT NULL DEFAULT 0,
	eis_employer NUMERIC(12,2) NOT NULL DEFAULT 0,
	pcb NUMERIC(12,2) NOT NULL DEFAULT 0,
	total_deductions NUMERIC(12,2) NOT NULL DEFAULT 0,
	net_pay NUMERIC(12,2) NOT NULL DEFAULT 0,
	epf_override NUMERIC(12,2),
	pcb_override NUMERIC(12,2),
	claims_override NUMERIC(12,2),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT uk_payroll_items_run_employee UNIQUE (run_id, employee_id)
);

CREATE TABLE IF NOT EXISTS payroll_calendars (
	company_id UUID NOT NULL,
	year INT NOT NULL,
	working_days INT NOT NULL,
	PRIMARY KEY (company_id, year)
);
`

func testInit(t *testing.T) {
	t.Helper()
	if os.Getenv("TEST_DATABASE_URL") == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	if testDB != nil {
		return
	}

	var err error
	testDB, err = database.NewPostgreSQLDB(os.Getenv("TEST_DATABASE_URL"))
	require.NoError(t, err)

	_, err = testDB.Exec(context.Background(), testSchema)
	require.NoError(t, err)
}

func claimsContext(t *testing.T, companyID string) context.Context {
	t.Helper()
	token := jwt.New()
	require.NoError(t, token.Set("company_id", companyID))
	require.NoError(t, token.Set("user_id", uuid.NewString()))
	return jwtauth.NewContext(context.Background(), token, nil)
}

func newTestRunService(t *testing.T) payrun.RunService {
	t.Helper()
	engine, err := statutory.NewEngine()
	require.NoError(t, err)

	runRepo := postgresql.NewRunRepository(testDB)
	empRepo := postgresql.NewEmployeeRepository(testDB)
	return NewRunService(testDB, runRepo, empRepo, engine, runlock.NewRegistry(), config.PayrollConfig{
		WorkingDays: 22,
		HoursPerDay: 8,
	})
}

func createTestEmployee(t *testing.T, ctx context.Context, companyID string, code string, basic string) string {
	t.Helper()
	id := uuid.NewString()
	_, err := testDB.Exec(ctx, `
		INSERT INTO employees (id, company_id, employee_code, full_name, hire_date, basic_salary, dob, is_citizen)
		VALUES ($1, $2, $3, $4, '2020-01-01', $5, '1990-06-15', TRUE)
	`, id, companyID, code, "Employee "+code, basic)
	require.NoError(t, err)
	return id
}

func TestRunService_CreateRun_Simple(t *testing.T) {
	testInit(t)
	companyID := uuid.NewString()
	ctx := claimsContext(t, companyID)
	createTestEmployee(t, ctx, companyID, "E001", "3000")
	createTestEmployee(t, ctx, companyID, "E002", "2200")

	svc := newTestRunService(t)

	resp, err := svc.CreateRun(ctx, payrun.CreateRunRequest{Year: 2025, Month: 1})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.EmployeeCount)
	assert.Equal(t, "all", resp.Run.ScopeKey)
	assert.Equal(t, string(payrun.RunStatusDraft), resp.Run.Status)
	assert.Equal(t, 0, resp.CarriedForwardCount)
	assert.True(t, resp.Run.TotalGross.Equal(dec("5200")))
}

func TestRunService_CreateRun_Duplicate(t *testing.T) {
	testInit(t)
	companyID := uuid.NewString()
	ctx := claimsContext(t, companyID)
	createTestEmployee(t, ctx, companyID, "E001", "3000")

	svc := newTestRunService(t)

	_, err := svc.CreateRun(ctx, payrun.CreateRunRequest{Year: 2025, Month: 2})
	require.NoError(t, err)

	_, err = svc.CreateRun(ctx, payrun.CreateRunRequest{Year: 2025, Month: 2})
	assert.ErrorIs(t, err, payrun.ErrDuplicateRun)
}

func TestRunService_DoubleInclusionGuard(t *testing.T) {
	testInit(t)
	companyID := uuid.NewString()
	ctx := claimsContext(t, companyID)

	deptID := uuid.NewString()
	empID := createTestEmployee(t, ctx, companyID, "E001", "3000")
	_, err := testDB.Exec(ctx, `UPDATE employees SET department_id = $1 WHERE id = $2`, deptID, empID)
	require.NoError(t, err)

	svc := newTestRunService(t)

	_, err = svc.CreateRun(ctx, payrun.CreateRunRequest{Year: 2025, Month: 3})
	require.NoError(t, err)

	// Same employee through the department scope must be refused.
	_, err = svc.CreateRun(ctx, payrun.CreateRunRequest{Year: 2025, Month: 3, DepartmentID: &deptID})
	var already *payrun.EmployeeAlreadyInPeriodError
	require.ErrorAs(t, err, &already)
	assert.Contains(t, already.EmployeeIDs, empID)
}

func TestRunService_Finalize_SealsRun(t *testing.T) {
	testInit(t)
	companyID := uuid.NewString()
	ctx := claimsContext(t, companyID)
	createTestEmployee(t, ctx, companyID, "E001", "3000")

	svc := newTestRunService(t)

	created, err := svc.CreateRun(ctx, payrun.CreateRunRequest{Year: 2025, Month: 4})
	require.NoError(t, err)

	finalized, err := svc.FinalizeRun(ctx, created.Run.ID)
	require.NoError(t, err)
	assert.Equal(t, string(payrun.RunStatusFinalized), finalized.Status)
	assert.NotNil(t, finalized.FinalizedAt)

	// Every mutation is refused from here on.
	_, err = svc.FinalizeRun(ctx, created.Run.ID)
	assert.ErrorIs(t, err, payrun.ErrRunFinalized)
	_, err = svc.RecalculateAll(ctx, created.Run.ID)
	assert.ErrorIs(t, err, payrun.ErrRunFinalized)
}

func TestRunService_CarryForward(t *testing.T) {
	testInit(t)
	companyID := uuid.NewString()
	ctx := claimsContext(t, companyID)
	empID := createTestEmployee(t, ctx, companyID, "E001", "3500")

	svc := newTestRunService(t)

	created, err := svc.CreateRun(ctx, payrun.CreateRunRequest{Year: 2025, Month: 5})
	require.NoError(t, err)

	// Give May recurring earnings and a one-off bonus.
	detail, err := svc.GetRun(ctx, created.Run.ID)
	require.NoError(t, err)
	require.Len(t, detail.Items, 1)

	commission := dec("150")
	allowance := dec("200")
	bonus := dec("1000")
	_, err = svc.UpdateItem(ctx, payrun.UpdateItemRequest{
		ID:             detail.Items[0].ID,
		Commission:     &commission,
		FixedAllowance: &allowance,
		Bonus:          &bonus,
	})
	require.NoError(t, err)

	_, err = svc.FinalizeRun(ctx, created.Run.ID)
	require.NoError(t, err)

	next, err := svc.CreateRun(ctx, payrun.CreateRunRequest{Year: 2025, Month: 6})
	require.NoError(t, err)
	assert.Equal(t, 1, next.CarriedForwardCount)

	nextDetail, err := svc.GetRun(ctx, next.Run.ID)
	require.NoError(t, err)
	require.Len(t, nextDetail.Items, 1)

	item := nextDetail.Items[0]
	assert.Equal(t, empID, item.EmployeeID)
	// Recurring earnings inherited, one-off inputs zeroed.
	assert.True(t, item.Commission.Equal(dec("150")))
	assert.True(t, item.FixedAllowance.Equal(dec("200")))
	assert.True(t, item.Bonus.IsZero())
	assert.True(t, item.OTHours.IsZero())
}

func TestRunService_CarryForward_SkippedWhenBasicChanged(t *testing.T) {
	testInit(t)
	companyID := uuid.NewString()
	ctx := claimsContext(t, companyID)
	empID := createTestEmployee(t, ctx, companyID, "E001", "3500")

	svc := newTestRunService(t)

	created, err := svc.CreateRun(ctx, payrun.CreateRunRequest{Year: 2025, Month: 7})
	require.NoError(t, err)
	detail, err := svc.GetRun(ctx, created.Run.ID)
	require.NoError(t, err)

	commission := dec("150")
	_, err = svc.UpdateItem(ctx, payrun.UpdateItemRequest{ID: detail.Items[0].ID, Commission: &commission})
	require.NoError(t, err)
	_, err = svc.FinalizeRun(ctx, created.Run.ID)
	require.NoError(t, err)

	// Raise the master basic; the next run starts clean.
	_, err = testDB.Exec(ctx, `UPDATE employees SET basic_salary = 4000 WHERE id = $1`, empID)
	require.NoError(t, err)

	next, err := svc.CreateRun(ctx, payrun.CreateRunRequest{Year: 2025, Month: 8})
	require.NoError(t, err)
	assert.Equal(t, 0, next.CarriedForwardCount)

	nextDetail, err := svc.GetRun(ctx, next.Run.ID)
	require.NoError(t, err)
	assert.True(t, nextDetail.Items[0].Commission.IsZero())
	assert.True(t, nextDetail.Items[0].BasicSalary.Equal(dec("4000")))
}

func TestRunService_ApplyChangeSet(t *testing.T) {
	testInit(t)
	companyID := uuid.NewString()
	ctx := claimsContext(t, companyID)
	createTestEmployee(t, ctx, companyID, "E001", "3000")

	svc := newTestRunService(t)

	created, err := svc.CreateRun(ctx, payrun.CreateRunRequest{Year: 2025, Month: 9})
	require.NoError(t, err)
	detail, err := svc.GetRun(ctx, created.Run.ID)
	require.NoError(t, err)
	itemID := detail.Items[0].ID

	resp, err := svc.ApplyChangeSet(ctx, payrun.ChangeSetRequest{
		RunID: created.Run.ID,
		Changes: []payrun.Change{
			{ItemID: itemID, Field: "ot_hours", NewValue: dec("10")},
			{ItemID: itemID, Field: "no_such_field", NewValue: dec("1")},
			{ItemID: uuid.NewString(), Field: "bonus", NewValue: dec("100")},
		},
	})
	require.NoError(t, err)

	require.Len(t, resp.Results, 3)
	assert.True(t, resp.Results[0].Success)
	assert.False(t, resp.Results[1].Success)
	assert.False(t, resp.Results[2].Success)

	after, err := svc.GetRun(ctx, created.Run.ID)
	require.NoError(t, err)
	assert.True(t, after.Items[0].OTHours.Equal(dec("10")))
	// 3000/22/8*10 = 17.045... per hour -> 170.45
	assert.True(t, after.Items[0].OTAmount.Equal(dec("170.45")))
	assert.True(t, resp.TotalGross.Equal(after.Run.TotalGross))
}

func TestRunService_DeleteItem_UpdatesTotals(t *testing.T) {
	testInit(t)
	companyID := uuid.NewString()
	ctx := claimsContext(t, companyID)
	createTestEmployee(t, ctx, companyID, "E001", "3000")
	createTestEmployee(t, ctx, companyID, "E002", "2000")

	svc := newTestRunService(t)

	created, err := svc.CreateRun(ctx, payrun.CreateRunRequest{Year: 2025, Month: 10})
	require.NoError(t, err)
	detail, err := svc.GetRun(ctx, created.Run.ID)
	require.NoError(t, err)
	require.Len(t, detail.Items, 2)

	require.NoError(t, svc.DeleteItem(ctx, detail.Items[1].ID))

	after, err := svc.GetRun(ctx, created.Run.ID)
	require.NoError(t, err)
	assert.Len(t, after.Items, 1)
	assert.Equal(t, 1, after.Run.ItemCount)
	assert.True(t, after.Run.TotalGross.Equal(after.Items[0].GrossSalary))
}

func TestRunService_WorkingDaysCalendar(t *testing.T) {
	testInit(t)
	companyID := uuid.NewString()
	ctx := claimsContext(t, companyID)
	createTestEmployee(t, ctx, companyID, "E001", "2000")

	_, err := testDB.Exec(ctx, `INSERT INTO payroll_calendars (company_id, year, working_days) VALUES ($1, 2025, 20)`, companyID)
	require.NoError(t, err)

	svc := newTestRunService(t)

	created, err := svc.CreateRun(ctx, payrun.CreateRunRequest{Year: 2025, Month: 11})
	require.NoError(t, err)
	detail, err := svc.GetRun(ctx, created.Run.ID)
	require.NoError(t, err)

	hours := dec("8")
	updated, err := svc.UpdateItem(ctx, payrun.UpdateItemRequest{ID: detail.Items[0].ID, OTHours: &hours})
	require.NoError(t, err)

	// 2000/20/8*8 = 100 with the company calendar, not the 22-day default.
	assert.True(t, updated.OTAmount.Equal(dec("100")))
}

func TestRunService_ResignedEmployeeExcluded(t *testing.T) {
	testInit(t)
	companyID := uuid.NewString()
	ctx := claimsContext(t, companyID)
	empID := createTestEmployee(t, ctx, companyID, "E001", "3000")
	createTestEmployee(t, ctx, companyID, "E002", "2500")

	_, err := testDB.Exec(ctx, `
		UPDATE employees SET status = 'resigned', resignation_date = '2025-11-20' WHERE id = $1
	`, empID)
	require.NoError(t, err)

	svc := newTestRunService(t)

	// December starts after the last working day, so only E002 is in.
	created, err := svc.CreateRun(ctx, payrun.CreateRunRequest{Year: 2025, Month: 12})
	require.NoError(t, err)

	detail, err := svc.GetRun(ctx, created.Run.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Items, 1)
	for _, item := range detail.Items {
		assert.NotEqual(t, empID, item.EmployeeID)
	}
}
