package payrun

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/contactevin2u/AAHRMS-sub010/internal/config"
	"github.com/contactevin2u/AAHRMS-sub010/internal/domain/employee"
	"github.com/contactevin2u/AAHRMS-sub010/internal/domain/payrun"
	"github.com/contactevin2u/AAHRMS-sub010/internal/pkg/database"
	"github.com/contactevin2u/AAHRMS-sub010/internal/pkg/jwt"
	"github.com/contactevin2u/AAHRMS-sub010/internal/pkg/runlock"
	"github.com/contactevin2u/AAHRMS-sub010/internal/statutory"
)

type RunServiceImpl struct {
	db       *database.DB
	runRepo  payrun.RunRepository
	empRepo  employee.EmployeeRepository
	engine   *statutory.Engine
	locks    *runlock.Registry
	defaults config.PayrollConfig
}

func NewRunService(
	db *database.DB,
	runRepo payrun.RunRepository,
	empRepo employee.EmployeeRepository,
	engine *statutory.Engine,
	locks *runlock.Registry,
	defaults config.PayrollConfig,
) payrun.RunService {
	return &RunServiceImpl{
		db:       db,
		runRepo:  runRepo,
		empRepo:  empRepo,
		engine:   engine,
		locks:    locks,
		defaults: defaults,
	}
}

// calculatorFor resolves the company-year working days and builds the
// line-item calculator.
func (s *RunServiceImpl) calculatorFor(ctx context.Context, companyID string, year int) (Calculator, error) {
	workingDays, err := s.runRepo.WorkingDays(ctx, companyID, year, s.defaults.WorkingDays)
	if err != nil {
		return Calculator{}, err
	}
	return Calculator{
		Engine:      s.engine,
		WorkingDays: workingDays,
		HoursPerDay: s.defaults.HoursPerDay,
	}, nil
}

// withRunLock serializes writers on one run.
func (s *RunServiceImpl) withRunLock(ctx context.Context, runID string, fn func() error) error {
	err := s.locks.WithLock(ctx, "run:"+runID, fn)
	if errors.Is(err, runlock.ErrAcquireTimeout) {
		return payrun.ErrConcurrencyConflict
	}
	return err
}

// withPeriodLock serializes run creation within one company period, so
// the double-inclusion guard cannot race with a concurrent create.
func (s *RunServiceImpl) withPeriodLock(ctx context.Context, companyID string, year int, month time.Month, fn func() error) error {
	key := fmt.Sprintf("period:%s:%d-%02d", companyID, year, month)
	err := s.locks.WithLock(ctx, key, fn)
	if errors.Is(err, runlock.ErrAcquireTimeout) {
		return payrun.ErrConcurrencyConflict
	}
	return err
}

// ========== RUN CREATION ==========

func (s *RunServiceImpl) CreateRun(ctx context.Context, req payrun.CreateRunRequest) (payrun.CreateRunResponse, error) {
	if err := req.Validate(); err != nil {
		return payrun.CreateRunResponse{}, err
	}

	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return payrun.CreateRunResponse{}, err
	}

	month := time.Month(req.Month)
	var resp payrun.CreateRunResponse
	err = s.withPeriodLock(ctx, companyID, req.Year, month, func() error {
		resp, err = s.createRunForScope(ctx, companyID, req.Year, month, req.Scope(), false)
		return err
	})
	return resp, err
}

func (s *RunServiceImpl) CreateAllDepartments(ctx context.Context, req payrun.BulkGenerateRequest) (payrun.BulkGenerateResponse, error) {
	return s.createAll(ctx, req, payrun.ScopeDepartment)
}

func (s *RunServiceImpl) CreateAllOutlets(ctx context.Context, req payrun.BulkGenerateRequest) (payrun.BulkGenerateResponse, error) {
	return s.createAll(ctx, req, payrun.ScopeOutlet)
}

func (s *RunServiceImpl) createAll(ctx context.Context, req payrun.BulkGenerateRequest, kind payrun.ScopeKind) (payrun.BulkGenerateResponse, error) {
	if err := req.Validate(); err != nil {
		return payrun.BulkGenerateResponse{}, err
	}

	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return payrun.BulkGenerateResponse{}, err
	}

	var partitionIDs []string
	if kind == payrun.ScopeDepartment {
		partitionIDs, err = s.empRepo.ListDepartmentIDs(ctx, companyID)
	} else {
		partitionIDs, err = s.empRepo.ListOutletIDs(ctx, companyID)
	}
	if err != nil {
		return payrun.BulkGenerateResponse{}, err
	}

	month := time.Month(req.Month)
	resp := payrun.BulkGenerateResponse{
		CreatedRuns: []payrun.CreateRunResponse{},
		Skipped:     []payrun.SkippedPartition{},
	}

	err = s.withPeriodLock(ctx, companyID, req.Year, month, func() error {
		for _, partitionID := range partitionIDs {
			scope := payrun.Scope{Kind: kind, ID: partitionID}

			created, err := s.createRunForScope(ctx, companyID, req.Year, month, scope, true)
			switch {
			case errors.Is(err, payrun.ErrDuplicateRun):
				resp.Skipped = append(resp.Skipped, payrun.SkippedPartition{ScopeKey: scope.Key(), Reason: payrun.SkipAlreadyExists})
				continue
			case errors.Is(err, errNoEligibleEmployees):
				resp.Skipped = append(resp.Skipped, payrun.SkippedPartition{ScopeKey: scope.Key(), Reason: payrun.SkipNoEmployees})
				continue
			case err != nil:
				return err
			}

			resp.CreatedRuns = append(resp.CreatedRuns, created)
			resp.Totals.RunsCreated++
			resp.Totals.Employees += created.EmployeeCount
		}
		return nil
	})
	if err != nil {
		return payrun.BulkGenerateResponse{}, err
	}

	return resp, nil
}

// errNoEligibleEmployees is internal to bulk generation; single-run
// creation makes an empty draft instead.
var errNoEligibleEmployees = errors.New("no eligible employees in partition")

func (s *RunServiceImpl) createRunForScope(ctx context.Context, companyID string, year int, month time.Month, scope payrun.Scope, bulk bool) (payrun.CreateRunResponse, error) {
	monthStart := payrun.PeriodStart(year, month)

	var departmentID, outletID *string
	switch scope.Kind {
	case payrun.ScopeDepartment:
		departmentID = &scope.ID
	case payrun.ScopeOutlet:
		outletID = &scope.ID
	}

	emps, err := s.empRepo.ListEligible(ctx, companyID, monthStart, departmentID, outletID)
	if err != nil {
		return payrun.CreateRunResponse{}, err
	}
	if bulk && len(emps) == 0 {
		return payrun.CreateRunResponse{}, errNoEligibleEmployees
	}

	// A single employee appears in exactly one run per (year, month).
	// Bulk generation silently drops employees already placed; a direct
	// create refuses.
	if len(emps) > 0 {
		ids := make([]string, 0, len(emps))
		for _, e := range emps {
			ids = append(ids, e.ID)
		}
		included, err := s.runRepo.EmployeeIDsInPeriod(ctx, companyID, year, month, ids, nil)
		if err != nil {
			return payrun.CreateRunResponse{}, err
		}
		if len(included) > 0 {
			if !bulk {
				return payrun.CreateRunResponse{}, &payrun.EmployeeAlreadyInPeriodError{EmployeeIDs: included}
			}
			includedSet := make(map[string]bool, len(included))
			for _, id := range included {
				includedSet[id] = true
			}
			kept := emps[:0]
			for _, e := range emps {
				if !includedSet[e.ID] {
					kept = append(kept, e)
				}
			}
			emps = kept
			if len(emps) == 0 {
				return payrun.CreateRunResponse{}, errNoEligibleEmployees
			}
		}
	}

	calc, err := s.calculatorFor(ctx, companyID, year)
	if err != nil {
		return payrun.CreateRunResponse{}, err
	}

	var resp payrun.CreateRunResponse
	err = database.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		run, err := s.runRepo.CreateRun(txCtx, payrun.PayrollRun{
			CompanyID: companyID,
			Year:      year,
			Month:     month,
			ScopeKey:  scope.Key(),
			Status:    payrun.RunStatusDraft,
		})
		if err != nil {
			return err
		}

		carried := 0
		missingBasic := 0
		for _, emp := range emps {
			item, wasCarried, hadPrior, err := s.seedItem(txCtx, companyID, emp, run.ID, year, month)
			if err != nil {
				return err
			}
			if wasCarried {
				carried++
			}
			if !hadPrior && emp.BasicSalary.IsZero() {
				missingBasic++
			}

			computed, err := calc.Compute(emp, item, year, month)
			if err != nil {
				return err
			}
			if _, err := s.runRepo.CreateItem(txCtx, computed); err != nil {
				return err
			}
		}

		totals, err := s.runRepo.SumTotals(txCtx, run.ID, companyID)
		if err != nil {
			return err
		}
		if err := s.runRepo.UpdateRunTotals(txCtx, run.ID, companyID, totals); err != nil {
			return err
		}

		run.TotalGross = totals.Gross
		run.TotalDeductions = totals.Deductions
		run.TotalNet = totals.Net
		run.EmployeeCount = totals.Count

		resp = payrun.CreateRunResponse{
			Run:                 mapRunResponse(run),
			EmployeeCount:       len(emps),
			CarriedForwardCount: carried,
		}
		if missingBasic > 0 {
			warning := fmt.Sprintf("%d employee(s) have no prior payroll and no basic salary in master data", missingBasic)
			resp.Warning = &warning
		}
		return nil
	})
	if err != nil {
		return payrun.CreateRunResponse{}, err
	}

	return resp, nil
}

// seedItem builds the initial item for an employee, inheriting
// recurring earnings from last month's finalized item when the master
// basic salary is unchanged.
func (s *RunServiceImpl) seedItem(ctx context.Context, companyID string, emp employee.Employee, runID string, year int, month time.Month) (item payrun.PayrollItem, carried, hadPrior bool, err error) {
	item = payrun.PayrollItem{
		RunID:          runID,
		EmployeeID:     emp.ID,
		BasicSalary:    emp.BasicSalary,
		FixedAllowance: emp.FixedAllowance,
	}

	prior, err := s.runRepo.FindPriorItem(ctx, companyID, emp.ID, year, month)
	if err != nil {
		if errors.Is(err, payrun.ErrItemNotFound) {
			return item, false, false, nil
		}
		return payrun.PayrollItem{}, false, false, err
	}

	// Carry-forward: recurring earnings only; per-period inputs (OT, PH
	// days, claims, bonus, advances, unpaid leave) start at zero.
	if prior.BasicSalary.Equal(emp.BasicSalary) {
		item.FixedAllowance = prior.FixedAllowance
		item.Incentive = prior.Incentive
		item.Commission = prior.Commission
		item.TradeCommission = prior.TradeCommission
		item.Outstation = prior.Outstation
		return item, true, true, nil
	}

	return item, false, true, nil
}

// ========== QUERIES ==========

func (s *RunServiceImpl) ListRuns(ctx context.Context, filter payrun.RunFilter) ([]payrun.RunResponse, error) {
	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	runs, err := s.runRepo.ListRuns(ctx, companyID, filter)
	if err != nil {
		return nil, err
	}

	result := make([]payrun.RunResponse, 0, len(runs))
	for _, r := range runs {
		result = append(result, mapRunResponse(r))
	}
	return result, nil
}

func (s *RunServiceImpl) GetRun(ctx context.Context, runID string) (payrun.RunDetailResponse, error) {
	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return payrun.RunDetailResponse{}, err
	}

	run, err := s.runRepo.GetRunByID(ctx, runID, companyID)
	if err != nil {
		return payrun.RunDetailResponse{}, err
	}
	items, err := s.runRepo.ListItemsByRun(ctx, runID, companyID)
	if err != nil {
		return payrun.RunDetailResponse{}, err
	}

	detail := payrun.RunDetailResponse{
		Run:   mapRunResponse(run),
		Items: make([]payrun.ItemResponse, 0, len(items)),
	}
	for _, it := range items {
		detail.Items = append(detail.Items, mapItemResponse(it))
	}
	return detail, nil
}

// ========== RECALCULATION ==========

func (s *RunServiceImpl) RecalculateAll(ctx context.Context, runID string) (payrun.RecalculateResponse, error) {
	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return payrun.RecalculateResponse{}, err
	}

	var resp payrun.RecalculateResponse
	err = s.withRunLock(ctx, runID, func() error {
		run, err := s.runRepo.GetRunByID(ctx, runID, companyID)
		if err != nil {
			return err
		}
		if run.Status != payrun.RunStatusDraft {
			return payrun.ErrRunFinalized
		}

		items, err := s.runRepo.ListItemsByRun(ctx, runID, companyID)
		if err != nil {
			return err
		}
		calc, err := s.calculatorFor(ctx, companyID, run.Year)
		if err != nil {
			return err
		}

		return database.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
			for _, item := range items {
				emp, err := s.empRepo.GetByID(txCtx, item.EmployeeID, companyID)
				if err != nil {
					return err
				}
				computed, err := calc.Compute(emp, item, run.Year, run.Month)
				if err != nil {
					return err
				}
				if _, err := s.runRepo.UpdateItem(txCtx, computed, companyID); err != nil {
					return err
				}
			}

			totals, err := s.runRepo.SumTotals(txCtx, runID, companyID)
			if err != nil {
				return err
			}
			if err := s.runRepo.UpdateRunTotals(txCtx, runID, companyID, totals); err != nil {
				return err
			}

			resp = payrun.RecalculateResponse{
				Recalculated:    len(items),
				TotalGross:      totals.Gross,
				TotalDeductions: totals.Deductions,
				TotalNet:        totals.Net,
			}
			return nil
		})
	})
	return resp, err
}

func (s *RunServiceImpl) RecalculateItem(ctx context.Context, itemID string) (payrun.ItemResponse, error) {
	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return payrun.ItemResponse{}, err
	}

	item, err := s.runRepo.GetItemByID(ctx, itemID, companyID)
	if err != nil {
		return payrun.ItemResponse{}, err
	}

	var resp payrun.ItemResponse
	err = s.withRunLock(ctx, item.RunID, func() error {
		updated, err := s.recomputeItem(ctx, companyID, item)
		if err != nil {
			return err
		}
		resp = mapItemResponse(updated)
		return nil
	})
	return resp, err
}

// recomputeItem recomputes one item from current master data and
// persists it alongside fresh run totals. Caller holds the run lock.
func (s *RunServiceImpl) recomputeItem(ctx context.Context, companyID string, item payrun.PayrollItem) (payrun.PayrollItem, error) {
	run, err := s.runRepo.GetRunByID(ctx, item.RunID, companyID)
	if err != nil {
		return payrun.PayrollItem{}, err
	}
	if run.Status != payrun.RunStatusDraft {
		return payrun.PayrollItem{}, payrun.ErrRunFinalized
	}

	emp, err := s.empRepo.GetByID(ctx, item.EmployeeID, companyID)
	if err != nil {
		return payrun.PayrollItem{}, err
	}
	calc, err := s.calculatorFor(ctx, companyID, run.Year)
	if err != nil {
		return payrun.PayrollItem{}, err
	}
	computed, err := calc.Compute(emp, item, run.Year, run.Month)
	if err != nil {
		return payrun.PayrollItem{}, err
	}

	var updated payrun.PayrollItem
	err = database.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		updated, err = s.runRepo.UpdateItem(txCtx, computed, companyID)
		if err != nil {
			return err
		}
		totals, err := s.runRepo.SumTotals(txCtx, run.ID, companyID)
		if err != nil {
			return err
		}
		return s.runRepo.UpdateRunTotals(txCtx, run.ID, companyID, totals)
	})
	if err != nil {
		return payrun.PayrollItem{}, err
	}
	return updated, nil
}

// ========== ITEM MUTATION ==========

func (s *RunServiceImpl) UpdateItem(ctx context.Context, req payrun.UpdateItemRequest) (payrun.ItemResponse, error) {
	if err := req.Validate(); err != nil {
		return payrun.ItemResponse{}, err
	}

	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return payrun.ItemResponse{}, err
	}

	item, err := s.runRepo.GetItemByID(ctx, req.ID, companyID)
	if err != nil {
		return payrun.ItemResponse{}, err
	}

	var resp payrun.ItemResponse
	err = s.withRunLock(ctx, item.RunID, func() error {
		mergeItemUpdate(&item, req)
		updated, err := s.recomputeItem(ctx, companyID, item)
		if err != nil {
			return err
		}
		resp = mapItemResponse(updated)
		return nil
	})
	return resp, err
}

func mergeItemUpdate(item *payrun.PayrollItem, req payrun.UpdateItemRequest) {
	if req.BasicSalary != nil {
		item.BasicSalary = *req.BasicSalary
	}
	if req.FixedAllowance != nil {
		item.FixedAllowance = *req.FixedAllowance
	}
	if req.OTHours != nil {
		item.OTHours = *req.OTHours
	}
	if req.PHDaysWorked != nil {
		item.PHDaysWorked = *req.PHDaysWorked
	}
	if req.Incentive != nil {
		item.Incentive = *req.Incentive
	}
	if req.Commission != nil {
		item.Commission = *req.Commission
	}
	if req.TradeCommission != nil {
		item.TradeCommission = *req.TradeCommission
	}
	if req.Outstation != nil {
		item.Outstation = *req.Outstation
	}
	if req.Bonus != nil {
		item.Bonus = *req.Bonus
	}
	if req.ClaimsAmount != nil {
		item.ClaimsAmount = *req.ClaimsAmount
	}
	if req.UnpaidLeaveDays != nil {
		item.UnpaidLeaveDays = *req.UnpaidLeaveDays
	}
	if req.AdvanceDeduction != nil {
		item.AdvanceDeduction = *req.AdvanceDeduction
	}
	if req.OtherDeductions != nil {
		item.OtherDeductions = *req.OtherDeductions
	}

	item.EPFOverride = req.EPFOverride.Apply(item.EPFOverride)
	item.PCBOverride = req.PCBOverride.Apply(item.PCBOverride)
	item.ClaimsOverride = req.ClaimsOverride.Apply(item.ClaimsOverride)
}

func (s *RunServiceImpl) DeleteItem(ctx context.Context, itemID string) error {
	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return err
	}

	item, err := s.runRepo.GetItemByID(ctx, itemID, companyID)
	if err != nil {
		return err
	}

	return s.withRunLock(ctx, item.RunID, func() error {
		run, err := s.runRepo.GetRunByID(ctx, item.RunID, companyID)
		if err != nil {
			return err
		}
		if run.Status != payrun.RunStatusDraft {
			return payrun.ErrRunFinalized
		}

		return database.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
			if err := s.runRepo.DeleteItem(txCtx, itemID, companyID); err != nil {
				return err
			}
			totals, err := s.runRepo.SumTotals(txCtx, run.ID, companyID)
			if err != nil {
				return err
			}
			return s.runRepo.UpdateRunTotals(txCtx, run.ID, companyID, totals)
		})
	})
}

// ========== LIFECYCLE ==========

func (s *RunServiceImpl) FinalizeRun(ctx context.Context, runID string) (payrun.RunResponse, error) {
	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return payrun.RunResponse{}, err
	}

	var resp payrun.RunResponse
	err = s.withRunLock(ctx, runID, func() error {
		run, err := s.runRepo.GetRunByID(ctx, runID, companyID)
		if err != nil {
			return err
		}
		if run.Status != payrun.RunStatusDraft {
			return payrun.ErrRunFinalized
		}

		return database.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
			totals, err := s.runRepo.SumTotals(txCtx, runID, companyID)
			if err != nil {
				return err
			}
			finalized, err := s.runRepo.FinalizeRun(txCtx, runID, companyID, totals)
			if err != nil {
				return err
			}
			resp = mapRunResponse(finalized)
			return nil
		})
	})
	return resp, err
}

func (s *RunServiceImpl) DeleteRun(ctx context.Context, runID string) error {
	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return err
	}

	return s.withRunLock(ctx, runID, func() error {
		return s.runRepo.DeleteRun(ctx, runID, companyID)
	})
}

// ========== MAPPING ==========

func mapRunResponse(r payrun.PayrollRun) payrun.RunResponse {
	var finalizedAt *string
	if r.FinalizedAt != nil {
		str := payrun.FormatTime(*r.FinalizedAt)
		finalizedAt = &str
	}

	return payrun.RunResponse{
		ID:              r.ID,
		Year:            r.Year,
		Month:           int(r.Month),
		ScopeKey:        r.ScopeKey,
		Status:          string(r.Status),
		TotalGross:      r.TotalGross,
		TotalDeductions: r.TotalDeductions,
		TotalNet:        r.TotalNet,
		ItemCount:       r.EmployeeCount,
		FinalizedAt:     finalizedAt,
		CreatedAt:       payrun.FormatTime(r.CreatedAt),
	}
}

func mapItemResponse(i payrun.PayrollItem) payrun.ItemResponse {
	resp := payrun.ItemResponse{
		ID:         i.ID,
		RunID:      i.RunID,
		EmployeeID: i.EmployeeID,

		BasicSalary:     i.BasicSalary,
		FixedAllowance:  i.FixedAllowance,
		OTHours:         i.OTHours,
		OTAmount:        i.OTAmount,
		PHDaysWorked:    i.PHDaysWorked,
		PHPay:           i.PHPay,
		Incentive:       i.Incentive,
		Commission:      i.Commission,
		TradeCommission: i.TradeCommission,
		Outstation:      i.Outstation,
		Bonus:           i.Bonus,
		ClaimsAmount:    i.ClaimsAmount,
		ProRatedBasic:   i.ProRatedBasic,
		GrossSalary:     i.GrossSalary,

		UnpaidLeaveDays:      i.UnpaidLeaveDays,
		UnpaidLeaveDeduction: i.UnpaidLeaveDeduction,
		EPFEmployee:          i.EPFEmployee,
		EPFEmployer:          i.EPFEmployer,
		SocsoEmployee:        i.SocsoEmployee,
		SocsoEmployer:        i.SocsoEmployer,
		EISEmployee:          i.EISEmployee,
		EISEmployer:          i.EISEmployer,
		PCB:                  i.PCB,
		AdvanceDeduction:     i.AdvanceDeduction,
		OtherDeductions:      i.OtherDeductions,
		TotalDeductions:      i.TotalDeductions,
		NetPay:               i.NetPay,

		EPFOverride:    i.EPFOverride,
		PCBOverride:    i.PCBOverride,
		ClaimsOverride: i.ClaimsOverride,
	}

	if i.EmployeeName != nil {
		resp.EmployeeName = *i.EmployeeName
	}
	if i.EmployeeCode != nil {
		resp.EmployeeCode = *i.EmployeeCode
	}
	if i.ICNumber != nil {
		resp.ICNumber = *i.ICNumber
	}
	return resp
}
