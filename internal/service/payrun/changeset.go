package payrun

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/contactevin2u/AAHRMS-sub010/internal/domain/payrun"
	"github.com/contactevin2u/AAHRMS-sub010/internal/pkg/database"
	"github.com/contactevin2u/AAHRMS-sub010/internal/pkg/jwt"
)

// ApplyChangeSet applies a batch of single-field edits to items of one
// draft run. Each row succeeds or fails on its own; failures are
// reported per row without aborting the batch. Run totals are refreshed
// once after the batch.
func (s *RunServiceImpl) ApplyChangeSet(ctx context.Context, req payrun.ChangeSetRequest) (payrun.ChangeSetResponse, error) {
	if err := req.Validate(); err != nil {
		return payrun.ChangeSetResponse{}, err
	}

	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return payrun.ChangeSetResponse{}, err
	}

	var resp payrun.ChangeSetResponse
	err = s.withRunLock(ctx, req.RunID, func() error {
		run, err := s.runRepo.GetRunByID(ctx, req.RunID, companyID)
		if err != nil {
			return err
		}
		if run.Status != payrun.RunStatusDraft {
			return payrun.ErrRunFinalized
		}

		calc, err := s.calculatorFor(ctx, companyID, run.Year)
		if err != nil {
			return err
		}

		resp.Results = make([]payrun.ChangeResult, 0, len(req.Changes))
		for _, change := range req.Changes {
			if err := s.applyChange(ctx, companyID, run, calc, change); err != nil {
				msg := err.Error()
				resp.Results = append(resp.Results, payrun.ChangeResult{ItemID: change.ItemID, Success: false, Error: &msg})
				continue
			}
			resp.Results = append(resp.Results, payrun.ChangeResult{ItemID: change.ItemID, Success: true})
		}

		return database.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
			totals, err := s.runRepo.SumTotals(txCtx, run.ID, companyID)
			if err != nil {
				return err
			}
			if err := s.runRepo.UpdateRunTotals(txCtx, run.ID, companyID, totals); err != nil {
				return err
			}
			resp.TotalGross = totals.Gross
			resp.TotalDeductions = totals.Deductions
			resp.TotalNet = totals.Net
			return nil
		})
	})
	if err != nil {
		return payrun.ChangeSetResponse{}, err
	}

	return resp, nil
}

// applyChange mutates one field on one item and persists the
// recomputed row inside its own transaction.
func (s *RunServiceImpl) applyChange(ctx context.Context, companyID string, run payrun.PayrollRun, calc Calculator, change payrun.Change) error {
	item, err := s.runRepo.GetItemByID(ctx, change.ItemID, companyID)
	if err != nil {
		return err
	}
	if item.RunID != run.ID {
		return payrun.ErrItemNotFound
	}

	if err := setItemField(&item, change.Field, change.NewValue); err != nil {
		return err
	}

	emp, err := s.empRepo.GetByID(ctx, item.EmployeeID, companyID)
	if err != nil {
		return err
	}
	computed, err := calc.Compute(emp, item, run.Year, run.Month)
	if err != nil {
		return err
	}

	return database.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		_, err := s.runRepo.UpdateItem(txCtx, computed, companyID)
		return err
	})
}

func setItemField(item *payrun.PayrollItem, field string, value decimal.Decimal) error {
	if value.IsNegative() {
		return fmt.Errorf("field %s must be non-negative", field)
	}

	switch field {
	case "basic_salary":
		item.BasicSalary = value
	case "fixed_allowance":
		item.FixedAllowance = value
	case "ot_hours":
		item.OTHours = value
	case "ph_days_worked":
		item.PHDaysWorked = value
	case "incentive":
		item.Incentive = value
	case "commission":
		item.Commission = value
	case "trade_commission":
		item.TradeCommission = value
	case "outstation":
		item.Outstation = value
	case "bonus":
		item.Bonus = value
	case "claims_amount":
		item.ClaimsAmount = value
	case "unpaid_leave_days":
		item.UnpaidLeaveDays = value
	case "advance_deduction":
		item.AdvanceDeduction = value
	case "other_deductions":
		item.OtherDeductions = value
	case "epf_override":
		v := value
		item.EPFOverride = &v
	case "pcb_override":
		v := value
		item.PCBOverride = &v
	case "claims_override":
		v := value
		item.ClaimsOverride = &v
	default:
		return fmt.Errorf("unknown field %s", field)
	}
	return nil
}
