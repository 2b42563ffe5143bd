package contribution

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/contactevin2u/AAHRMS-sub010/internal/domain/contribution"
	"github.com/contactevin2u/AAHRMS-sub010/internal/domain/employee"
	"github.com/contactevin2u/AAHRMS-sub010/internal/domain/payrun"
	"github.com/contactevin2u/AAHRMS-sub010/internal/pkg/jwt"
)

type ContributionServiceImpl struct {
	runRepo payrun.RunRepository
	empRepo employee.EmployeeRepository
}

func NewContributionService(runRepo payrun.RunRepository, empRepo employee.EmployeeRepository) contribution.ContributionService {
	return &ContributionServiceImpl{runRepo: runRepo, empRepo: empRepo}
}

func (s *ContributionServiceImpl) Summary(ctx context.Context, runID string) (contribution.Summary, error) {
	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return contribution.Summary{}, err
	}

	run, err := s.runRepo.GetRunByID(ctx, runID, companyID)
	if err != nil {
		return contribution.Summary{}, err
	}
	items, err := s.runRepo.ListItemsByRun(ctx, runID, companyID)
	if err != nil {
		return contribution.Summary{}, err
	}

	return summarize(run, items), nil
}

func (s *ContributionServiceImpl) Details(ctx context.Context, runID string) (contribution.Details, error) {
	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return contribution.Details{}, err
	}

	run, err := s.runRepo.GetRunByID(ctx, runID, companyID)
	if err != nil {
		return contribution.Details{}, err
	}
	items, err := s.runRepo.ListItemsByRun(ctx, runID, companyID)
	if err != nil {
		return contribution.Details{}, err
	}

	details := contribution.Details{
		Summary:   summarize(run, items),
		Employees: make([]contribution.EmployeeBreakdown, 0, len(items)),
	}
	for _, item := range items {
		row := contribution.EmployeeBreakdown{
			GrossSalary:   item.GrossSalary,
			EPFEmployee:   item.EPFEmployee,
			EPFEmployer:   item.EPFEmployer,
			SocsoEmployee: item.SocsoEmployee,
			SocsoEmployer: item.SocsoEmployer,
			EISEmployee:   item.EISEmployee,
			EISEmployer:   item.EISEmployer,
			PCB:           item.PCB,
		}
		if item.EmployeeCode != nil {
			row.EmployeeCode = *item.EmployeeCode
		}
		if item.EmployeeName != nil {
			row.Name = *item.EmployeeName
		}
		if item.ICNumber != nil {
			row.ICNumber = *item.ICNumber
		}
		details.Employees = append(details.Employees, row)
	}
	return details, nil
}

// YearlyReport rolls all twelve months up in parallel; months without
// runs come back as zero columns.
func (s *ContributionServiceImpl) YearlyReport(ctx context.Context, year int, scopeKey *string) (contribution.YearlyReport, error) {
	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return contribution.YearlyReport{}, err
	}

	months := make([]contribution.MonthlyReport, 12)

	g, gCtx := errgroup.WithContext(ctx)
	for m := 1; m <= 12; m++ {
		m := m
		g.Go(func() error {
			monthly, err := s.monthlyReport(gCtx, companyID, year, m, scopeKey)
			if err != nil {
				return err
			}
			months[m-1] = monthly
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return contribution.YearlyReport{}, err
	}

	total := contribution.MonthlyReport{}
	for _, monthly := range months {
		total.RunCount += monthly.RunCount
		total.EPF = addTotals(total.EPF, monthly.EPF)
		total.Socso = addTotals(total.Socso, monthly.Socso)
		total.EIS = addTotals(total.EIS, monthly.EIS)
		total.PCB = total.PCB.Add(monthly.PCB)
		total.GrandTotal = total.GrandTotal.Add(monthly.GrandTotal)
	}

	return contribution.YearlyReport{
		Year:     year,
		ScopeKey: scopeKey,
		Months:   months,
		Total:    total,
	}, nil
}

func (s *ContributionServiceImpl) monthlyReport(ctx context.Context, companyID string, year, month int, scopeKey *string) (contribution.MonthlyReport, error) {
	filter := payrun.RunFilter{Year: &year, Month: &month, ScopeKey: scopeKey}
	runs, err := s.runRepo.ListRuns(ctx, companyID, filter)
	if err != nil {
		return contribution.MonthlyReport{}, err
	}

	monthly := contribution.MonthlyReport{Month: month, RunCount: len(runs)}
	for _, run := range runs {
		items, err := s.runRepo.ListItemsByRun(ctx, run.ID, companyID)
		if err != nil {
			return contribution.MonthlyReport{}, err
		}
		summary := summarize(run, items)
		monthly.EPF = addTotals(monthly.EPF, summary.EPF)
		monthly.Socso = addTotals(monthly.Socso, summary.Socso)
		monthly.EIS = addTotals(monthly.EIS, summary.EIS)
		monthly.PCB = monthly.PCB.Add(summary.PCB)
		monthly.GrandTotal = monthly.GrandTotal.Add(summary.GrandTotal)
	}
	return monthly, nil
}

func (s *ContributionServiceImpl) BankTransfer(ctx context.Context, runID string) (contribution.BankTransfer, error) {
	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return contribution.BankTransfer{}, err
	}

	run, err := s.runRepo.GetRunByID(ctx, runID, companyID)
	if err != nil {
		return contribution.BankTransfer{}, err
	}
	items, err := s.runRepo.ListItemsByRun(ctx, runID, companyID)
	if err != nil {
		return contribution.BankTransfer{}, err
	}

	transfer := contribution.BankTransfer{
		RunID: run.ID,
		Rows:  make([]contribution.BankTransferRow, 0, len(items)),
		Total: decimal.Zero,
	}
	for _, item := range items {
		emp, err := s.empRepo.GetByID(ctx, item.EmployeeID, companyID)
		if err != nil {
			return contribution.BankTransfer{}, err
		}
		transfer.Rows = append(transfer.Rows, contribution.BankTransferRow{
			EmployeeCode:  emp.EmployeeCode,
			Name:          emp.FullName,
			BankName:      emp.BankName,
			AccountNumber: emp.BankAccountNumber,
			NetPay:        item.NetPay,
		})
		transfer.Total = transfer.Total.Add(item.NetPay)
	}
	return transfer, nil
}

func summarize(run payrun.PayrollRun, items []payrun.PayrollItem) contribution.Summary {
	summary := contribution.Summary{
		RunID: run.ID,
		Year:  run.Year,
		Month: int(run.Month),
	}
	for _, item := range items {
		summary.EPF.Employee = summary.EPF.Employee.Add(item.EPFEmployee)
		summary.EPF.Employer = summary.EPF.Employer.Add(item.EPFEmployer)
		summary.Socso.Employee = summary.Socso.Employee.Add(item.SocsoEmployee)
		summary.Socso.Employer = summary.Socso.Employer.Add(item.SocsoEmployer)
		summary.EIS.Employee = summary.EIS.Employee.Add(item.EISEmployee)
		summary.EIS.Employer = summary.EIS.Employer.Add(item.EISEmployer)
		summary.PCB = summary.PCB.Add(item.PCB)
	}

	summary.EPF.Total = summary.EPF.Employee.Add(summary.EPF.Employer)
	summary.Socso.Total = summary.Socso.Employee.Add(summary.Socso.Employer)
	summary.EIS.Total = summary.EIS.Employee.Add(summary.EIS.Employer)
	summary.GrandTotal = summary.EPF.Total.
		Add(summary.Socso.Total).
		Add(summary.EIS.Total).
		Add(summary.PCB)
	return summary
}

func addTotals(a, b contribution.StatutoryTotal) contribution.StatutoryTotal {
	return contribution.StatutoryTotal{
		Employee: a.Employee.Add(b.Employee),
		Employer: a.Employer.Add(b.Employer),
		Total:    a.Total.Add(b.Total),
	}
}
