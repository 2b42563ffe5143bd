package resignation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/contactevin2u/AAHRMS-sub010/internal/config"
	"github.com/contactevin2u/AAHRMS-sub010/internal/domain/employee"
	"github.com/contactevin2u/AAHRMS-sub010/internal/domain/leave"
	"github.com/contactevin2u/AAHRMS-sub010/internal/domain/payrun"
	"github.com/contactevin2u/AAHRMS-sub010/internal/domain/resignation"
	"github.com/contactevin2u/AAHRMS-sub010/internal/pkg/database"
	"github.com/contactevin2u/AAHRMS-sub010/internal/pkg/jwt"
)

type ResignationServiceImpl struct {
	db        *database.DB
	resRepo   resignation.ResignationRepository
	leaveRepo leave.LeaveRepository
	empRepo   employee.EmployeeRepository
	runRepo   payrun.RunRepository
	defaults  config.PayrollConfig
}

func NewResignationService(
	db *database.DB,
	resRepo resignation.ResignationRepository,
	leaveRepo leave.LeaveRepository,
	empRepo employee.EmployeeRepository,
	runRepo payrun.RunRepository,
	defaults config.PayrollConfig,
) resignation.ResignationService {
	return &ResignationServiceImpl{
		db:        db,
		resRepo:   resRepo,
		leaveRepo: leaveRepo,
		empRepo:   empRepo,
		runRepo:   runRepo,
		defaults:  defaults,
	}
}

func (s *ResignationServiceImpl) Create(ctx context.Context, req resignation.CreateRequest) (resignation.Response, error) {
	if err := req.Validate(); err != nil {
		return resignation.Response{}, err
	}

	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return resignation.Response{}, err
	}

	emp, err := s.empRepo.GetByID(ctx, req.EmployeeID, companyID)
	if err != nil {
		return resignation.Response{}, err
	}

	noticeDate, _ := time.Parse("2006-01-02", req.NoticeDate)
	lastWorkingDay, _ := time.Parse("2006-01-02", req.LastWorkingDay)

	res := resignation.Resignation{
		CompanyID:      companyID,
		EmployeeID:     emp.ID,
		NoticeDate:     noticeDate,
		LastWorkingDay: lastWorkingDay,
		Reason:         req.Reason,
		Status:         resignation.StatusPending,
	}
	if err := s.fillSettlement(ctx, companyID, emp, &res); err != nil {
		return resignation.Response{}, err
	}

	created, err := s.resRepo.Create(ctx, res)
	if err != nil {
		return resignation.Response{}, err
	}
	return s.mapResponse(ctx, companyID, created)
}

func (s *ResignationServiceImpl) Get(ctx context.Context, id string) (resignation.Response, error) {
	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return resignation.Response{}, err
	}
	res, err := s.resRepo.GetByID(ctx, id, companyID)
	if err != nil {
		return resignation.Response{}, err
	}
	return s.mapResponse(ctx, companyID, res)
}

func (s *ResignationServiceImpl) List(ctx context.Context) ([]resignation.Response, error) {
	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.resRepo.List(ctx, companyID)
	if err != nil {
		return nil, err
	}

	result := make([]resignation.Response, 0, len(list))
	for _, res := range list {
		mapped, err := s.mapResponse(ctx, companyID, res)
		if err != nil {
			return nil, err
		}
		result = append(result, mapped)
	}
	return result, nil
}

func (s *ResignationServiceImpl) CalculateSettlement(ctx context.Context, id string) (resignation.Response, error) {
	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return resignation.Response{}, err
	}

	res, err := s.resRepo.GetByID(ctx, id, companyID)
	if err != nil {
		return resignation.Response{}, err
	}
	if res.Status == resignation.StatusCompleted {
		return resignation.Response{}, resignation.ErrAlreadyCompleted
	}

	emp, err := s.empRepo.GetByID(ctx, res.EmployeeID, companyID)
	if err != nil {
		return resignation.Response{}, err
	}
	if err := s.fillSettlement(ctx, companyID, emp, &res); err != nil {
		return resignation.Response{}, err
	}
	if err := s.resRepo.UpdateSettlement(ctx, res, companyID); err != nil {
		return resignation.Response{}, err
	}
	return s.mapResponse(ctx, companyID, res)
}

func (s *ResignationServiceImpl) CheckLeaves(ctx context.Context, id string) (resignation.CheckLeavesResponse, error) {
	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return resignation.CheckLeavesResponse{}, err
	}

	res, err := s.resRepo.GetByID(ctx, id, companyID)
	if err != nil {
		return resignation.CheckLeavesResponse{}, err
	}

	leaves, err := s.leaveRepo.ListAfter(ctx, res.EmployeeID, companyID, res.LastWorkingDay)
	if err != nil {
		return resignation.CheckLeavesResponse{}, err
	}
	return resignation.CheckLeavesResponse{Leaves: mapLeaveConflicts(leaves)}, nil
}

// Process completes the resignation: cancels leaves past the last
// working day (only with explicit confirmation), seals the settlement,
// and marks the employee resigned — all in one transaction.
func (s *ResignationServiceImpl) Process(ctx context.Context, id string, req resignation.ProcessRequest) (resignation.Response, error) {
	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return resignation.Response{}, err
	}

	res, err := s.resRepo.GetByID(ctx, id, companyID)
	if err != nil {
		return resignation.Response{}, err
	}
	switch res.Status {
	case resignation.StatusCompleted:
		return resignation.Response{}, resignation.ErrAlreadyCompleted
	case resignation.StatusCancelled:
		return resignation.Response{}, resignation.ErrAlreadyCancelled
	}

	leaves, err := s.leaveRepo.ListAfter(ctx, res.EmployeeID, companyID, res.LastWorkingDay)
	if err != nil {
		return resignation.Response{}, err
	}
	if len(leaves) > 0 && !req.ConfirmLeaveCancellation {
		return resignation.Response{}, &resignation.LeavesPendingError{Leaves: leaves}
	}

	emp, err := s.empRepo.GetByID(ctx, res.EmployeeID, companyID)
	if err != nil {
		return resignation.Response{}, err
	}

	err = database.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		if len(leaves) > 0 {
			if _, err := s.leaveRepo.CancelAfter(txCtx, res.EmployeeID, companyID, res.LastWorkingDay); err != nil {
				return err
			}
		}
		if err := s.fillSettlement(txCtx, companyID, emp, &res); err != nil {
			return err
		}
		if err := s.resRepo.UpdateSettlement(txCtx, res, companyID); err != nil {
			return err
		}
		if err := s.resRepo.SetStatus(txCtx, res.ID, companyID, resignation.StatusCompleted); err != nil {
			return err
		}
		return s.empRepo.MarkResigned(txCtx, res.EmployeeID, companyID, res.LastWorkingDay)
	})
	if err != nil {
		return resignation.Response{}, err
	}

	completed, err := s.resRepo.GetByID(ctx, id, companyID)
	if err != nil {
		return resignation.Response{}, err
	}
	return s.mapResponse(ctx, companyID, completed)
}

func (s *ResignationServiceImpl) Cancel(ctx context.Context, id string) (resignation.Response, error) {
	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return resignation.Response{}, err
	}

	res, err := s.resRepo.GetByID(ctx, id, companyID)
	if err != nil {
		return resignation.Response{}, err
	}
	if res.Status == resignation.StatusCompleted {
		return resignation.Response{}, resignation.ErrAlreadyCompleted
	}
	if res.Status == resignation.StatusCancelled {
		return resignation.Response{}, resignation.ErrAlreadyCancelled
	}

	if err := s.resRepo.SetStatus(ctx, res.ID, companyID, resignation.StatusCancelled); err != nil {
		return resignation.Response{}, err
	}

	cancelled, err := s.resRepo.GetByID(ctx, id, companyID)
	if err != nil {
		return resignation.Response{}, err
	}
	return s.mapResponse(ctx, companyID, cancelled)
}

func (s *ResignationServiceImpl) CleanupLeaves(ctx context.Context, id string) (resignation.CleanupLeavesResponse, error) {
	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return resignation.CleanupLeavesResponse{}, err
	}

	res, err := s.resRepo.GetByID(ctx, id, companyID)
	if err != nil {
		return resignation.CleanupLeavesResponse{}, err
	}
	if res.Status != resignation.StatusCompleted {
		return resignation.CleanupLeavesResponse{}, resignation.ErrNotCompleted
	}

	cancelled, err := s.leaveRepo.CancelAfter(ctx, res.EmployeeID, companyID, res.LastWorkingDay)
	if err != nil {
		return resignation.CleanupLeavesResponse{}, err
	}
	return resignation.CleanupLeavesResponse{Cancelled: mapLeaveConflicts(cancelled)}, nil
}

func (s *ResignationServiceImpl) Delete(ctx context.Context, id string) error {
	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return err
	}

	res, err := s.resRepo.GetByID(ctx, id, companyID)
	if err != nil {
		return err
	}
	if res.Status == resignation.StatusCompleted {
		return resignation.ErrAlreadyCompleted
	}
	return s.resRepo.Delete(ctx, res.ID, companyID)
}

// fillSettlement computes the final settlement from the last working
// day: salary pro-rated by calendar days, unused entitled leave encashed
// at the daily rate, plus approved-but-unpaid claims.
func (s *ResignationServiceImpl) fillSettlement(ctx context.Context, companyID string, emp employee.Employee, res *resignation.Resignation) error {
	lwd := res.LastWorkingDay
	daysWorked := lwd.Day()
	daysInMonth := payrun.DaysInMonth(lwd.Year(), lwd.Month())

	workingDays, err := s.runRepo.WorkingDays(ctx, companyID, lwd.Year(), s.defaults.WorkingDays)
	if err != nil {
		return err
	}
	unusedDays, err := s.leaveRepo.UnusedEntitledDays(ctx, emp.ID, companyID, lwd.Year())
	if err != nil {
		return err
	}
	pendingClaims, err := s.resRepo.PendingClaims(ctx, emp.ID, companyID, lwd)
	if err != nil {
		return err
	}

	proRated := emp.BasicSalary.
		Mul(decimal.NewFromInt(int64(daysWorked))).
		Div(decimal.NewFromInt(int64(daysInMonth))).
		Round(2)
	// Encashment rounds once on the product; the 2dp daily rate shown
	// on the response is display only.
	encashment := emp.BasicSalary.
		Div(decimal.NewFromInt(int64(workingDays))).
		Mul(decimal.NewFromFloat(unusedDays)).
		Round(2)

	res.UnusedLeaveDays = unusedDays
	res.ProRatedSalary = proRated
	res.LeaveEncashment = encashment
	res.PendingClaims = pendingClaims
	res.TotalFinalSettlement = proRated.Add(encashment).Add(pendingClaims).Round(2)
	return nil
}

func (s *ResignationServiceImpl) mapResponse(ctx context.Context, companyID string, res resignation.Resignation) (resignation.Response, error) {
	emp, err := s.empRepo.GetByID(ctx, res.EmployeeID, companyID)
	if err != nil {
		return resignation.Response{}, err
	}

	lwd := res.LastWorkingDay
	workingDays, err := s.runRepo.WorkingDays(ctx, companyID, lwd.Year(), s.defaults.WorkingDays)
	if err != nil {
		return resignation.Response{}, err
	}

	dailyRate := decimal.Zero
	if workingDays > 0 {
		dailyRate = emp.BasicSalary.Div(decimal.NewFromInt(int64(workingDays))).Round(2)
	}

	resp := resignation.Response{
		ID:             res.ID,
		EmployeeID:     res.EmployeeID,
		NoticeDate:     res.NoticeDate.Format("2006-01-02"),
		LastWorkingDay: lwd.Format("2006-01-02"),
		Reason:         res.Reason,
		Status:         string(res.Status),
		Settlement: resignation.SettlementResponse{
			DaysWorked:           lwd.Day(),
			DaysInMonth:          payrun.DaysInMonth(lwd.Year(), lwd.Month()),
			WorkingDays:          workingDays,
			UnusedLeaveDays:      res.UnusedLeaveDays,
			ProRatedSalary:       res.ProRatedSalary,
			DailyRate:            dailyRate,
			LeaveEncashment:      res.LeaveEncashment,
			PendingClaims:        res.PendingClaims,
			TotalFinalSettlement: res.TotalFinalSettlement,
		},
		CreatedAt: payrun.FormatTime(res.CreatedAt),
	}
	if res.EmployeeName != nil {
		resp.EmployeeName = *res.EmployeeName
	} else {
		resp.EmployeeName = emp.FullName
	}
	if res.EmployeeCode != nil {
		resp.EmployeeCode = *res.EmployeeCode
	} else {
		resp.EmployeeCode = emp.EmployeeCode
	}
	if res.CompletedAt != nil {
		completedAt := payrun.FormatTime(*res.CompletedAt)
		resp.CompletedAt = &completedAt
	}
	return resp, nil
}

func mapLeaveConflicts(leaves []leave.LeaveRecord) []resignation.LeaveConflict {
	conflicts := make([]resignation.LeaveConflict, 0, len(leaves))
	for _, l := range leaves {
		conflicts = append(conflicts, resignation.LeaveConflict{
			ID:        l.ID,
			LeaveType: l.LeaveType,
			StartDate: l.StartDate.Format("2006-01-02"),
			EndDate:   l.EndDate.Format("2006-01-02"),
			Days:      l.Days,
			Status:    string(l.Status),
		})
	}
	return conflicts
}
