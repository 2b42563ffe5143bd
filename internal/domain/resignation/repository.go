package resignation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ResignationRepository defines data access for resignations. companyID
// scoping prevents cross-company access.
type ResignationRepository interface {
	Create(ctx context.Context, res Resignation) (Resignation, error)
	GetByID(ctx context.Context, id string, companyID string) (Resignation, error)
	List(ctx context.Context, companyID string) ([]Resignation, error)

	// UpdateSettlement persists recalculated settlement figures.
	UpdateSettlement(ctx context.Context, res Resignation, companyID string) error

	// SetStatus transitions the resignation. Runs inside the caller's
	// transaction during completion.
	SetStatus(ctx context.Context, id string, companyID string, status Status) error

	Delete(ctx context.Context, id string, companyID string) error

	// PendingClaims sums approved-not-yet-paid claims for the employee
	// through the given date.
	PendingClaims(ctx context.Context, employeeID string, companyID string, through time.Time) (decimal.Decimal, error)
}
