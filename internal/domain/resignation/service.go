package resignation

import "context"

// ResignationService manages resignations and their final settlements.
type ResignationService interface {
	Create(ctx context.Context, req CreateRequest) (Response, error)
	Get(ctx context.Context, id string) (Response, error)
	List(ctx context.Context) ([]Response, error)

	// CalculateSettlement recomputes and persists the settlement from
	// current master data and leave balances.
	CalculateSettlement(ctx context.Context, id string) (Response, error)

	// CheckLeaves lists approved and pending leaves starting after the
	// last working day.
	CheckLeaves(ctx context.Context, id string) (CheckLeavesResponse, error)

	// Process completes the resignation: blocked by LeavesPendingError
	// unless the caller confirms cancellation of conflicting leaves.
	Process(ctx context.Context, id string, req ProcessRequest) (Response, error)

	Cancel(ctx context.Context, id string) (Response, error)

	// CleanupLeaves re-runs leave cancellation for an already-completed
	// resignation.
	CleanupLeaves(ctx context.Context, id string) (CleanupLeavesResponse, error)

	Delete(ctx context.Context, id string) error
}
