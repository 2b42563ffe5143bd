package payrun

import "context"

// RunService is the payroll run engine's orchestration surface. Company
// scoping comes from the request context claims.
type RunService interface {
	CreateRun(ctx context.Context, req CreateRunRequest) (CreateRunResponse, error)
	CreateAllDepartments(ctx context.Context, req BulkGenerateRequest) (BulkGenerateResponse, error)
	CreateAllOutlets(ctx context.Context, req BulkGenerateRequest) (BulkGenerateResponse, error)

	ListRuns(ctx context.Context, filter RunFilter) ([]RunResponse, error)
	GetRun(ctx context.Context, runID string) (RunDetailResponse, error)

	RecalculateAll(ctx context.Context, runID string) (RecalculateResponse, error)
	RecalculateItem(ctx context.Context, itemID string) (ItemResponse, error)
	UpdateItem(ctx context.Context, req UpdateItemRequest) (ItemResponse, error)
	DeleteItem(ctx context.Context, itemID string) error

	FinalizeRun(ctx context.Context, runID string) (RunResponse, error)
	DeleteRun(ctx context.Context, runID string) error

	ApplyChangeSet(ctx context.Context, req ChangeSetRequest) (ChangeSetResponse, error)
}
