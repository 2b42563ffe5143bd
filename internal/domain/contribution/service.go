package contribution

import "context"

// ContributionService derives statutory aggregates and exporter inputs
// from run state.
type ContributionService interface {
	Summary(ctx context.Context, runID string) (Summary, error)
	Details(ctx context.Context, runID string) (Details, error)
	YearlyReport(ctx context.Context, year int, scopeKey *string) (YearlyReport, error)
	BankTransfer(ctx context.Context, runID string) (BankTransfer, error)
}
