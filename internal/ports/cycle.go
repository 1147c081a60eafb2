package ports

import (
	"context"

	"github.com/keeperbot/monzoo-keeper/internal/domain"
)

// CycleRunner executes one full login-scan-evaluate-act cycle against the
// site. It never returns an error: failures are folded into the summary.
type CycleRunner interface {
	Run(ctx context.Context, account, secret string) domain.CycleSummary
}
