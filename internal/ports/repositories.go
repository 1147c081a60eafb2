package ports

import (
	"context"

	"github.com/keeperbot/monzoo-keeper/internal/domain"
)

// RunStateRepository persists the scheduling document. Load returns an empty
// state when the document is absent or corrupt.
type RunStateRepository interface {
	Load(ctx context.Context) (domain.RunState, error)
	Save(ctx context.Context, state domain.RunState) error
}

// SettingsRepository persists the operator settings document. Load returns
// defaults when the document is absent or corrupt.
type SettingsRepository interface {
	Load(ctx context.Context) (domain.Settings, error)
	Save(ctx context.Context, settings domain.Settings) error
}
