package bundle

import (
	"context"

	"github.com/bundleshop/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository defines persistence operations for bundles.
// FindByID with activeOnly=true must return shared.ErrNotFound for inactive
// bundles; callers that need to tolerate deactivated bundles (recalculation)
// pass activeOnly=false and check Active themselves.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID, activeOnly bool) (*Bundle, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Bundle, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	Save(ctx context.Context, b *Bundle) error
	Delete(ctx context.Context, id uuid.UUID) error
}
