package out

import (
	"context"

	"connviewer/internal/modules/link/domain"
)

// StateUploader stores a viewer state on a state server and returns its id.
type StateUploader interface {
	Upload(ctx context.Context, uploadURL string, state domain.State) (string, error)
}
