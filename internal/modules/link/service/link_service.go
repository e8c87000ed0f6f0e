package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"connviewer/internal/modules/link/domain"
	linkout "connviewer/internal/modules/link/port/out"
	"connviewer/internal/platform/logging"
)

// Link is a rendered viewer link.
type Link struct {
	URL      string
	Uploaded bool
}

type LinkService struct {
	uploader     linkout.StateUploader
	maxURLLength int
	logger       *zap.Logger
}

func NewLinkService(uploader linkout.StateUploader, maxURLLength int, logger *zap.Logger) *LinkService {
	return &LinkService{uploader: uploader, maxURLLength: maxURLLength, logger: logging.OrNop(logger)}
}

// Robust encodes state into a URL and falls back to the state server
// exactly when that URL is longer than the configured maximum.
func (s *LinkService) Robust(ctx context.Context, prefix, stateServer string, state domain.State) (Link, error) {
	u, err := domain.EncodeURL(prefix, state)
	if err != nil {
		return Link{}, err
	}
	if len(u) <= s.maxURLLength {
		return Link{URL: u}, nil
	}
	s.logger.Info("viewer url too long, uploading state", zap.Int("length", len(u)), zap.Int("max", s.maxURLLength))
	return s.Upload(ctx, prefix, stateServer, state)
}

// Upload stores state on the state server and returns the short link.
func (s *LinkService) Upload(ctx context.Context, prefix, stateServer string, state domain.State) (Link, error) {
	id, err := s.uploader.Upload(ctx, domain.UploadURL(stateServer), state)
	if err != nil {
		return Link{}, fmt.Errorf("upload state: %w", err)
	}
	return Link{URL: domain.ShortURL(prefix, stateServer, id), Uploaded: true}, nil
}
