package out

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"connviewer/internal/modules/link/domain"
	linkout "connviewer/internal/modules/link/port/out"
	apperrors "connviewer/internal/platform/errors"
	"connviewer/internal/platform/logging"
)

var stateUploads = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "connviewer_state_uploads_total",
	Help: "Viewer state uploads by result (ok, error)",
}, []string{"result"})

// HTTPStateUploader posts viewer states to a state server.
type HTTPStateUploader struct {
	token  string
	http   *http.Client
	logger *zap.Logger
}

func NewHTTPStateUploader(token string, timeout time.Duration, logger *zap.Logger) *HTTPStateUploader {
	return &HTTPStateUploader{token: token, http: &http.Client{Timeout: timeout}, logger: logging.OrNop(logger)}
}

var _ linkout.StateUploader = (*HTTPStateUploader)(nil)

// Upload returns the id the server assigned; servers answer with either a
// bare JSON number or a JSON string.
func (u *HTTPStateUploader) Upload(ctx context.Context, uploadURL string, state domain.State) (id string, err error) {
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}
		stateUploads.WithLabelValues(result).Inc()
	}()

	body, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("encode state: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if u.token != "" {
		req.Header.Set("Authorization", "Bearer "+u.token)
	}
	resp, err := u.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: state upload: %v", apperrors.ErrUpstream, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", fmt.Errorf("%w: read upload response: %v", apperrors.ErrUpstream, err)
	}
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("%w: state upload returned %d: %s", apperrors.ErrUpstream, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	id, err = parseStateID(raw)
	if err != nil {
		return "", err
	}
	u.logger.Debug("state uploaded", zap.String("id", id), zap.Int("bytes", len(body)))
	return id, nil
}

func parseStateID(raw []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", fmt.Errorf("%w: decode upload response: %v", apperrors.ErrUpstream, err)
	}
	switch t := v.(type) {
	case json.Number:
		return t.String(), nil
	case string:
		if t = strings.TrimSpace(t); t != "" {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: upload response has no state id: %s", apperrors.ErrUpstream, strings.TrimSpace(string(raw)))
}
