package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"connviewer/internal/modules/link/domain"
)

type fakeUploader struct {
	calls int
	url   string
	err   error
}

func (f *fakeUploader) Upload(_ context.Context, uploadURL string, _ domain.State) (string, error) {
	f.calls++
	f.url = uploadURL
	return "99", f.err
}

func testState() domain.State {
	return domain.State{Layers: []map[string]any{{"type": "image", "name": strings.Repeat("x", 64)}}, Layout: "xy-3d"}
}

func TestRobustUploadsExactlyWhenTooLong(t *testing.T) {
	full, err := domain.EncodeURL("https://viewer", testState())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	tests := []struct {
		name     string
		max      int
		uploaded bool
	}{
		{"longer than max", len(full) - 1, true},
		{"equal to max", len(full), false},
		{"shorter than max", len(full) + 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := &fakeUploader{}
			link, err := NewLinkService(up, tt.max, nil).Robust(context.Background(), "https://viewer", "https://global", testState())
			if err != nil {
				t.Fatalf("Robust: %v", err)
			}
			if link.Uploaded != tt.uploaded || (up.calls == 1) != tt.uploaded {
				t.Fatalf("uploaded = %v with %d calls, want %v", link.Uploaded, up.calls, tt.uploaded)
			}
			if tt.uploaded {
				if link.URL != "https://viewer/?json_url=https://global/nglstate/api/v1/99" {
					t.Fatalf("short url = %q", link.URL)
				}
				if up.url != "https://global/nglstate/api/v1/post" {
					t.Fatalf("upload url = %q", up.url)
				}
			} else if link.URL != full {
				t.Fatalf("url = %q, want %q", link.URL, full)
			}
		})
	}
}

func TestUploadErrorIsWrapped(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewLinkService(&fakeUploader{err: boom}, 0, nil).Upload(context.Background(), "https://viewer", "https://global", testState())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
}
