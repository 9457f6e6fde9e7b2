package integration

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/sir_venger/drive_lite/internal/app/drivehttp"
	"github.com/sir_venger/drive_lite/internal/config"
)

const testToken = "test123"

// newTestServer поднимает полный сервис на временных директориях
// с in-memory индексом метаданных.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		ListenAddr:    ":0",
		UploadDir:     t.TempDir(),
		StorageDir:    t.TempDir(),
		MetaDSN:       "memory://",
		AuthToken:     testToken,
		MaxChunkBytes: 4 << 20,
		GCTTLHours:    24,
		GCIntervalMin: 30,
	}

	handler, _, err := drivehttp.NewServer(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}
