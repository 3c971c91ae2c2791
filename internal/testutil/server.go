// A shared test server setup utility, which simplifies the API and core tests.

package testutil

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vrsandeep/stockpile-go/internal/api"
	"github.com/vrsandeep/stockpile-go/internal/config"
	"github.com/vrsandeep/stockpile-go/internal/core"
)

// TestConfig returns a configuration that keeps everything in memory or in
// t.TempDir() and points every provider at baseURL.
func TestConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Session.Backend = config.BackendMemory
	cfg.Session.Path = ":memory:"
	cfg.Downloads.Path = t.TempDir()
	cfg.Downloads.Retention = time.Hour
	cfg.Downloads.ResetDelay = 50 * time.Millisecond

	cfg.Providers.Pexels = config.ProviderConfig{APIKey: PexelsKey, Limit: 100, BaseURL: baseURL + "/pexels/"}
	cfg.Providers.Pixabay = config.ProviderConfig{APIKey: PixabayKey, Limit: 100, BaseURL: baseURL + "/pixabay/"}
	cfg.Providers.Freepik = config.ProviderConfig{APIKey: FreepikKey, Limit: 2, BaseURL: baseURL + "/freepik/", Language: "en-US"}
	return cfg
}

// SetupTestApp builds a core.App wired to a fake provider server.
func SetupTestApp(t *testing.T) (*core.App, *httptest.Server) {
	t.Helper()
	providers := NewFakeProviderServer(t)
	app, err := core.NewWithConfig(TestConfig(t, providers.URL))
	if err != nil {
		t.Fatalf("Failed to set up app: %v", err)
	}
	t.Cleanup(app.Close)
	return app, providers
}

// SetupTestServer initializes a full core.App and api.Server for integration testing.
func SetupTestServer(t *testing.T) (*api.Server, *core.App) {
	t.Helper()
	app, _ := SetupTestApp(t)
	return api.NewServer(app), app
}
