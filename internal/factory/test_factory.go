package factory

import (
	"io"
	"log/slog"
	"time"

	"github.com/pondside/pondside/internal/dependencies/mocks"
	"github.com/pondside/pondside/internal/services/session"
	"github.com/pondside/pondside/internal/storage/memory"
	"github.com/pondside/pondside/internal/world"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked
// dependencies and the compiled-in world catalog.
func NewTestApp() (*TestApp, error) {
	catalog, err := world.Default()
	if err != nil {
		return nil, err
	}
	return NewTestAppWithCatalog(catalog), nil
}

// NewTestAppWithCatalog creates a TestApp against a specific catalog,
// for tests that need a purpose-built map.
func NewTestAppWithCatalog(catalog *world.Catalog) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	app := newWithDependencies(store, mockClock, mockRandom, catalog, session.DefaultConfig(), logger)

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
