package bootstrap

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"microgen-architect/internal/config"
	"microgen-architect/internal/diagnostics"
	"microgen-architect/internal/domain"
	"microgen-architect/internal/jobs"
	"microgen-architect/internal/logging"
	"microgen-architect/internal/progress"
	"microgen-architect/internal/state"
	"microgen-architect/internal/synthesis"
	"microgen-architect/internal/workspace"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// FileEntry pairs a full file path with its compact display name.
type FileEntry struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

// App wires settings, state, orchestrator, workspace, and UI runtime
// callbacks.
type App struct {
	Settings     domain.Settings
	SettingsFile config.Store
	State        *state.Store
	Orchestrator *jobs.Orchestrator
	Workspace    *workspace.Workspace
	Presenter    *progress.Presenter
	Diagnostics  domain.DiagnosticReport

	assets   fs.FS
	checker  *diagnostics.Checker
	service  *swappableService
	logger   *log.Logger
	closeLog func() error
	detach   []func()

	mu         sync.Mutex
	runtimeCtx context.Context
}

// swappableService routes orchestrator calls to the synthesis client for
// the currently saved settings, so settings changes take effect without
// restarting the app.
type swappableService struct {
	mu     sync.Mutex
	client *synthesis.Client
}

// Generate delegates to the current client.
func (s *swappableService) Generate(ctx context.Context, prompt string) (synthesis.Response, error) {
	return s.current().Generate(ctx, prompt)
}

// DownloadURL delegates to the current client.
func (s *swappableService) DownloadURL(jobID string) string {
	return s.current().DownloadURL(jobID)
}

func (s *swappableService) current() *synthesis.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client
}

func (s *swappableService) swap(client *synthesis.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = client
}

// New builds the application with persisted settings and startup
// diagnostics.
func New() (*App, error) {
	return NewWithAssets(nil)
}

// NewWithAssets builds the application and optionally configures embedded
// frontend assets.
func NewWithAssets(assets fs.FS) (*App, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve user home: %w", err)
	}
	appDir := filepath.Join(homeDir, ".microgen-architect")

	settingsStore := config.NewJSONStore(filepath.Join(appDir, "settings.json"))
	settings, err := settingsStore.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	checker := diagnostics.NewChecker()
	logger, closeLog := logging.New(filepath.Join(appDir, "app.log"))

	app := &App{
		Settings:     settings,
		SettingsFile: settingsStore,
		State:        state.NewStore(),
		Workspace:    workspace.New(),
		Diagnostics:  checker.Run(settings),
		assets:       assets,
		checker:      checker,
		service:      &swappableService{client: clientFor(settings)},
		logger:       logger,
		closeLog:     closeLog,
	}

	app.Orchestrator = jobs.New(app.State, app.service)
	app.Orchestrator.Logger = logger
	app.Orchestrator.Navigate = app.openURL
	app.Orchestrator.OnEvent = func(event jobs.Event) {
		app.emit("job:event", event)
	}

	app.Presenter = progress.New(func(label string) {
		app.emit("generation:phase", label)
	})

	app.detach = append(app.detach, app.Workspace.Attach(app.State))
	app.detach = append(app.detach, app.Presenter.Attach(app.State))
	app.detach = append(app.detach, app.State.Subscribe(func(snap state.Snapshot) {
		app.emit("state:changed", snap)
	}))

	return app, nil
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	assetOptions := &assetserver.Options{}
	if a.assets != nil {
		assetOptions.Assets = a.assets
	} else {
		assetOptions.Handler = http.FileServer(http.Dir("./frontend"))
	}

	return wails.Run(&options.App{
		Title:       "MicroGen Architect",
		Width:       1280,
		Height:      800,
		AssetServer: assetOptions,
		OnStartup:   a.Startup,
		OnShutdown:  a.Shutdown,
		Bind:        []interface{}{a},
	})
}

// Startup stores the Wails runtime context for push events and navigation.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = ctx
}

// Shutdown releases timers, subscriptions, and the log file.
func (a *App) Shutdown(ctx context.Context) {
	a.mu.Lock()
	a.runtimeCtx = nil
	a.mu.Unlock()

	a.Presenter.Stop()
	for _, fn := range a.detach {
		fn()
	}
	a.detach = nil
	if a.closeLog != nil {
		_ = a.closeLog()
	}
}

// GetState returns the current state snapshot.
func (a *App) GetState() state.Snapshot {
	return a.State.Snapshot()
}

// SetPrompt mirrors prompt editor text into the state container.
func (a *App) SetPrompt(prompt string) {
	a.State.SetPrompt(prompt)
}

// ConfigOptions returns the selectable choice groups in display order.
func (a *App) ConfigOptions() []domain.ConfigOption {
	return domain.ConfigOptions()
}

// SetConfig validates and merges a partial configuration update. Invalid
// enum values are rejected here and never reach the orchestrator.
func (a *App) SetConfig(patch domain.ConfigPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	a.State.MergeConfig(patch)
	return nil
}

// Generate submits the current prompt to the synthesis service.
func (a *App) Generate() error {
	return a.Orchestrator.Submit(a.State.Snapshot().Prompt)
}

// DownloadBundle navigates to the archive for the current completed job.
func (a *App) DownloadBundle() error {
	job := a.State.Snapshot().Job
	if job.ID == "" || job.Status != domain.JobStatusCompleted {
		return jobs.ErrNoJob
	}
	return a.Orchestrator.Download(job.ID)
}

// SelectFile makes path the displayed file; stale paths are ignored.
func (a *App) SelectFile(path string) {
	a.Workspace.Select(path)
}

// SelectedFile returns the currently displayed path, or empty.
func (a *App) SelectedFile() string {
	return a.Workspace.Selected()
}

// ListFiles returns generated files in lexicographic order with compact
// display names.
func (a *App) ListFiles() []FileEntry {
	paths := a.Workspace.Paths()
	entries := make([]FileEntry, 0, len(paths))
	for _, path := range paths {
		entries = append(entries, FileEntry{Path: path, Name: workspace.LeafName(path)})
	}
	return entries
}

// FileContent returns the content for path, or empty when absent.
func (a *App) FileContent(path string) string {
	return a.Workspace.Content(path)
}

// JobEvents returns all events with sequence greater than sinceSeq.
func (a *App) JobEvents(sinceSeq int64) []jobs.Event {
	return a.Orchestrator.Events(sinceSeq)
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	return a.Diagnostics
}

// RefreshDiagnostics reloads settings and reruns endpoint checks.
func (a *App) RefreshDiagnostics() (domain.DiagnosticReport, error) {
	settings, err := a.SettingsFile.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = settings
	a.Diagnostics = a.checker.Run(settings)
	report := a.Diagnostics
	a.mu.Unlock()

	return report, nil
}

// GetSettings loads and returns the latest persisted settings.
func (a *App) GetSettings() (domain.Settings, error) {
	settings, err := a.SettingsFile.Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = settings
	a.mu.Unlock()

	return settings, nil
}

// SaveSettings normalizes and persists settings, swaps the synthesis client,
// and refreshes diagnostics.
func (a *App) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	normalized := config.Normalize(settings)
	if err := a.SettingsFile.Save(normalized); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	a.service.swap(clientFor(normalized))

	a.mu.Lock()
	a.Settings = normalized
	if a.checker != nil {
		a.Diagnostics = a.checker.Run(normalized)
	}
	a.mu.Unlock()

	return normalized, nil
}

// emit pushes one runtime event when the UI runtime is available.
func (a *App) emit(name string, payload any) {
	a.mu.Lock()
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx != nil {
		wailsruntime.EventsEmit(ctx, name, payload)
	}
}

// openURL opens the URL in the platform browser via the UI runtime.
func (a *App) openURL(url string) {
	a.mu.Lock()
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx != nil {
		wailsruntime.BrowserOpenURL(ctx, url)
	}
	if a.logger != nil {
		a.logger.Printf("download: %s", url)
	}
}

// clientFor builds a synthesis client for the given settings.
func clientFor(settings domain.Settings) *synthesis.Client {
	return synthesis.NewClient(settings.BaseURL, time.Duration(settings.RequestTimeoutSecs)*time.Second)
}
