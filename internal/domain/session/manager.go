// Package session composes the workset registry, the workspace mapper,
// and the environment synchronizer behind the operation surface the
// presentation layer consumes. It owns the single active session and is
// the only component that talks to the document store.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/blipk/worksetsd/internal/domain/bridge"
	"github.com/blipk/worksetsd/internal/domain/environment"
	"github.com/blipk/worksetsd/internal/domain/registry"
	"github.com/blipk/worksetsd/internal/domain/workspace"
	"github.com/blipk/worksetsd/internal/infrastructure/logging"
	"github.com/blipk/worksetsd/internal/infrastructure/monitoring"
	"github.com/blipk/worksetsd/internal/infrastructure/store"
	"github.com/blipk/worksetsd/internal/providers/desktop"
	"github.com/blipk/worksetsd/internal/providers/notify"
	"github.com/blipk/worksetsd/internal/shared/paths"
	"github.com/blipk/worksetsd/internal/shared/types"
	"github.com/blipk/worksetsd/internal/shared/utils"
)

// ChangeListener receives a notification after every successful mutation
// so the presentation layer can re-render. Listeners run synchronously;
// they must not call back into the manager.
type ChangeListener func()

// Manager is the session facade. All operations are serialized by a
// single mutex and every successful mutation is flushed to the store
// before the operation returns, so the persisted document is the system
// of record after restart.
type Manager struct {
	mu sync.Mutex

	name    string
	options types.OptionSet

	registry *registry.Manager
	mapper   *workspace.Mapper
	sync     *environment.Synchronizer
	bridge   *bridge.Bridge
	desktop  desktop.Desktop
	store    *store.Store
	notifier notify.Notifier
	log      *logging.Logger
	metrics  *monitoring.Metrics

	configDir string
	listeners []ChangeListener
}

// NewManager creates the session facade. The session itself is empty
// until Init, LoadSession, or NewSession runs.
func NewManager(cfgDir string, st *store.Store, d desktop.Desktop, b *bridge.Bridge, n notify.Notifier, log *logging.Logger) *Manager {
	mapper := workspace.NewMapper()
	return &Manager{
		name:      "Default",
		options:   types.DefaultOptions(),
		registry:  registry.NewManager(),
		mapper:    mapper,
		sync:      environment.NewSynchronizer(d, b, mapper, n),
		bridge:    b,
		desktop:   d,
		store:     st,
		notifier:  n,
		log:       log,
		configDir: cfgDir,
	}
}

// WithMetrics attaches a metrics collector.
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// WithIsolator attaches the optional workspace isolation hook.
func (m *Manager) WithIsolator(iso desktop.WorkspaceIsolator) *Manager {
	m.sync.WithIsolator(iso)
	return m
}

// Subscribe registers a change listener.
func (m *Manager) Subscribe(l ChangeListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// Init loads the persisted session, bootstrapping a fresh one from the
// current environment when no usable document exists. Structural
// corruption of the document is never fatal.
func (m *Manager) Init(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.loadFrom(paths.SessionFile(m.configDir))
	if err == nil {
		m.log.Info("session loaded",
			zap.String("name", m.name),
			zap.Int("worksets", len(m.registry.List())),
		)
		return nil
	}

	var parseErr *store.ParseError
	if errors.Is(err, store.ErrNotFound) || errors.As(err, &parseErr) {
		m.log.Warn("no usable session document, bootstrapping from environment", zap.Error(err))
		if m.metrics != nil {
			m.metrics.SessionBootstrap.Inc()
		}
		return m.bootstrap(ctx, true)
	}
	return err
}

// Session returns a deep copy of the active session document.
func (m *Manager) Session() *types.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.document().Clone()
}

// Worksets returns deep copies of the worksets in display order.
func (m *Manager) Worksets() []*types.Workset {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.registry.List()
	out := make([]*types.Workset, len(list))
	for i, w := range list {
		out[i] = w.Clone()
	}
	return out
}

// GetWorkset returns a deep copy of one workset.
func (m *Manager) GetWorkset(name string) (*types.Workset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	workset, ok := m.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrNotFound, name)
	}
	return workset.Clone(), nil
}

// Options returns the active option set.
func (m *Manager) Options() types.OptionSet {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.options
}

// SetOptions replaces the option set and persists.
func (m *Manager) SetOptions(opts types.OptionSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.options = opts
	return m.commit("set options")
}

// NewSession replaces the active session with a fresh one. With backup
// set, the outgoing session is snapshotted first. With fromEnvironment
// set, the initial workset captures the desktop's current favorites and
// wallpaper.
func (m *Manager) NewSession(ctx context.Context, fromEnvironment, backup bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if backup {
		path := paths.SessionBackupFile(m.configDir, paths.UniqueTimestamp(time.Now()))
		if err := m.store.Save(path, m.document()); err != nil {
			return fmt.Errorf("failed to back up session: %w", err)
		}
		if m.metrics != nil {
			m.metrics.BackupsWritten.Inc()
		}
		m.log.Info("session backed up", zap.String("path", path))
	}
	return m.bootstrap(ctx, fromEnvironment)
}

// LoadSession reloads the session from the default document, healing
// stale references. Corruption degrades to a fresh bootstrap.
func (m *Manager) LoadSession(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadOrBootstrap(ctx, paths.SessionFile(m.configDir))
}

// LoadSessionFromFile replaces the active session with the document at
// an explicit path. Unlike LoadSession it fails rather than bootstraps,
// so a bad import never destroys the active session.
func (m *Manager) LoadSessionFromFile(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.loadFrom(path); err != nil {
		return err
	}
	return m.commit("load session from file")
}

// CreateWorkset builds a new workset and adds it to the session. With
// fromEnvironment set, its apps are the union of the desktop's current
// favorites and running applications, deduplicated by id with favorites
// winning. The new workset always captures the current wallpaper.
func (m *Manager) CreateWorkset(ctx context.Context, name string, fromEnvironment, activate bool) (*types.Workset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	workset := &types.Workset{
		Name:         strings.TrimSpace(name),
		FavoriteApps: []types.AppRef{},
	}

	background, err := m.desktop.Wallpaper(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read wallpaper: %w", err)
	}
	workset.BackgroundImagePath = background

	if fromEnvironment {
		favorites, err := m.importCurrentFavorites(ctx)
		if err != nil {
			return nil, err
		}
		runningIDs, err := m.desktop.RunningAppIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list running applications: %w", err)
		}
		running, err := m.bridge.ImportFavorites(runningIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve running applications: %w", err)
		}
		workset.FavoriteApps = bridge.MergeByID(favorites, running)
		workset.Favorite = true
	}

	if err := m.registry.Add(workset); err != nil {
		return nil, err
	}

	if activate {
		if err := m.sync.Display(ctx, workset, m.options, false); err != nil {
			// A failed activation must not leave a half-created
			// workset in the session.
			m.registry.Remove(workset.Name)
			return nil, err
		}
	}

	if err := m.commit("create workset"); err != nil {
		return nil, err
	}
	m.notifier.Show("Environment "+workset.Name+" created.", false, 0)
	return workset.Clone(), nil
}

// RenameWorkset renames a workset and rewrites every workspace map
// reference atomically with it.
func (m *Manager) RenameWorkset(oldName, newName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.registry.Rename(oldName, newName); err != nil {
		return err
	}
	m.mapper.OnRename(oldName, strings.TrimSpace(newName))
	return m.commit("rename workset")
}

// EditWorkset applies a combined edit: optional rename, favorite flag,
// and the set of slots this workset is the default for. Slots listed in
// defaultSlots gain the workset as default; slots absent from it lose it
// if they currently reference the workset.
func (m *Manager) EditWorkset(name string, newName string, favorite bool, defaultSlots map[int]bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	workset, ok := m.registry.Get(name)
	if !ok {
		return fmt.Errorf("%w: %q", types.ErrNotFound, name)
	}

	finalName := name
	if trimmed := strings.TrimSpace(newName); trimmed != "" && trimmed != name {
		if err := m.registry.Rename(name, trimmed); err != nil {
			return err
		}
		m.mapper.OnRename(name, trimmed)
		finalName = trimmed
	}
	workset.Favorite = favorite

	for slot, isDefault := range defaultSlots {
		if isDefault {
			m.mapper.AssignDefault(slot, finalName)
		} else if m.mapper.DefaultFor(slot) == finalName {
			m.mapper.ClearDefault(slot)
		}
	}
	return m.commit("edit workset")
}

// ToggleFavorite flips a workset's favorite flag and moves it to the
// head of its list.
func (m *Manager) ToggleFavorite(name string) (*types.Workset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	workset, err := m.registry.ToggleFavorite(name)
	if err != nil {
		return nil, err
	}
	if err := m.commit("toggle favorite"); err != nil {
		return nil, err
	}
	return workset.Clone(), nil
}

// DeleteWorkset removes a workset from the session. A timestamped backup
// is always written first and its path returned for display; the delete
// is never silent.
func (m *Manager) DeleteWorkset(name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	workset, ok := m.registry.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", types.ErrNotFound, name)
	}

	backupPath := paths.EnvBackupFile(m.configDir, name, paths.UniqueTimestamp(time.Now()))
	if err := m.store.Save(backupPath, workset); err != nil {
		return "", fmt.Errorf("failed to back up workset: %w", err)
	}

	m.mapper.OnDelete(name)
	if _, err := m.registry.Remove(name); err != nil {
		return "", err
	}

	if err := m.commit("delete workset"); err != nil {
		return "", err
	}
	if m.metrics != nil {
		m.metrics.WorksetDeletes.Inc()
		m.metrics.BackupsWritten.Inc()
	}
	m.notifier.Show("Environment removed from session and backup saved to "+backupPath, true, 0)
	return backupPath, nil
}

// DisplayWorkset switches the desktop to a workset, optionally on a
// newly created workspace slot, and moves it to the head of the list.
func (m *Manager) DisplayWorkset(ctx context.Context, name string, createNewSlot bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	workset, ok := m.registry.Get(name)
	if !ok {
		return fmt.Errorf("%w: %q", types.ErrNotFound, name)
	}
	if err := m.sync.Display(ctx, workset, m.options, createNewSlot); err != nil {
		return err
	}
	m.registry.MoveToHead(name)
	if m.metrics != nil {
		m.metrics.WorksetDisplays.Inc()
	}
	return m.commit("display workset")
}

// CloseWorkset hides a workset from every slot displaying it.
func (m *Manager) CloseWorkset(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	workset, ok := m.registry.Get(name)
	if !ok {
		return fmt.Errorf("%w: %q", types.ErrNotFound, name)
	}
	m.sync.Close(workset)
	return m.commit("close workset")
}

// RemoveFavoriteApp removes one pinned application from a workset. If
// the workset is currently displayed the change is pushed live.
func (m *Manager) RemoveFavoriteApp(ctx context.Context, name, appID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	workset, removed, err := m.registry.RemoveFavoriteApp(name, appID)
	if err != nil {
		return err
	}
	if removed {
		if _, displayed := m.mapper.SlotDisplaying(name); displayed {
			if err := m.desktop.SetFavoriteAppIDs(ctx, m.bridge.ExportFavorites(workset.FavoriteApps)); err != nil {
				return fmt.Errorf("failed to push favorites: %w", err)
			}
		}
	}
	return m.commit("remove favorite app")
}

// SetBackgroundImage updates a workset's background from a file chooser
// result, pushing it live when displayed.
func (m *Manager) SetBackgroundImage(ctx context.Context, name, chosenPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	workset, ok := m.registry.Get(name)
	if !ok {
		return fmt.Errorf("%w: %q", types.ErrNotFound, name)
	}
	if err := m.sync.SetBackgroundImage(ctx, workset, chosenPath); err != nil {
		return err
	}
	return m.commit("set background image")
}

// SaveWorkset writes a workset's document to envbackups/env-<Name>.json
// for explicit export and returns the path.
func (m *Manager) SaveWorkset(name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	workset, ok := m.registry.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", types.ErrNotFound, name)
	}
	path := paths.EnvFile(m.configDir, name)
	if err := m.store.Save(path, workset); err != nil {
		return "", fmt.Errorf("failed to save workset: %w", err)
	}
	m.notifier.Show("Environment saved to "+path, false, 0)
	return path, nil
}

// ImportWorkset loads a workset document from a file into the session.
func (m *Manager) ImportWorkset(path string) (*types.Workset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var workset types.Workset
	if err := m.store.Load(path, &workset); err != nil {
		return nil, err
	}
	if err := m.registry.Add(&workset); err != nil {
		return nil, err
	}
	if err := m.commit("import workset"); err != nil {
		return nil, err
	}
	m.notifier.Show("Loaded "+workset.Name+" from file and added to active session.", false, 0)
	return workset.Clone(), nil
}

// FavoritesChanged refreshes the displayed workset's pinned apps from
// the desktop's favorites list. The presentation layer calls it on the
// desktop's favorites-changed signal.
func (m *Manager) FavoritesChanged(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	active, err := m.desktop.ActiveWorkspace(ctx)
	if err != nil {
		return fmt.Errorf("failed to read active workspace: %w", err)
	}
	name := m.mapper.CurrentFor(active)
	if name == "" {
		return nil
	}
	workset, ok := m.registry.Get(name)
	if !ok {
		return nil
	}

	favorites, err := m.importCurrentFavorites(ctx)
	if err != nil {
		return err
	}
	workset.FavoriteApps = favorites
	return m.commit("favorites changed")
}

// document assembles the persistable session from component state.
// Callers hold the mutex.
func (m *Manager) document() *types.Session {
	return &types.Session{
		Name:         m.name,
		Options:      m.options,
		Worksets:     m.registry.List(),
		WorkspaceMap: m.mapper.Snapshot(),
	}
}

// commit persists the session and notifies listeners. Every mutating
// operation ends here; a failed flush surfaces as the operation's error.
// Callers hold the mutex.
func (m *Manager) commit(op string) error {
	if err := m.store.Save(paths.SessionFile(m.configDir), m.document()); err != nil {
		m.log.Error("failed to persist session", zap.String("op", op), zap.Error(err))
		return fmt.Errorf("failed to persist session: %w", err)
	}
	if m.metrics != nil {
		m.metrics.SessionSaves.Inc()
		m.metrics.WorksetsActive.Set(float64(len(m.registry.List())))
	}
	m.log.Debug("session persisted", zap.String("op", op))
	for _, l := range m.listeners {
		l()
	}
	return nil
}

// loadFrom reads a session document and installs it, sanitizing the
// workset list and healing stale map references. Callers hold the mutex.
func (m *Manager) loadFrom(path string) error {
	var doc types.Session
	if err := m.store.Load(path, &doc); err != nil {
		return err
	}

	if utils.ValidateSessionName(doc.Name) != nil {
		doc.Name = "Default"
	}
	m.name = doc.Name
	m.options = doc.Options
	m.registry.Reset(doc.Worksets)
	m.mapper.Reset(doc.WorkspaceMap)
	m.mapper.Reconcile(m.registry.NameSet())

	if m.metrics != nil {
		m.metrics.SessionLoads.Inc()
	}
	return nil
}

// loadOrBootstrap loads a document, degrading to a fresh environment
// bootstrap when it is missing or corrupt. Callers hold the mutex.
func (m *Manager) loadOrBootstrap(ctx context.Context, path string) error {
	err := m.loadFrom(path)
	if err == nil {
		return m.commit("load session")
	}

	var parseErr *store.ParseError
	if errors.Is(err, store.ErrNotFound) || errors.As(err, &parseErr) {
		m.log.Warn("session document unusable, bootstrapping", zap.Error(err))
		if m.metrics != nil {
			m.metrics.SessionBootstrap.Inc()
		}
		return m.bootstrap(ctx, true)
	}
	return err
}

// bootstrap replaces the in-memory session with a freshly created one.
// Callers hold the mutex.
func (m *Manager) bootstrap(ctx context.Context, fromEnvironment bool) error {
	m.name = "Default"
	m.options = types.DefaultOptions()

	workset := &types.Workset{FavoriteApps: []types.AppRef{}}
	if fromEnvironment {
		workset.Name = "Primary"
		workset.Favorite = true

		favorites, err := m.importCurrentFavorites(ctx)
		if err != nil {
			return err
		}
		workset.FavoriteApps = favorites

		background, err := m.desktop.Wallpaper(ctx)
		if err != nil {
			return fmt.Errorf("failed to read wallpaper: %w", err)
		}
		workset.BackgroundImagePath = background
	} else {
		workset.Name = "New"
	}

	m.registry.Reset([]*types.Workset{workset})
	m.mapper.Reset(map[int]*types.SlotAssignment{
		0: {DefaultWorkset: workset.Name, CurrentWorkset: workset.Name},
	})
	return m.commit("bootstrap session")
}

// importCurrentFavorites resolves the desktop's favorites list into app
// records. Callers hold the mutex.
func (m *Manager) importCurrentFavorites(ctx context.Context) ([]types.AppRef, error) {
	ids, err := m.desktop.FavoriteAppIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read favorites: %w", err)
	}
	favorites, err := m.bridge.ImportFavorites(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve favorites: %w", err)
	}
	return favorites, nil
}
