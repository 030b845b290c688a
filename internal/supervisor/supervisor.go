package supervisor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"mcphost/internal/api"
	"mcphost/pkg/logging"

	"golang.org/x/sync/errgroup"
)

// DefaultGracePeriod is how long StopServer waits after SIGTERM before killing.
const DefaultGracePeriod = 5 * time.Second

// Options configures a Supervisor.
type Options struct {
	// ConfigPath is the servers file.
	ConfigPath string
	// GracePeriod defaults to DefaultGracePeriod.
	GracePeriod time.Duration
	// SkillRunner wraps script files into servers; DefaultSkillRunner() when empty.
	SkillRunner SkillRunner
}

// Supervisor owns the tool server processes of one gateway and the servers file
// describing them. A gateway constructs exactly one and hands it to everything
// that needs to start, stop or look up servers.
type Supervisor struct {
	store  *Store
	grace  time.Duration
	runner SkillRunner

	mu        sync.RWMutex
	processes map[string]*ProcessRecord
	nameLocks map[string]*sync.Mutex
	stops     map[string]*stopState
}

// stopState counts the stops of one server. seq grows with every stop that
// begins; active is the number still in progress.
type stopState struct {
	seq    uint64
	active int
}

// New creates a Supervisor and makes sure the servers file exists.
func New(opts Options) (*Supervisor, error) {
	store, err := NewStore(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	grace := opts.GracePeriod
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	runner := opts.SkillRunner
	if runner.Command == "" {
		runner = DefaultSkillRunner()
	}

	return &Supervisor{
		store:     store,
		grace:     grace,
		runner:    runner,
		processes: make(map[string]*ProcessRecord),
		nameLocks: make(map[string]*sync.Mutex),
		stops:     make(map[string]*stopState),
	}, nil
}

// Store exposes the servers file.
func (s *Supervisor) Store() *Store {
	return s.store
}

// LoadConfig returns the persisted servers document; never fails.
func (s *Supervisor) LoadConfig() *ConfigDocument {
	return s.store.Load()
}

// SaveConfig replaces the persisted servers document.
func (s *Supervisor) SaveConfig(doc *ConfigDocument) error {
	return s.store.Save(doc)
}

// ConfiguredServer returns the persisted spec of name.
func (s *Supervisor) ConfiguredServer(name string) (ServerSpec, bool) {
	spec, ok := s.store.Load().Servers[name]
	if !ok {
		return ServerSpec{}, false
	}
	return spec.clone(), true
}

// StartServer records spec as the launch description of name, marks it running
// in the servers file and spawns it. The file is written before the spawn so the
// operator's intent survives a crash right after it.
//
// Starting a server that is already running returns the existing record.
// Spawn failures are returned as *ProcessLifecycleError and leave no record behind.
func (s *Supervisor) StartServer(ctx context.Context, name string, spec ServerSpec) (*ProcessRecord, error) {
	if err := spec.Validate(name); err != nil {
		return nil, err
	}

	lock := s.nameLock(name)
	lock.Lock()
	defer lock.Unlock()

	return s.startLocked(ctx, name, spec)
}

// EnsureServer returns the running process of name and starts it from the
// servers file when there is none. It never undoes a stop: when a StopServer
// or DeleteServer of name is in progress, or began while EnsureServer waited
// for the server, an *api.NotFoundError is returned and nothing is started.
func (s *Supervisor) EnsureServer(ctx context.Context, name string) (*ProcessRecord, error) {
	seq, stopping := s.stopStatus(name)
	if stopping {
		return nil, serverStoppedError(name)
	}

	lock := s.nameLock(name)
	lock.Lock()
	defer lock.Unlock()

	if record := s.Process(name); record != nil && record.Running() {
		return record, nil
	}
	if now, stopping := s.stopStatus(name); stopping || now != seq {
		return nil, serverStoppedError(name)
	}

	spec, ok := s.ConfiguredServer(name)
	if !ok {
		return nil, api.NewServerNotFoundError(name)
	}
	if err := spec.Validate(name); err != nil {
		return nil, err
	}
	return s.startLocked(ctx, name, spec)
}

func serverStoppedError(name string) error {
	return api.NewNotFoundErrorWithMessage("server", name, fmt.Sprintf("server %s is being stopped", name))
}

// startLocked persists and spawns name. The caller holds the name lock.
func (s *Supervisor) startLocked(ctx context.Context, name string, spec ServerSpec) (*ProcessRecord, error) {
	err := s.store.Update(func(doc *ConfigDocument) error {
		entry, ok := doc.Servers[name]
		if !ok {
			stored := spec.clone()
			entry = &stored
			doc.Servers[name] = entry
		}
		entry.Command = spec.Command
		entry.Args = append([]string(nil), spec.Args...)
		entry.Env = spec.clone().Env
		entry.Cwd = spec.Cwd
		entry.AutoStart = entry.AutoStart || spec.AutoStart
		entry.LastStatus = StatusRunning
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist server %s: %w", name, err)
	}

	if existing := s.Process(name); existing != nil {
		if existing.Running() {
			logging.Warn("Supervisor", "Server %s is already running (pid %d)", name, existing.PID())
			return existing, nil
		}
		s.forget(existing)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	expanded, err := expandSpec(spec, templateData{Name: name, ConfigDir: filepath.Dir(s.store.Path())})
	if err != nil {
		return nil, err
	}

	logging.Info("Supervisor", "Starting server %s: %s %v", name, expanded.Command, expanded.Args)
	record, err := spawnProcess(name, expanded, s.forget)
	if err != nil {
		lifecycleErr := &ProcessLifecycleError{Server: name, Command: expanded.Command, Err: err}
		logging.Error("Supervisor", lifecycleErr, "Failed to start server %s", name)
		return nil, lifecycleErr
	}

	s.mu.Lock()
	s.processes[name] = record
	s.mu.Unlock()

	logging.Info("Supervisor", "Server %s started with pid %d", name, record.PID())
	return record, nil
}

// StopServer marks name stopped in the servers file and terminates its process,
// if any. Stopping a server that is not running is not an error.
func (s *Supervisor) StopServer(ctx context.Context, name string) error {
	done := s.beginStop(name)
	defer done()

	err := s.store.Update(func(doc *ConfigDocument) error {
		if entry, ok := doc.Servers[name]; ok {
			entry.LastStatus = StatusStopped
		}
		return nil
	})
	if err != nil {
		logging.Error("Supervisor", err, "Failed to record stopped status for %s", name)
	}

	return s.Release(ctx, name)
}

// Release terminates the process of name without touching the servers file.
// It is used when a process has to be replaced and at gateway shutdown, where
// the recorded intent must survive for the next start.
func (s *Supervisor) Release(ctx context.Context, name string) error {
	lock := s.nameLock(name)
	lock.Lock()
	defer lock.Unlock()

	record := s.Process(name)
	if record == nil {
		return nil
	}

	err := record.Stop(ctx, s.grace)
	s.forget(record)
	return err
}

// DeleteServer stops name and removes it from the servers file.
func (s *Supervisor) DeleteServer(ctx context.Context, name string) error {
	_, configured := s.ConfiguredServer(name)
	if !configured && s.Process(name) == nil {
		return api.NewServerNotFoundError(name)
	}

	done := s.beginStop(name)
	defer done()

	if err := s.Release(ctx, name); err != nil {
		logging.Warn("Supervisor", "Stopping %s before delete failed: %v", name, err)
	}

	err := s.store.Update(func(doc *ConfigDocument) error {
		delete(doc.Servers, name)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete server %s: %w", name, err)
	}
	logging.Info("Supervisor", "Deleted server %s", name)
	return nil
}

// Shutdown stops every tracked process concurrently.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	names := s.ProcessNames()
	if len(names) == 0 {
		return nil
	}
	logging.Info("Supervisor", "Shutting down %d server(s)", len(names))

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	for _, name := range names {
		g.Go(func() error {
			if err := s.Release(ctx, name); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

// beginStop marks a stop of name in progress until the returned func runs.
func (s *Supervisor) beginStop(name string) func() {
	s.mu.Lock()
	state, ok := s.stops[name]
	if !ok {
		state = &stopState{}
		s.stops[name] = state
	}
	state.seq++
	state.active++
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		state.active--
		s.mu.Unlock()
	}
}

func (s *Supervisor) stopStatus(name string) (seq uint64, stopping bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if state, ok := s.stops[name]; ok {
		return state.seq, state.active > 0
	}
	return 0, false
}

// Process returns the live record of name, or nil.
func (s *Supervisor) Process(name string) *ProcessRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.processes[name]
}

// ProcessNames returns a sorted snapshot of the names with a running process.
func (s *Supervisor) ProcessNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.processes))
	for name, record := range s.processes {
		if record.Running() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// LastActiveServers returns the configured servers whose last recorded status is running.
func (s *Supervisor) LastActiveServers() []string {
	doc := s.store.Load()
	var names []string
	for name, spec := range doc.Servers {
		if spec.LastStatus == StatusRunning {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// RestoreLastActive starts every server that was running when the gateway last
// stopped. Failures are logged; the started names are returned.
func (s *Supervisor) RestoreLastActive(ctx context.Context) []string {
	var started []string
	for _, name := range s.LastActiveServers() {
		spec, ok := s.ConfiguredServer(name)
		if !ok {
			continue
		}
		if _, err := s.StartServer(ctx, name, spec); err != nil {
			logging.Error("Supervisor", err, "Failed to restore server %s", name)
			continue
		}
		started = append(started, name)
	}
	if len(started) > 0 {
		logging.Info("Supervisor", "Restored %d server(s): %v", len(started), started)
	}
	return started
}

// States lists every configured or running server with its runtime state.
func (s *Supervisor) States() []ServerState {
	doc := s.store.Load()

	s.mu.RLock()
	seen := make(map[string]bool, len(doc.Servers)+len(s.processes))
	var states []ServerState
	for name, spec := range doc.Servers {
		seen[name] = true
		states = append(states, s.stateLocked(name, spec.clone()))
	}
	for name, record := range s.processes {
		if seen[name] {
			continue
		}
		states = append(states, s.stateLocked(name, ServerSpec{Command: record.Command, Args: record.Args}))
	}
	s.mu.RUnlock()

	sort.Slice(states, func(i, j int) bool { return states[i].Name < states[j].Name })
	return states
}

func (s *Supervisor) stateLocked(name string, spec ServerSpec) ServerState {
	state := ServerState{Name: name, Spec: spec}
	if record, ok := s.processes[name]; ok && record.Running() {
		started := record.StartedAt()
		state.Running = true
		state.PID = record.PID()
		state.StartedAt = &started
	}
	return state
}

// forget drops record from the table if it is still the current one for its name.
func (s *Supervisor) forget(record *ProcessRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.processes[record.Name]; ok && current == record {
		delete(s.processes, record.Name)
	}
}

func (s *Supervisor) nameLock(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.nameLocks[name]
	if !ok {
		lock = &sync.Mutex{}
		s.nameLocks[name] = lock
	}
	return lock
}
