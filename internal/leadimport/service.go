package leadimport

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RunPhase is the lifecycle stage of an import run.
type RunPhase string

const (
	PhaseRunning  RunPhase = "running"
	PhaseComplete RunPhase = "complete"
	PhaseFailed   RunPhase = "failed"
)

// ServiceConfig tunes run concurrency and lifetime.
type ServiceConfig struct {
	MaxConcurrent int
	MaxWait       time.Duration
	RunTimeout    time.Duration // per-run deadline for store calls
	Retention     time.Duration // how long finished runs stay queryable
	Table         MappingTable  // default mapping table; nil uses DefaultTable
	Logger        *slog.Logger  // nil uses slog.Default()
}

// Service starts import runs in the background and tracks their progress.
type Service struct {
	executor *Executor
	limiter  *ImportLimiter
	table    MappingTable
	logger   *slog.Logger
	cfg      ServiceConfig

	mu   sync.RWMutex
	runs map[string]*activeRun
}

type activeRun struct {
	id        string
	fileName  string
	mapping   Mapping
	startedAt time.Time
	done      chan struct{}

	mu        sync.Mutex
	phase     RunPhase
	progress  Progress
	report    *Report
	err       error
	listeners []chan Progress
}

// RunStatus is a point-in-time view of a run.
type RunStatus struct {
	ID        string        `json:"run_id"`
	FileName  string        `json:"file_name"`
	Phase     RunPhase      `json:"phase"`
	Progress  Progress      `json:"progress"`
	Percent   int           `json:"percent"`
	Mapping   []MappingPair `json:"mapping"`
	StartedAt time.Time     `json:"started_at"`
	Report    *Report       `json:"report,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// NewService creates a service writing through store.
func NewService(store LeadStore, cfg ServiceConfig) *Service {
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 10 * time.Minute
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 30 * time.Minute
	}
	table := cfg.Table
	if table == nil {
		table = DefaultTable
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		executor: NewExecutor(store, NewTransformer(), logger),
		limiter:  NewImportLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		table:    table,
		logger:   logger,
		cfg:      cfg,
		runs:     make(map[string]*activeRun),
	}
}

// Preview describes what an import of text would do before it starts.
type Preview struct {
	Headers   []string      `json:"headers"`
	Mapping   []MappingPair `json:"mapping"`
	Fields    []Field       `json:"fields"`
	TotalRows int           `json:"total_rows"`
}

// Preview checks the file preconditions and proposes the default mapping.
func (s *Service) Preview(text string) (*Preview, error) {
	headers, lines, err := ParseFile(text)
	if err != nil {
		return nil, err
	}
	return &Preview{
		Headers:   headers,
		Mapping:   s.table.MappingFor(headers).Pairs(),
		Fields:    Fields,
		TotalRows: len(lines),
	}, nil
}

// Start validates text and overrides, then runs the import in the
// background. Precondition failures are returned here and no run is created.
// Blocks while all import slots are busy, up to the limiter's wait time.
func (s *Service) Start(ctx context.Context, fileName, text string, overrides map[string]string) (string, error) {
	headers, _, err := ParseFile(text)
	if err != nil {
		return "", err
	}
	if err := checkOverrideColumns(headers, overrides); err != nil {
		return "", err
	}

	mapping, err := ApplyOverrides(s.table.MappingFor(headers), overrides)
	if err != nil {
		return "", err
	}
	if err := mapping.Validate(); err != nil {
		return "", err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return "", err
	}

	run := &activeRun{
		id:        uuid.New().String(),
		fileName:  fileName,
		mapping:   mapping,
		startedAt: time.Now(),
		done:      make(chan struct{}),
		phase:     PhaseRunning,
	}

	s.mu.Lock()
	s.runs[run.id] = run
	s.mu.Unlock()

	// the run outlives the request that started it
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.RunTimeout)

	go func() {
		defer s.limiter.Release()
		defer cancel()
		s.execute(runCtx, run, text)
	}()

	return run.id, nil
}

// checkOverrideColumns rejects overrides naming a column the header lacks.
// Such a mapping would fail every row.
func checkOverrideColumns(headers Headers, overrides map[string]string) error {
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, source := range keys {
		if !headers.Has(source) {
			return fmt.Errorf("mapping: %w: %q", ErrColumnNotFound, source)
		}
	}
	return nil
}

func (s *Service) execute(ctx context.Context, run *activeRun, text string) {
	logger := s.logger.With("run_id", run.id, "file", run.fileName)
	executor := &Executor{store: s.executor.store, transformer: s.executor.transformer, logger: logger}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic in import run", "panic", r)
			run.finish(nil, fmt.Errorf("internal error: %v", r))
		}
		s.cleanup(run.id, s.cfg.Retention)
	}()

	report, err := executor.Run(ctx, text, run.mapping, Hooks{
		OnProgress: run.setProgress,
	})
	if err != nil {
		logger.Error("import run failed", "error", err)
	}
	run.finish(report, err)
}

func (r *activeRun) setProgress(p Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.progress = p
	for _, ch := range r.listeners {
		select {
		case ch <- p:
		default:
			// slow listener, skip this update
		}
	}
}

func (r *activeRun) finish(report *Report, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	select {
	case <-r.done:
		return
	default:
	}

	r.report = report
	r.err = err
	r.phase = PhaseComplete
	if err != nil {
		r.phase = PhaseFailed
	}
	for _, ch := range r.listeners {
		close(ch)
	}
	r.listeners = nil
	close(r.done)
}

func (r *activeRun) status() RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := RunStatus{
		ID:        r.id,
		FileName:  r.fileName,
		Phase:     r.phase,
		Progress:  r.progress,
		Percent:   r.progress.Percent(),
		Mapping:   r.mapping.Pairs(),
		StartedAt: r.startedAt,
		Report:    r.report,
	}
	if r.err != nil {
		st.Error = r.err.Error()
	}
	return st
}

func (s *Service) get(runID string) (*activeRun, error) {
	s.mu.RLock()
	run, ok := s.runs[runID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, nil
}

// Subscribe returns a channel of progress updates for a run. The current
// progress is sent first; the channel is closed when the run finishes.
func (s *Service) Subscribe(runID string) (<-chan Progress, error) {
	run, err := s.get(runID)
	if err != nil {
		return nil, err
	}

	ch := make(chan Progress, 16)

	run.mu.Lock()
	defer run.mu.Unlock()

	ch <- run.progress
	select {
	case <-run.done:
		close(ch)
	default:
		run.listeners = append(run.listeners, ch)
	}
	return ch, nil
}

// Status returns a snapshot of a run without waiting.
func (s *Service) Status(runID string) (RunStatus, error) {
	run, err := s.get(runID)
	if err != nil {
		return RunStatus{}, err
	}
	return run.status(), nil
}

// Result blocks until the run finishes or ctx ends.
func (s *Service) Result(ctx context.Context, runID string) (RunStatus, error) {
	run, err := s.get(runID)
	if err != nil {
		return RunStatus{}, err
	}

	select {
	case <-run.done:
		return run.status(), nil
	case <-ctx.Done():
		return RunStatus{}, ctx.Err()
	}
}

// LimiterStatus reports import slot occupancy.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// Wait blocks until every running import finishes or ctx ends.
func (s *Service) Wait(ctx context.Context) error {
	return s.limiter.Drain(ctx)
}

// cleanup forgets a finished run after delay.
func (s *Service) cleanup(runID string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.runs, runID)
		s.mu.Unlock()
	})
}
