// Package testutil provides shared test utilities and mock implementations.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/runoshun/agent-dispatch/internal/domain"
)

// MockClock is a test double for domain.Clock.
type MockClock struct {
	NowTime time.Time
}

// Now returns the configured time.
func (m *MockClock) Now() time.Time {
	return m.NowTime
}

// Advance moves the clock forward by d.
func (m *MockClock) Advance(d time.Duration) {
	m.NowTime = m.NowTime.Add(d)
}

// MockTaskRepository is a test double for domain.TaskRepository.
// Records saved through Save get ModTime set from Clock when one is attached.
// Fields are ordered to minimize memory padding.
type MockTaskRepository struct {
	Records    map[string]*domain.TaskRecord
	ModTimes   map[string]time.Time
	Clock      domain.Clock
	SaveErr    error
	GetErr     error
	CurrentErr error
	CurrentID  string
	SaveCount  int
}

// Ensure MockTaskRepository implements domain.TaskRepository interface.
var _ domain.TaskRepository = (*MockTaskRepository)(nil)

// NewMockTaskRepository creates a new MockTaskRepository with initialized maps.
func NewMockTaskRepository() *MockTaskRepository {
	return &MockTaskRepository{
		Records:  make(map[string]*domain.TaskRecord),
		ModTimes: make(map[string]time.Time),
	}
}

// Get retrieves a copy of a record by ID.
func (m *MockTaskRepository) Get(id string) (*domain.TaskRecord, error) {
	rec, _, err := m.GetWithModTime(id)
	return rec, err
}

// GetWithModTime retrieves a copy of a record and its recorded modification time.
func (m *MockTaskRepository) GetWithModTime(id string) (*domain.TaskRecord, time.Time, error) {
	if m.GetErr != nil {
		return nil, time.Time{}, m.GetErr
	}
	rec, ok := m.Records[id]
	if !ok {
		return nil, time.Time{}, fmt.Errorf("%s: %w", id, domain.ErrTaskNotFound)
	}
	cp := *rec
	return &cp, m.ModTimes[id], nil
}

// Save stores a copy of the record.
func (m *MockTaskRepository) Save(record *domain.TaskRecord) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	cp := *record
	m.Records[record.ID] = &cp
	if m.Clock != nil {
		m.ModTimes[record.ID] = m.Clock.Now()
	}
	m.SaveCount++
	return nil
}

// Update applies fn to a copy of the stored record and saves it.
func (m *MockTaskRepository) Update(id string, fn func(*domain.TaskRecord) error) (*domain.TaskRecord, error) {
	rec, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	if err := fn(rec); err != nil {
		return nil, err
	}
	if err := m.Save(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// SetCurrent records id as current.
func (m *MockTaskRepository) SetCurrent(id string) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.CurrentID = id
	return nil
}

// Current returns the current ID.
func (m *MockTaskRepository) Current() (string, error) {
	if m.CurrentErr != nil {
		return "", m.CurrentErr
	}
	if m.CurrentID == "" {
		return "", domain.ErrTaskNotFound
	}
	return m.CurrentID, nil
}

// MockCaptureStore is a test double for domain.CaptureStore backed by memory.
type MockCaptureStore struct {
	Captures map[string]*bytes.Buffer
	OpenErr  error
	ReadErr  error
}

// Ensure MockCaptureStore implements domain.CaptureStore interface.
var _ domain.CaptureStore = (*MockCaptureStore)(nil)

// NewMockCaptureStore creates a new MockCaptureStore.
func NewMockCaptureStore() *MockCaptureStore {
	return &MockCaptureStore{Captures: make(map[string]*bytes.Buffer)}
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// OpenWriter returns a writer appending to the in-memory capture.
func (m *MockCaptureStore) OpenWriter(id string) (io.WriteCloser, error) {
	if m.OpenErr != nil {
		return nil, m.OpenErr
	}
	buf, ok := m.Captures[id]
	if !ok {
		buf = &bytes.Buffer{}
		m.Captures[id] = buf
	}
	return nopCloser{buf}, nil
}

// ReadTail returns the last limit runes of the capture.
func (m *MockCaptureStore) ReadTail(id string, limit int) (string, error) {
	if m.ReadErr != nil {
		return "", m.ReadErr
	}
	buf, ok := m.Captures[id]
	if !ok {
		return "", nil
	}
	if limit <= 0 {
		return buf.String(), nil
	}
	return domain.TailRunes(buf.String(), limit), nil
}

// Path returns a fake path.
func (m *MockCaptureStore) Path(id string) string {
	return "/captures/" + id + "/output.log"
}

// MockResultRepository is a test double for domain.ResultRepository.
// Fields are ordered to minimize memory padding.
type MockResultRepository struct {
	Result        *domain.ResultRecord
	PendingWake   *domain.PendingWakeRecord
	SaveResultErr error
	SaveWakeErr   error
	ResultWrites  int
	WakeWrites    int
}

// Ensure MockResultRepository implements domain.ResultRepository interface.
var _ domain.ResultRepository = (*MockResultRepository)(nil)

// SaveResult overwrites the stored result.
func (m *MockResultRepository) SaveResult(result *domain.ResultRecord) error {
	if m.SaveResultErr != nil {
		return m.SaveResultErr
	}
	cp := *result
	m.Result = &cp
	m.ResultWrites++
	return nil
}

// SavePendingWake overwrites the stored pending wake record.
func (m *MockResultRepository) SavePendingWake(wake *domain.PendingWakeRecord) error {
	if m.SaveWakeErr != nil {
		return m.SaveWakeErr
	}
	cp := *wake
	m.PendingWake = &cp
	m.WakeWrites++
	return nil
}

// LoadResult returns the stored result or ErrNoResult.
func (m *MockResultRepository) LoadResult() (*domain.ResultRecord, error) {
	if m.Result == nil {
		return nil, domain.ErrNoResult
	}
	return m.Result, nil
}

// LoadPendingWake returns the stored pending wake record or ErrNoResult.
func (m *MockResultRepository) LoadPendingWake() (*domain.PendingWakeRecord, error) {
	if m.PendingWake == nil {
		return nil, domain.ErrNoResult
	}
	return m.PendingWake, nil
}

// MockDedupGate is an in-memory domain.DedupGate with real window semantics.
type MockDedupGate struct {
	Claims map[string]time.Time
	Err    error
}

// Ensure MockDedupGate implements domain.DedupGate interface.
var _ domain.DedupGate = (*MockDedupGate)(nil)

// NewMockDedupGate creates a new MockDedupGate.
func NewMockDedupGate() *MockDedupGate {
	return &MockDedupGate{Claims: make(map[string]time.Time)}
}

// TryAcquire claims key unless it was claimed less than window before now.
func (m *MockDedupGate) TryAcquire(key string, window time.Duration, now time.Time) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	if at, ok := m.Claims[key]; ok && now.Sub(at) < window {
		return false, nil
	}
	m.Claims[key] = now
	return true, nil
}

// MockCallbackRepository is a test double for domain.CallbackRepository.
type MockCallbackRepository struct {
	Callbacks map[string]*domain.Callback
	LoadErr   error
	SaveErr   error
}

// Ensure MockCallbackRepository implements domain.CallbackRepository interface.
var _ domain.CallbackRepository = (*MockCallbackRepository)(nil)

// NewMockCallbackRepository creates a new MockCallbackRepository.
func NewMockCallbackRepository() *MockCallbackRepository {
	return &MockCallbackRepository{Callbacks: make(map[string]*domain.Callback)}
}

// Load returns the callback of workDir or nil.
func (m *MockCallbackRepository) Load(workDir string) (*domain.Callback, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return m.Callbacks[workDir], nil
}

// Save validates and stores cb.
func (m *MockCallbackRepository) Save(workDir string, cb *domain.Callback) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if err := cb.Validate(); err != nil {
		return err
	}
	m.Callbacks[workDir] = cb
	return nil
}

// Clear removes the callback of workDir.
func (m *MockCallbackRepository) Clear(workDir string) error {
	delete(m.Callbacks, workDir)
	return nil
}

// MockMessenger is a test double for domain.Messenger.
// Errs maps a target to the error its send returns.
type MockMessenger struct {
	Errs       map[string]error
	Sent       []domain.Message
	AvailableV bool
}

// Ensure MockMessenger implements domain.Messenger interface.
var _ domain.Messenger = (*MockMessenger)(nil)

// NewMockMessenger creates an available messenger.
func NewMockMessenger() *MockMessenger {
	return &MockMessenger{AvailableV: true, Errs: make(map[string]error)}
}

// Available returns AvailableV.
func (m *MockMessenger) Available() bool {
	return m.AvailableV
}

// Send records msg and returns the configured error for its target.
func (m *MockMessenger) Send(_ context.Context, msg domain.Message) error {
	m.Sent = append(m.Sent, msg)
	return m.Errs[msg.Target]
}

// SentTo returns the messages sent to target.
func (m *MockMessenger) SentTo(target string) []domain.Message {
	var out []domain.Message
	for _, msg := range m.Sent {
		if msg.Target == target {
			out = append(out, msg)
		}
	}
	return out
}

// MockWakeSignaler is a test double for domain.WakeSignaler.
type MockWakeSignaler struct {
	Err     error
	Signals []domain.WakeSignal
}

// Ensure MockWakeSignaler implements domain.WakeSignaler interface.
var _ domain.WakeSignaler = (*MockWakeSignaler)(nil)

// Signal records sig.
func (m *MockWakeSignaler) Signal(_ context.Context, sig domain.WakeSignal) error {
	m.Signals = append(m.Signals, sig)
	return m.Err
}

// MockFileLister is a test double for domain.FileLister.
type MockFileLister struct {
	Err    error
	Files  []string
	Called []string
}

// Ensure MockFileLister implements domain.FileLister interface.
var _ domain.FileLister = (*MockFileLister)(nil)

// List returns Files.
func (m *MockFileLister) List(dir string) ([]string, error) {
	m.Called = append(m.Called, dir)
	return m.Files, m.Err
}

// MockChangeLister is a test double for domain.ChangeLister.
type MockChangeLister struct {
	Err     error
	Changes []string
}

// Ensure MockChangeLister implements domain.ChangeLister interface.
var _ domain.ChangeLister = (*MockChangeLister)(nil)

// Changed returns Changes.
func (m *MockChangeLister) Changed(string) ([]string, error) {
	return m.Changes, m.Err
}

// MockAgentRunner is a test double for domain.AgentRunner.
// It writes Output to the output writer and returns ExitCode.
// Fields are ordered to minimize memory padding.
type MockAgentRunner struct {
	Err      error
	Output   string
	Runs     []domain.AgentRun
	ExitCode int
}

// Ensure MockAgentRunner implements domain.AgentRunner interface.
var _ domain.AgentRunner = (*MockAgentRunner)(nil)

// Run records run and writes Output.
func (m *MockAgentRunner) Run(_ context.Context, run domain.AgentRun, output io.Writer) (domain.AgentResult, error) {
	m.Runs = append(m.Runs, run)
	if m.Err != nil {
		return domain.AgentResult{}, m.Err
	}
	if m.Output != "" {
		_, _ = io.WriteString(output, m.Output)
	}
	return domain.AgentResult{ExitCode: m.ExitCode}, nil
}

// LogEntry is one line recorded by MockLogger.
type LogEntry struct {
	Level    string
	TaskID   string
	Category string
	Msg      string
}

// MockLogger is a test double for domain.Logger.
type MockLogger struct {
	Entries []LogEntry
	mu      sync.Mutex
}

// Ensure MockLogger implements domain.Logger interface.
var _ domain.Logger = (*MockLogger)(nil)

// NewMockLogger creates a new MockLogger.
func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

func (m *MockLogger) log(level, taskID, category, msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, LogEntry{Level: level, TaskID: taskID, Category: category, Msg: msg})
}

// Info records an info entry.
func (m *MockLogger) Info(taskID, category, msg string) { m.log("INFO", taskID, category, msg) }

// Debug records a debug entry.
func (m *MockLogger) Debug(taskID, category, msg string) { m.log("DEBUG", taskID, category, msg) }

// Warn records a warn entry.
func (m *MockLogger) Warn(taskID, category, msg string) { m.log("WARN", taskID, category, msg) }

// Error records an error entry.
func (m *MockLogger) Error(taskID, category, msg string) { m.log("ERROR", taskID, category, msg) }

// Has reports whether an entry of level contains substr.
func (m *MockLogger) Has(level, substr string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Entries {
		if e.Level == level && strings.Contains(e.Msg, substr) {
			return true
		}
	}
	return false
}

// MockMetrics is a test double for domain.Metrics.
type MockMetrics struct {
	Runs       map[string]int
	Deliveries map[string]int // keyed by channel/result
	FlushErr   error
	Flushes    int
}

// Ensure MockMetrics implements domain.Metrics interface.
var _ domain.Metrics = (*MockMetrics)(nil)

// NewMockMetrics creates a new MockMetrics.
func NewMockMetrics() *MockMetrics {
	return &MockMetrics{Runs: make(map[string]int), Deliveries: make(map[string]int)}
}

// ObserveRun counts outcome.
func (m *MockMetrics) ObserveRun(outcome string) {
	m.Runs[outcome]++
}

// ObserveDelivery counts channel/result.
func (m *MockMetrics) ObserveDelivery(channel, result string) {
	m.Deliveries[channel+"/"+result]++
}

// Flush counts flushes.
func (m *MockMetrics) Flush() error {
	m.Flushes++
	return m.FlushErr
}

// MockConfigLoader is a test double for domain.ConfigLoader.
type MockConfigLoader struct {
	Config  *domain.Config
	LoadErr error
}

// Ensure MockConfigLoader implements domain.ConfigLoader interface.
var _ domain.ConfigLoader = (*MockConfigLoader)(nil)

// NewMockConfigLoader returns a loader yielding the default config.
func NewMockConfigLoader() *MockConfigLoader {
	return &MockConfigLoader{Config: domain.NewDefaultConfig()}
}

// Load returns Config.
func (m *MockConfigLoader) Load() (*domain.Config, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return m.Config, nil
}
