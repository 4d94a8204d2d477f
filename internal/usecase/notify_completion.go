package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/runoshun/agent-dispatch/internal/domain"
)

// NotifyStage names the stages of one notifier run.
type NotifyStage string

// Notifier stages. SKIPPED and END are terminal.
const (
	StageDedupCheck NotifyStage = "DEDUP_CHECK"
	StageSkipped    NotifyStage = "SKIPPED"
	StageCollect    NotifyStage = "COLLECT"
	StageFormat     NotifyStage = "FORMAT"
	StageDeliver    NotifyStage = "DELIVER"
	StagePersist    NotifyStage = "PERSIST"
	StageWake       NotifyStage = "WAKE"
	StageEnd        NotifyStage = "END"
)

// Delivery channels.
const (
	ChannelPrimary = "primary"
	ChannelGroup   = "group"
	ChannelDM      = "dm"
)

// Delivery results.
const (
	DeliverySent    = "sent"
	DeliveryFailed  = "failed"
	DeliverySkipped = "skipped"
)

// unknownKey is the dedup key used when no task id can be resolved.
const unknownKey = "unknown"

// NotifyOptions tunes the notifier. Zero values fall back to defaults.
// Fields are ordered to minimize memory padding.
type NotifyOptions struct {
	TestPredicates  []domain.LinePredicate // Ordered line predicates for the test excerpt
	Channel         string                 // Channel kind passed to the messenger
	DedupWindow     time.Duration
	FreshnessWindow time.Duration
	SettleDelay     time.Duration // Wait before collecting when triggered externally
	CaptureTail     int
	OutputExcerpt   int
	TestLines       int
	ChangedFiles    bool
}

// NotifyOptionsFromConfig builds options from the [notify] and [report] sections.
func NotifyOptionsFromConfig(cfg *domain.Config) NotifyOptions {
	return NotifyOptions{
		TestPredicates:  domain.KeywordPredicates(cfg.Report.TestKeywords),
		Channel:         cfg.Notify.Channel,
		DedupWindow:     cfg.Notify.DedupWindow,
		FreshnessWindow: cfg.Notify.FreshnessWindow,
		SettleDelay:     cfg.Notify.SettleDelay,
		CaptureTail:     cfg.Notify.CaptureTail,
		OutputExcerpt:   cfg.Notify.OutputExcerpt,
		TestLines:       cfg.Report.TestLines,
		ChangedFiles:    cfg.Report.ChangedFiles,
	}
}

func (o NotifyOptions) withDefaults() NotifyOptions {
	if o.DedupWindow <= 0 {
		o.DedupWindow = domain.DefaultDedupWindow
	}
	if o.FreshnessWindow <= 0 {
		o.FreshnessWindow = domain.DefaultFreshnessWindow
	}
	if o.CaptureTail <= 0 {
		o.CaptureTail = domain.DefaultCaptureTail
	}
	if o.OutputExcerpt <= 0 {
		o.OutputExcerpt = domain.DefaultOutputExcerpt
	}
	if o.TestLines <= 0 {
		o.TestLines = domain.DefaultTestLines
	}
	if o.TestPredicates == nil {
		o.TestPredicates = domain.KeywordPredicates(domain.DefaultTestKeywords)
	}
	if o.Channel == "" {
		o.Channel = domain.DefaultNotifyChannel
	}
	return o
}

// NotifyCompletionInput contains the parameters for one notifier run.
type NotifyCompletionInput struct {
	TaskID     string // Optional; the current task when empty
	SkipSettle bool   // Set when the caller already drained the capture
}

// Delivery is the outcome of one delivery attempt.
type Delivery struct {
	Err     error
	Channel string
	Target  string
	Result  string
}

// NotifyCompletionOutput reports how far the run got.
// Fields are ordered to minimize memory padding.
type NotifyCompletionOutput struct {
	Result      *domain.ResultRecord
	PendingWake *domain.PendingWakeRecord
	Report      domain.Report
	Deliveries  []Delivery
	TaskID      string
	Stage       NotifyStage // Final stage reached
}

// NotifyCompletion is the use case that reports a finished task.
// It runs DEDUP_CHECK, COLLECT, FORMAT, DELIVER, PERSIST and WAKE in order.
// Only persistence failures are returned as errors.
// Fields are ordered to minimize memory padding.
type NotifyCompletion struct {
	tasks     domain.TaskRepository
	captures  domain.CaptureStore
	results   domain.ResultRepository
	gate      domain.DedupGate
	messenger domain.Messenger
	waker     domain.WakeSignaler
	files     domain.FileLister
	changes   domain.ChangeLister
	metrics   domain.Metrics
	clock     domain.Clock
	logger    domain.Logger
	sleep     func(context.Context, time.Duration) error
	opts      NotifyOptions
}

// NotifyDeps groups the collaborators of NotifyCompletion.
// Changes, Waker and Metrics may be nil.
type NotifyDeps struct {
	Tasks     domain.TaskRepository
	Captures  domain.CaptureStore
	Results   domain.ResultRepository
	Gate      domain.DedupGate
	Messenger domain.Messenger
	Waker     domain.WakeSignaler
	Files     domain.FileLister
	Changes   domain.ChangeLister
	Metrics   domain.Metrics
	Clock     domain.Clock
	Logger    domain.Logger
}

// NewNotifyCompletion creates a new NotifyCompletion use case.
func NewNotifyCompletion(deps NotifyDeps, opts NotifyOptions) *NotifyCompletion {
	return &NotifyCompletion{
		tasks:     deps.Tasks,
		captures:  deps.Captures,
		results:   deps.Results,
		gate:      deps.Gate,
		messenger: deps.Messenger,
		waker:     deps.Waker,
		files:     deps.Files,
		changes:   deps.Changes,
		metrics:   deps.Metrics,
		clock:     deps.Clock,
		logger:    deps.Logger,
		sleep:     sleepContext,
		opts:      opts.withDefaults(),
	}
}

// Execute runs the notifier once.
func (uc *NotifyCompletion) Execute(ctx context.Context, in NotifyCompletionInput) (*NotifyCompletionOutput, error) {
	out := &NotifyCompletionOutput{}
	defer uc.finish(out)

	id, err := resolveTaskID(uc.tasks, in.TaskID)
	if err != nil {
		uc.logger.Warn("", "notify", fmt.Sprintf("no task to report: %v", err))
		id = ""
	}
	out.TaskID = id

	// DEDUP_CHECK
	out.Stage = StageDedupCheck
	key := id
	if key == "" {
		key = unknownKey
	}
	acquired, err := uc.gate.TryAcquire(key, uc.opts.DedupWindow, uc.clock.Now())
	switch {
	case err != nil:
		uc.logger.Warn(id, "notify", fmt.Sprintf("dedup check failed, proceeding: %v", err))
	case !acquired:
		uc.logger.Info(id, "notify", fmt.Sprintf("duplicate trigger within %s, skipping", uc.opts.DedupWindow))
		out.Stage = StageSkipped
		return out, nil
	}

	if !in.SkipSettle && uc.opts.SettleDelay > 0 {
		if err := uc.sleep(ctx, uc.opts.SettleDelay); err != nil {
			uc.logger.Warn(id, "notify", fmt.Sprintf("settle wait interrupted: %v", err))
		}
	}

	// COLLECT
	out.Stage = StageCollect
	record, capture := uc.collect(id)

	// FORMAT
	out.Stage = StageFormat
	out.Report = uc.format(id, record, capture)

	// DELIVER
	out.Stage = StageDeliver
	var recipients domain.Recipients
	if record != nil {
		recipients = record.Recipients
	}
	out.Deliveries = uc.deliver(ctx, id, out.Report, recipients)

	// PERSIST
	out.Stage = StagePersist
	now := uc.clock.Now()
	timestamp := now.Format(domain.TimestampLayout)
	out.Result = &domain.ResultRecord{
		Timestamp: timestamp,
		TaskID:    id,
		TaskName:  out.Report.TaskName,
		Recipient: recipients.Primary,
		ExitCode:  out.Report.ExitCode,
		Duration:  out.Report.Duration,
		Outcome:   string(out.Report.Outcome()),
		Output:    out.Report.OutputTail,
		Status:    domain.ResultMarkerDone,
	}
	if err := uc.results.SaveResult(out.Result); err != nil {
		uc.logger.Error(id, "notify", fmt.Sprintf("persist result: %v", err))
		return out, fmt.Errorf("persist result: %w", err)
	}
	out.PendingWake = &domain.PendingWakeRecord{
		TaskID:    id,
		TaskName:  out.Report.TaskName,
		Recipient: recipients.Primary,
		Timestamp: timestamp,
		Summary:   out.Report.StatusLine(),
	}
	if err := uc.results.SavePendingWake(out.PendingWake); err != nil {
		uc.logger.Error(id, "notify", fmt.Sprintf("persist pending wake: %v", err))
		return out, fmt.Errorf("persist pending wake: %w", err)
	}

	// WAKE
	out.Stage = StageWake
	uc.wake(ctx, id, out.Report.WakeText(recipients.Primary, timestamp))

	out.Stage = StageEnd
	return out, nil
}

// collect loads the record and capture. A missing, unreadable or stale
// record yields nil.
func (uc *NotifyCompletion) collect(id string) (*domain.TaskRecord, string) {
	if id == "" {
		return nil, ""
	}

	capture, err := uc.captures.ReadTail(id, uc.opts.CaptureTail)
	if err != nil {
		uc.logger.Warn(id, "notify", fmt.Sprintf("read capture: %v", err))
		capture = ""
	}

	record, modTime, err := uc.tasks.GetWithModTime(id)
	if err != nil {
		uc.logger.Warn(id, "notify", fmt.Sprintf("read task record: %v", err))
		return nil, capture
	}
	if domain.IsStale(modTime, uc.clock.Now(), uc.opts.FreshnessWindow) {
		uc.logger.Warn(id, "notify", fmt.Sprintf("task record older than %s, ignoring", uc.opts.FreshnessWindow))
		return nil, capture
	}
	return record, capture
}

func (uc *NotifyCompletion) format(id string, record *domain.TaskRecord, capture string) domain.Report {
	report := domain.Report{
		TaskName:   domain.UnknownTaskName,
		OutputTail: domain.TailRunes(capture, uc.opts.OutputExcerpt),
		TestLines: domain.LineExtractor{
			Predicates: uc.opts.TestPredicates,
			Keep:       uc.opts.TestLines,
		}.Extract(capture),
	}
	if record == nil {
		return report
	}

	report.TaskName = record.Name
	report.ExitCode = record.ExitCode
	report.WorkingDirectory = record.WorkingDirectory
	if d, ok := record.Duration(); ok {
		report.Duration = domain.FormatDuration(d)
	}

	if record.WorkingDirectory == "" {
		return report
	}
	if uc.files != nil {
		files, err := uc.files.List(record.WorkingDirectory)
		if err != nil {
			uc.logger.Warn(id, "notify", fmt.Sprintf("list files: %v", err))
		}
		report.Files = files
	}
	if uc.changes != nil && uc.opts.ChangedFiles {
		changed, err := uc.changes.Changed(record.WorkingDirectory)
		if err != nil {
			uc.logger.Warn(id, "notify", fmt.Sprintf("list changed files: %v", err))
		}
		report.ChangedFiles = changed
	}
	return report
}

func (uc *NotifyCompletion) deliver(ctx context.Context, id string, report domain.Report, r domain.Recipients) []Delivery {
	if r.IsEmpty() {
		uc.logger.Info(id, "deliver", "no recipients configured, nothing to send")
		return nil
	}
	if !uc.messenger.Available() {
		uc.logger.Warn(id, "deliver", "no messaging transport configured, skipping delivery")
		return nil
	}

	if r.Primary == "" {
		uc.logger.Info(id, "deliver", "no primary recipient configured, skipping delivery")
		return nil
	}

	deliveries := []Delivery{uc.send(ctx, id, ChannelPrimary, domain.Message{
		Channel: uc.opts.Channel,
		Target:  r.Primary,
		Body:    report.Full(),
	})}

	switch {
	case r.CallbackGroup == "":
	case r.CallbackGroup == r.Primary:
		uc.logger.Info(id, "deliver", "callback group equals primary recipient, short status not sent")
		deliveries = append(deliveries, Delivery{Channel: ChannelGroup, Target: r.CallbackGroup, Result: DeliverySkipped})
	default:
		deliveries = append(deliveries, uc.send(ctx, id, ChannelGroup, domain.Message{
			Channel: uc.opts.Channel,
			Target:  r.CallbackGroup,
			Body:    report.StatusLine(),
		}))
	}

	if r.CallbackDM != "" {
		deliveries = append(deliveries, uc.send(ctx, id, ChannelDM, domain.Message{
			Channel: uc.opts.Channel,
			Target:  r.CallbackDM,
			Body:    report.StatusLine(),
			Account: r.DMAccount,
		}))
	}
	return deliveries
}

func (uc *NotifyCompletion) send(ctx context.Context, id, channel string, msg domain.Message) Delivery {
	d := Delivery{Channel: channel, Target: msg.Target, Result: DeliverySent}
	if err := uc.messenger.Send(ctx, msg); err != nil {
		d.Err = err
		d.Result = DeliveryFailed
		uc.logger.Error(id, "deliver", fmt.Sprintf("%s to %s failed: %v", channel, msg.Target, err))
	} else {
		uc.logger.Info(id, "deliver", fmt.Sprintf("%s sent to %s", channel, msg.Target))
	}
	if uc.metrics != nil {
		uc.metrics.ObserveDelivery(channel, d.Result)
	}
	return d
}

func (uc *NotifyCompletion) wake(ctx context.Context, id, text string) {
	if uc.waker == nil {
		return
	}
	err := uc.waker.Signal(ctx, domain.WakeSignal{Text: text})
	switch {
	case err == nil:
		uc.logger.Info(id, "wake", "wake signal dispatched")
	case errors.Is(err, domain.ErrNoToken):
		uc.logger.Info(id, "wake", "no wake token configured, skipping")
	default:
		uc.logger.Warn(id, "wake", fmt.Sprintf("wake signal failed: %v", err))
	}
}

// finish records the final stage. Metrics export failures are only logged.
func (uc *NotifyCompletion) finish(out *NotifyCompletionOutput) {
	uc.logger.Info(out.TaskID, "notify", fmt.Sprintf("finished at stage %s", out.Stage))
	if uc.metrics == nil {
		return
	}
	uc.metrics.ObserveRun(strings.ToLower(string(out.Stage)))
	if err := uc.metrics.Flush(); err != nil {
		uc.logger.Warn(out.TaskID, "metrics", fmt.Sprintf("flush metrics: %v", err))
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
