package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/KillerHyena/Inquiro/internal/domain"
	"github.com/KillerHyena/Inquiro/internal/infra"
	"github.com/KillerHyena/Inquiro/internal/providers/openai"
)

const (
	DefaultPollInterval   = time.Second
	DefaultTemperature    = 0.7
	DefaultMaxTokens      = 1500
	DefaultMaxInputLength = 5000
)

// Generator performs the upstream completion call.
type Generator interface {
	Generate(ctx context.Context, req openai.ChatRequest) (*openai.ChatResponse, error)
}

// PromptSource resolves the system prompt for a function.
type PromptSource interface {
	SystemPrompt(id domain.FunctionID, locale language.Tag) string
}

// Options wires a Dispatcher. Queue, Backoff and Rotator may be nil, in
// which case defaults are built (a nil Rotator makes every call fail with a
// configuration error).
type Options struct {
	Queue     *Queue
	Backoff   *Backoff
	Rotator   *Rotator
	Generator Generator
	Prompts   PromptSource

	Model          string
	Temperature    float64
	MaxTokens      int
	MaxInputLength int
	PollInterval   time.Duration
	// CallTimeout bounds each upstream call. Zero leaves calls unbounded.
	CallTimeout time.Duration

	Logger *infra.Logger
}

// Dispatcher owns the admission path and the single consumer loop.
type Dispatcher struct {
	queue     *Queue
	backoff   *Backoff
	rotator   *Rotator
	generator Generator
	prompts   PromptSource

	model          string
	temperature    float64
	maxTokens      int
	maxInputLength int
	pollInterval   time.Duration
	callTimeout    time.Duration

	logger    *infra.Logger
	deliverer *deliverer
	newID     func() string
	now       func() time.Time

	running  sync.Mutex
	shutdown sync.Once
}

// NewDispatcher builds a dispatcher and starts its delivery goroutine.
// Call Run to start consuming and Shutdown to release it.
func NewDispatcher(opts Options) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}
	d := &Dispatcher{
		queue:          opts.Queue,
		backoff:        opts.Backoff,
		rotator:        opts.Rotator,
		generator:      opts.Generator,
		prompts:        opts.Prompts,
		model:          opts.Model,
		temperature:    opts.Temperature,
		maxTokens:      opts.MaxTokens,
		maxInputLength: opts.MaxInputLength,
		pollInterval:   opts.PollInterval,
		callTimeout:    opts.CallTimeout,
		logger:         logger,
		deliverer:      newDeliverer(logger),
		newID:          uuid.NewString,
		now:            time.Now,
	}
	if d.queue == nil {
		d.queue = NewQueue(DefaultCapacity)
	}
	if d.backoff == nil {
		d.backoff = NewBackoff(BackoffConfig{})
	}
	if d.model == "" {
		d.model = openai.DefaultModel
	}
	if d.temperature == 0 {
		d.temperature = DefaultTemperature
	}
	if d.maxTokens <= 0 {
		d.maxTokens = DefaultMaxTokens
	}
	if d.maxInputLength <= 0 {
		d.maxInputLength = DefaultMaxInputLength
	}
	if d.pollInterval <= 0 {
		d.pollInterval = DefaultPollInterval
	}
	go d.deliverer.run()
	return d
}

// Enqueue validates a request and admits it. Unknown functions are rejected
// here rather than dispatched with a fallback prompt.
func (d *Dispatcher) Enqueue(functionID, input string, locale language.Tag, sink Sink) (Ticket, error) {
	fn, ok := domain.LookupFunction(functionID)
	if !ok {
		return Ticket{}, fmt.Errorf("%w: %q", domain.ErrUnknownFunction, functionID)
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return Ticket{}, domain.ErrEmptyInput
	}
	if n := utf8.RuneCountInString(input); n > d.maxInputLength {
		return Ticket{}, fmt.Errorf("%w: %d characters, maximum %d", domain.ErrInputTooLong, n, d.maxInputLength)
	}
	job := Job{
		ID:         d.newID(),
		Function:   fn.ID,
		Input:      input,
		Locale:     locale,
		EnqueuedAt: d.now(),
		sink:       sink,
	}
	position, err := d.queue.Enqueue(job)
	if err != nil {
		d.logger.Warn().
			Str("function", string(fn.ID)).
			Int("queue_size", d.queue.Len()).
			Msg("dispatch: queue full, request rejected")
		return Ticket{}, err
	}
	d.logger.Info().
		Str("request_id", job.ID).
		Str("function", string(fn.ID)).
		Int("queue_position", position).
		Msg("dispatch: request queued")
	return Ticket{ID: job.ID, Function: fn, Input: job.Input, Position: position, EnqueuedAt: job.EnqueuedAt}, nil
}

// Depth reports the number of queued jobs.
func (d *Dispatcher) Depth() int {
	return d.queue.Len()
}

// Capacity reports the queue capacity.
func (d *Dispatcher) Capacity() int {
	return d.queue.Cap()
}

// BackoffStatus reports the backoff controller state.
func (d *Dispatcher) BackoffStatus() BackoffStatus {
	return d.backoff.Status()
}

// Model reports the upstream model requested for every job.
func (d *Dispatcher) Model() string {
	return d.model
}

// Run consumes jobs until ctx is cancelled. Only one Run may be active.
// A call already in flight when ctx is cancelled completes and is delivered
// before Run returns.
func (d *Dispatcher) Run(ctx context.Context) error {
	if !d.running.TryLock() {
		return errors.New("dispatch: already running")
	}
	defer d.running.Unlock()

	d.logger.Info().
		Int("capacity", d.queue.Cap()).
		Str("model", d.model).
		Msg("dispatch: started")
	for {
		if err := ctx.Err(); err != nil {
			d.logger.Info().Msg("dispatch: stopping")
			return err
		}
		job, ok := d.queue.Dequeue(d.pollInterval)
		if !ok {
			continue
		}
		d.handle(ctx, job)
	}
}

func (d *Dispatcher) handle(ctx context.Context, job Job) {
	defer d.queue.Done()

	if wait := d.backoff.ShouldDelay(); wait > 0 {
		d.logger.Debug().
			Str("request_id", job.ID).
			Dur("delay", wait).
			Msg("dispatch: backing off")
		if !sleep(ctx, wait) {
			d.deliver(job, d.shutdownOutcome(job))
			return
		}
	}
	d.deliver(job, d.call(ctx, job))
}

func (d *Dispatcher) call(ctx context.Context, job Job) Outcome {
	if d.rotator == nil || d.generator == nil {
		return d.fatal(job, "No API credentials are configured.")
	}
	cred := d.rotator.Next()
	var systemPrompt string
	if d.prompts != nil {
		systemPrompt = d.prompts.SystemPrompt(job.Function, job.Locale)
	}

	callCtx := context.WithoutCancel(ctx)
	if d.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(callCtx, d.callTimeout)
		defer cancel()
	}

	start := d.now()
	res, err := d.generator.Generate(callCtx, openai.ChatRequest{
		APIKey:       cred.Key,
		SystemPrompt: systemPrompt,
		UserText:     job.Input,
		Model:        d.model,
		Temperature:  d.temperature,
		MaxTokens:    d.maxTokens,
	})
	latency := d.now().Sub(start)

	logEvent := func(e *zerolog.Event) *zerolog.Event {
		return e.Str("request_id", job.ID).
			Str("function", string(job.Function)).
			Int("credential", cred.Index).
			Dur("latency", latency)
	}

	switch {
	case err == nil:
		d.backoff.RecordSuccess()
		model := res.Model
		if model == "" {
			model = d.model
		}
		logEvent(d.logger.Info()).Str("model", model).Msg("dispatch: request completed")
		return Outcome{
			ID:          job.ID,
			Function:    job.Function,
			Kind:        OutcomeSuccess,
			Response:    strings.TrimSpace(res.Text),
			Model:       model,
			Latency:     latency,
			CompletedAt: d.now(),
		}
	case errors.Is(err, domain.ErrRateLimited), errors.Is(err, domain.ErrTransport),
		errors.Is(err, context.DeadlineExceeded):
		d.backoff.RecordFailure()
		delay := d.backoff.Status().CurrentDelay
		logEvent(d.logger.Warn()).Err(err).Dur("retry_after", delay).Msg("dispatch: upstream unavailable")
		return Outcome{
			ID:          job.ID,
			Function:    job.Function,
			Kind:        OutcomeRetry,
			Reason:      fmt.Sprintf("API rate limit exceeded. Please try again in %d seconds.", ceilSeconds(delay)),
			RetryAfter:  delay,
			CompletedAt: d.now(),
		}
	case errors.Is(err, domain.ErrModelNotFound):
		logEvent(d.logger.Error()).Err(err).Str("model", d.model).Msg("dispatch: model not available")
		return d.fatal(job, fmt.Sprintf("The model '%s' is not available. Please try a different model.", d.model))
	case errors.Is(err, domain.ErrConfiguration):
		logEvent(d.logger.Error()).Err(err).Msg("dispatch: upstream rejected configuration")
		return d.fatal(job, fmt.Sprintf("OpenAI API configuration error: %v", err))
	default:
		logEvent(d.logger.Error()).Err(err).Msg("dispatch: request failed")
		return d.fatal(job, fmt.Sprintf("OpenAI API error: %v", err))
	}
}

func (d *Dispatcher) fatal(job Job, reason string) Outcome {
	return Outcome{
		ID:          job.ID,
		Function:    job.Function,
		Kind:        OutcomeFatal,
		Reason:      reason,
		CompletedAt: d.now(),
	}
}

func (d *Dispatcher) shutdownOutcome(job Job) Outcome {
	return Outcome{
		ID:          job.ID,
		Function:    job.Function,
		Kind:        OutcomeRetry,
		Reason:      "The service is restarting. Please try again shortly.",
		CompletedAt: d.now(),
	}
}

func (d *Dispatcher) deliver(job Job, o Outcome) {
	if !d.deliverer.push(job.sink, o) {
		d.logger.Warn().Str("request_id", job.ID).Msg("dispatch: outcome dropped after shutdown")
	}
}

// Shutdown rejects jobs still waiting in the queue with a retryable outcome
// and waits for pending deliveries to flush, bounded by ctx. It must be
// called after Run has returned.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	var err error
	d.shutdown.Do(func() {
		rejected := 0
		for {
			job, ok := d.queue.Dequeue(0)
			if !ok {
				break
			}
			d.deliver(job, d.shutdownOutcome(job))
			d.queue.Done()
			rejected++
		}
		if rejected > 0 {
			d.logger.Warn().Int("rejected", rejected).Msg("dispatch: queued requests rejected on shutdown")
		}
		if err = d.deliverer.close(ctx); err != nil {
			d.logger.Error().Err(err).Int("backlog", d.deliverer.backlog()).Msg("dispatch: delivery drain timed out")
			return
		}
		d.logger.Info().Msg("dispatch: drained")
	})
	return err
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func ceilSeconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}
