package agentrt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/newsroom-systems/chief/pkg/eventlog"
	"github.com/newsroom-systems/chief/pkg/ids"
	"github.com/newsroom-systems/chief/pkg/metrics"
	"github.com/newsroom-systems/chief/pkg/store"
	"github.com/newsroom-systems/chief/pkg/taskqueue"
	"github.com/newsroom-systems/chief/pkg/worker"
)

// Config controls a Runner's pacing, mirroring the teacher's
// config.QueueConfig poll/heartbeat knobs.
type Config struct {
	PollInterval      time.Duration
	HeartbeatInterval time.Duration
}

// Runner is the generic agent loop of spec.md §4.5: register, then
// repeatedly claim-execute-complete-or-fail for one role, heartbeating
// throughout, until Stop is called.
type Runner struct {
	agentID string
	role    string

	queue    *taskqueue.Queue
	registry *Registry
	events   *eventlog.Log
	handler  worker.Handler
	cfg      Config

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	log *slog.Logger
}

// NewRunner creates a Runner for role, claiming and executing through
// handler, under a freshly minted agent id.
func NewRunner(st *store.Store, role string, handler worker.Handler, cfg Config) *Runner {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = 30 * time.Second
	}
	return &Runner{
		agentID:  ids.NewAgentID(),
		role:     role,
		queue:    taskqueue.New(st),
		registry: NewRegistry(st),
		events:   eventlog.New(st),
		handler:  handler,
		cfg:      cfg,
		stopCh:   make(chan struct{}),
		log:      slog.With("component", "agentrt", "role", role),
	}
}

// AgentID returns the runner's registered agent id.
func (r *Runner) AgentID() string { return r.agentID }

// Start registers the agent and launches the poll loop, which also
// refreshes the heartbeat every HeartbeatInterval, in a background
// goroutine.
func (r *Runner) Start(ctx context.Context) error {
	if err := r.registry.Register(ctx, r.agentID, r.role); err != nil {
		return fmt.Errorf("registering agent: %w", err)
	}

	r.log = r.log.With("agent_id", r.agentID)
	r.log.Info("agent started")

	r.wg.Add(1)
	go r.run(ctx)
	return nil
}

// Stop signals the loop to exit, waits for it to finish, and emits a
// final offline heartbeat. Safe to call multiple times.
func (r *Runner) Stop(ctx context.Context) {
	r.stopOnce.Do(func() { close(r.stopCh) })
	r.wg.Wait()
	if err := r.registry.Heartbeat(ctx, r.agentID, "offline"); err != nil {
		r.log.Warn("final heartbeat failed", "error", err)
	}
	r.log.Info("agent stopped")
}

func (r *Runner) run(ctx context.Context) {
	defer r.wg.Done()

	lastBeat := time.Now()
	for {
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		if time.Since(lastBeat) >= r.cfg.HeartbeatInterval {
			if err := r.registry.Heartbeat(ctx, r.agentID, AgentStatusIdle); err != nil {
				r.log.Warn("heartbeat failed", "error", err)
			}
			lastBeat = time.Now()
		}

		task, err := r.queue.Claim(ctx, r.agentID, r.role)
		if err != nil {
			if errors.Is(err, taskqueue.ErrNoTaskAvailable) {
				r.sleep(r.cfg.PollInterval)
				continue
			}
			r.log.Error("claim failed", "error", err)
			r.sleep(time.Second)
			continue
		}

		metrics.TasksClaimedTotal.WithLabelValues(r.role, task.Stage).Inc()
		r.execute(ctx, task)
	}
}

// execute runs the task execution contract of spec.md §4.5 steps 1-5.
func (r *Runner) execute(ctx context.Context, task *taskqueue.Task) {
	log := r.log.With("task_id", task.TaskID, "story_id", task.StoryID, "stage", task.Stage)

	if err := r.registry.Heartbeat(ctx, r.agentID, AgentStatusWorking); err != nil {
		log.Warn("heartbeat failed", "error", err)
	}
	defer func() {
		if err := r.registry.Heartbeat(ctx, r.agentID, AgentStatusIdle); err != nil {
			log.Warn("heartbeat failed", "error", err)
		}
	}()

	output, err := r.handler.Handle(ctx, task)
	agentID := r.agentID

	if err != nil {
		if ferr := r.queue.Fail(ctx, task.TaskID, err.Error()); ferr != nil {
			log.Error("fail transition failed", "error", ferr)
			return
		}
		if _, aerr := r.events.Append(ctx, task.StoryID, eventlog.FailedEventType(task.Stage),
			map[string]any{"task_id": task.TaskID, "error": err.Error()}, &agentID); aerr != nil {
			log.Error("event append failed", "error", aerr)
		}
		metrics.TasksFailedTotal.WithLabelValues(task.Stage).Inc()
		log.Warn("task execution failed", "error", err)
		return
	}

	if cerr := r.queue.Complete(ctx, task.TaskID, output); cerr != nil {
		log.Error("complete transition failed", "error", cerr)
		return
	}
	if _, aerr := r.events.Append(ctx, task.StoryID, eventlog.CompletedEventType(task.Stage),
		map[string]any{"task_id": task.TaskID, "output": output}, &agentID); aerr != nil {
		log.Error("event append failed", "error", aerr)
	}
	metrics.TasksCompletedTotal.WithLabelValues(task.Stage).Inc()
	log.Info("task execution completed")
}

func (r *Runner) sleep(d time.Duration) {
	select {
	case <-r.stopCh:
	case <-time.After(d):
	}
}
