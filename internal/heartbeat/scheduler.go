// ABOUTME: Heartbeat scheduler that periodically computes per-agent work summaries
// ABOUTME: Beats run in independent goroutines so one slow agent never delays the rest

package heartbeat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/2389/taskboard/internal/store"
)

// DefaultInterval is used when the configured interval is zero.
const DefaultInterval = 30 * time.Second

// WorkSummary is what a heartbeat computes for one agent: the pending work
// that decides whether the agent should wake up.
type WorkSummary struct {
	AgentID             string
	AgentName           string
	UnreadNotifications int
	AssignedOpenTasks   int
	RecentActivity      int // activity feed entries since the previous heartbeat
	Status              string
	GeneratedAt         time.Time
}

// Callback receives each completed work summary. It runs on the beat's own
// goroutine; a slow or panicking callback only affects its agent's beat.
type Callback func(WorkSummary)

// Scheduler wakes every known agent on a fixed interval. Each beat reads the
// agent's pending work, stamps last_heartbeat, flips status between active
// and idle, and hands the summary to the callback.
type Scheduler struct {
	store    store.Store
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup
	cb      Callback

	agentMu    sync.Mutex
	agentLocks map[string]*sync.Mutex
}

// NewScheduler creates a stopped scheduler. Pass nil logger for default.
func NewScheduler(s store.Store, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		store:      s,
		interval:   interval,
		logger:     logger.With("component", "heartbeat"),
		agentLocks: make(map[string]*sync.Mutex),
	}
}

// Start begins the tick loop. Starting a running scheduler is a no-op.
func (s *Scheduler) Start(cb Callback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.cb = cb
	s.stop = make(chan struct{})

	s.wg.Add(1)
	go s.run(s.stop)
	s.logger.Info("scheduler started", "interval", s.interval)
}

// Stop halts the tick loop and waits for in-flight beats to run to
// completion; the stop signal never cancels a beat's store calls. No
// callback runs after Stop returns. Stopping a stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	close(s.stop)
	s.wg.Wait()
	s.running = false
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) run(stop <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick fans one beat goroutine out per agent. Beats run on a background
// context so a concurrent Stop lets them finish. Storage failures are
// logged and retried on the next natural tick, never propagated.
func (s *Scheduler) tick() {
	ctx := context.Background()

	agents, err := s.store.ListAgents(ctx)
	if err != nil {
		s.logger.Error("heartbeat tick failed to list agents", "error", err)
		return
	}

	for _, agent := range agents {
		s.wg.Add(1)
		go func(agentID string) {
			defer s.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("heartbeat panicked", "agent_id", agentID, "panic", r)
				}
			}()

			summary, err := s.beat(ctx, agentID)
			if err != nil {
				s.logger.Warn("heartbeat failed", "agent_id", agentID, "error", err)
				return
			}
			if s.cb != nil {
				s.cb(*summary)
			}
		}(agent.ID)
	}
}

// TriggerHeartbeat runs one agent's beat immediately and returns the summary
// without involving the timer or the callback. Safe to call concurrently
// with a scheduled tick for the same agent.
func (s *Scheduler) TriggerHeartbeat(ctx context.Context, agentID string) (*WorkSummary, error) {
	return s.beat(ctx, agentID)
}

// beat computes a single consistent work summary for one agent. The
// per-agent lock keeps a triggered beat and a scheduled beat from
// interleaving their read-compute-save sequences.
func (s *Scheduler) beat(ctx context.Context, agentID string) (*WorkSummary, error) {
	unlock := s.lockAgent(agentID)
	defer unlock()

	agent, err := s.store.GetAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}

	unread, err := s.store.CountUnreadNotifications(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("counting unread: %w", err)
	}
	open, err := s.store.CountOpenTasksForAgent(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("counting open tasks: %w", err)
	}
	recent, err := s.store.CountActivities(ctx, store.ActivityFilter{Since: agent.LastHeartbeat})
	if err != nil {
		return nil, fmt.Errorf("counting activity: %w", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	status := store.AgentStatusIdle
	if unread > 0 {
		status = store.AgentStatusActive
	}
	agent.Status = status
	agent.LastHeartbeat = &now
	if err := s.store.UpdateAgent(ctx, agent); err != nil {
		return nil, fmt.Errorf("saving heartbeat: %w", err)
	}

	return &WorkSummary{
		AgentID:             agent.ID,
		AgentName:           agent.Name,
		UnreadNotifications: unread,
		AssignedOpenTasks:   open,
		RecentActivity:      recent,
		Status:              status,
		GeneratedAt:         now,
	}, nil
}

func (s *Scheduler) lockAgent(agentID string) func() {
	s.agentMu.Lock()
	m, ok := s.agentLocks[agentID]
	if !ok {
		m = &sync.Mutex{}
		s.agentLocks[agentID] = m
	}
	s.agentMu.Unlock()

	m.Lock()
	return m.Unlock
}
