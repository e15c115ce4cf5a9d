package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/custodia-labs/vigil-cli/internal/core/domain"
	"github.com/custodia-labs/vigil-cli/internal/core/ports/driven"
	"github.com/custodia-labs/vigil-cli/internal/core/ports/driving"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// taskHistoryLimit is how many task results the store keeps per task.
const taskHistoryLimit = 100

// Scheduler manages background task execution.
// It is a pure core service with no external control API.
type Scheduler struct {
	config   domain.SchedulerConfig
	store    driven.SchedulerStore
	ingestor driving.IngestOrchestrator
	log      zerolog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler with configuration.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	ingestor driving.IngestOrchestrator,
	log zerolog.Logger,
) *Scheduler {
	return &Scheduler{
		config:   config,
		store:    store,
		ingestor: ingestor,
		log:      log,
	}
}

// Start begins the scheduler loop. This method blocks until Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	// Initialise tasks in store
	if err := s.initialiseTasks(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to initialise scheduled tasks")
	}

	// Run the main scheduler loop
	return s.run(ctx)
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	// Wait for running tasks to complete
	s.wg.Wait()

	return nil
}

// initialiseTasks ensures all configured tasks exist in the store.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	if taskCfg := s.config.GetTaskConfig(domain.TaskIDStandardsFetch); taskCfg.Enabled {
		if err := s.ensureTask(ctx, domain.TaskIDStandardsFetch, "Standards Fetch", taskCfg); err != nil {
			return err
		}
	}

	return nil
}

// ensureTask creates or updates a task in the store.
func (s *Scheduler) ensureTask(ctx context.Context, id, name string, cfg domain.TaskConfig) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	if task == nil {
		// Create new task
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     name,
			Interval: cfg.Interval,
			Enabled:  cfg.Enabled,
			NextRun:  time.Now().Add(cfg.Interval),
		}
	} else {
		// Update interval if changed
		if task.Interval != cfg.Interval {
			task.Interval = cfg.Interval
			// Recalculate next run from now
			task.NextRun = time.Now().Add(cfg.Interval)
		}
		task.Enabled = cfg.Enabled
	}

	return s.store.SaveTask(ctx, task)
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) error {
	// Check for due tasks immediately on startup
	s.checkAndRunDueTasks(ctx)

	// Use a 1-minute ticker to check for due tasks
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx)
		}
	}
}

// checkAndRunDueTasks finds and executes tasks that are due.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to list scheduled tasks")
		return
	}

	now := time.Now()
	for i := range tasks {
		task := &tasks[i]
		if !task.Enabled {
			continue
		}
		if task.NextRun.IsZero() || task.NextRun.Before(now) || task.NextRun.Equal(now) {
			s.runTask(ctx, task)
		}
	}
}

// runTask executes a single task.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		result := &domain.TaskResult{
			TaskID:    task.ID,
			StartedAt: time.Now(),
		}

		var err error
		switch task.ID {
		case domain.TaskIDStandardsFetch:
			result.ItemsProcessed, err = s.runStandardsFetch(ctx)
		default:
			s.log.Warn().Str("task_id", task.ID).Msg("unknown task")
			return
		}

		result.EndedAt = time.Now()
		if err != nil {
			result.Success = false
			result.Error = err.Error()
			task.LastError = err.Error()
			s.log.Warn().Str("task_id", task.ID).Err(err).Msg("task failed")
		} else {
			result.Success = true
			task.LastError = ""
			task.LastSuccess = result.EndedAt
			s.log.Info().
				Str("task_id", task.ID).
				Int("items", result.ItemsProcessed).
				Dur("elapsed", result.EndedAt.Sub(result.StartedAt)).
				Msg("task complete")
		}

		// Update task state
		task.LastRun = result.StartedAt
		task.NextRun = result.EndedAt.Add(task.Interval)

		if saveErr := s.store.SaveTask(ctx, task); saveErr != nil {
			s.log.Warn().Str("task_id", task.ID).Err(saveErr).Msg("failed to save task")
		}

		// Record result for history
		if recordErr := s.store.RecordResult(ctx, result); recordErr != nil {
			s.log.Warn().Str("task_id", task.ID).Err(recordErr).Msg("failed to record task result")
		}

		// Prune old history
		if pruneErr := s.store.PruneHistory(ctx, taskHistoryLimit); pruneErr != nil {
			s.log.Warn().Err(pruneErr).Msg("failed to prune task history")
		}
	}()
}

// runStandardsFetch runs one ingest cycle over all configured sources.
func (s *Scheduler) runStandardsFetch(ctx context.Context) (int, error) {
	if s.ingestor == nil {
		return 0, nil
	}

	status, err := s.ingestor.RunCycle(ctx)
	if err != nil {
		return 0, err
	}
	return status.DocumentsProcessed, nil
}
