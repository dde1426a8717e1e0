package background

import (
	"context"
	"log"
	"sync"
	"time"

	"clawe/internal/agents"
	"clawe/internal/caching"
	"clawe/internal/repositories"

	"github.com/go-co-op/gocron/v2"
)

const presenceTTL = 5 * time.Minute

// JobScheduler manages background jobs
type JobScheduler struct {
	scheduler gocron.Scheduler
	cacheSvc  caching.CacheService
	agentRepo repositories.AgentRepository
	jobJobs   map[string]gocron.Job
	mu        sync.RWMutex
}

// NewJobScheduler creates a new job scheduler
func NewJobScheduler(cacheSvc caching.CacheService, agentRepo repositories.AgentRepository) *JobScheduler {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	js := &JobScheduler{
		scheduler: scheduler,
		cacheSvc:  cacheSvc,
		agentRepo: agentRepo,
		jobJobs:   make(map[string]gocron.Job),
	}

	js.registerJobs()

	return js
}

// Start starts the job scheduler
func (js *JobScheduler) Start() error {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
	return nil
}

// Stop stops the job scheduler
func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

// registerJobs registers all background jobs
func (js *JobScheduler) registerJobs() {
	// Presence refresh job - every minute
	presenceJob, err := js.scheduler.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(js.refreshAgentPresence, context.Background()),
		gocron.WithName("agent-presence-refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create presence refresh job: %v", err)
	} else {
		js.jobJobs["presence"] = presenceJob
	}

	log.Printf("Registered %d background jobs", len(js.jobJobs))
}

// refreshAgentPresence derives the online status of every agent from its
// last heartbeat and writes the snapshot to the cache.
func (js *JobScheduler) refreshAgentPresence(ctx context.Context) error {
	agentList, err := js.agentRepo.List(ctx)
	if err != nil {
		log.Printf("Failed to list agents for presence refresh: %v", err)
		return err
	}

	now := time.Now()
	presence := make(map[string]string, len(agentList))
	for _, agent := range agentList {
		presence[agent.AgentID] = string(agents.DeriveStatus(agent, now))
	}

	if err := js.cacheSvc.SetPresence(ctx, presence, presenceTTL); err != nil {
		log.Printf("Failed to cache agent presence: %v", err)
		return err
	}

	return nil
}

// AddJob adds a custom job to the scheduler
func (js *JobScheduler) AddJob(name string, interval time.Duration, taskFn interface{}, params ...interface{}) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	job, err := js.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(taskFn, params...),
		gocron.WithName(name),
	)

	if err != nil {
		return err
	}

	js.jobJobs[name] = job
	log.Printf("Added custom job: %s", name)
	return nil
}

// RemoveJob removes a job from the scheduler
func (js *JobScheduler) RemoveJob(name string) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	if job, exists := js.jobJobs[name]; exists {
		err := js.scheduler.RemoveJob(job.ID())
		delete(js.jobJobs, name)
		return err
	}

	return nil
}

// GetJobStatus returns information about scheduled jobs
func (js *JobScheduler) GetJobStatus() map[string]interface{} {
	js.mu.RLock()
	defer js.mu.RUnlock()

	status := make(map[string]interface{})
	status["total_jobs"] = len(js.jobJobs)
	jobs := make([]string, 0, len(js.jobJobs))

	for name := range js.jobJobs {
		jobs = append(jobs, name)
	}

	status["jobs"] = jobs

	return status
}
