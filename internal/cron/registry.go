package cron

import "context"

// Job is one housekeeping task run by the cron worker.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry tracks registered cron jobs in registration order.
type Registry struct {
	jobs []Job
}

// NewRegistry builds a registry preloaded with the provided jobs.
func NewRegistry(jobs ...Job) *Registry {
	registry := &Registry{}
	for _, job := range jobs {
		registry.Register(job)
	}
	return registry
}

// Register adds a job. Nil jobs and duplicate names are ignored.
func (r *Registry) Register(job Job) {
	if job == nil {
		return
	}
	if _, exists := r.Lookup(job.Name()); exists {
		return
	}
	r.jobs = append(r.jobs, job)
}

// Lookup finds a job by name.
func (r *Registry) Lookup(name string) (Job, bool) {
	for _, job := range r.jobs {
		if job.Name() == name {
			return job, true
		}
	}
	return nil, false
}

// Only returns a registry restricted to the named jobs, skipping unknown names.
func (r *Registry) Only(names ...string) *Registry {
	filtered := NewRegistry()
	for _, name := range names {
		if job, ok := r.Lookup(name); ok {
			filtered.Register(job)
		}
	}
	return filtered
}

// Jobs returns the registered jobs in the order they were added.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, len(r.jobs))
	copy(jobs, r.jobs)
	return jobs
}
