package omr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/scorelift/scorelift/pkg/cache"
	"github.com/scorelift/scorelift/pkg/errors"
	"github.com/scorelift/scorelift/pkg/observability"
)

// Pool defaults.
const (
	// DefaultWorkers bounds concurrent engine processes. The engine is
	// memory-hungry; two per machine is the safe default.
	DefaultWorkers = 2

	// DefaultStagger is the minimum delay between engine launches, which
	// keeps model loading from landing on the machine all at once.
	DefaultStagger = 5 * time.Second
)

// JobState tracks a page job through the pool.
type JobState string

const (
	JobPending JobState = "pending"
	JobRunning JobState = "running"
	JobCached  JobState = "cached"
	JobDone    JobState = "done"
	JobFailed  JobState = "failed"
)

// Job is one page's trip through the engine.
type Job struct {
	ID       string
	Page     int
	Image    string
	Fragment string
	State    JobState
	Err      error
	Started  time.Time
	Finished time.Time
}

// Pool runs page recognitions through a bounded set of workers with a
// fixed stagger between engine launches, collecting a per-page result for
// each. Cached pages bypass the engine entirely.
type Pool struct {
	Engine   Engine
	Workers  int
	Stagger  time.Duration
	Cache    cache.Cache
	Keyer    cache.Keyer
	Logger   *log.Logger
	OnUpdate func(Job) // optional; called after every job state change

	mu         sync.Mutex
	jobs       []*Job
	nextLaunch time.Time
}

// NewPool creates a pool with defaults applied. A nil cache disables
// caching.
func NewPool(engine Engine, c cache.Cache, logger *log.Logger) *Pool {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Pool{
		Engine:  engine,
		Workers: DefaultWorkers,
		Stagger: DefaultStagger,
		Cache:   c,
		Keyer:   cache.NewDefaultKeyer(),
		Logger:  logger,
	}
}

// Run recognizes every image into per-page directories under dir and
// returns one result per page, in page order. Pages that fail leave their
// jobs in JobFailed; Run keeps going so one bad page surfaces alongside
// the good ones, then reports the failure count.
func (p *Pool) Run(ctx context.Context, images []string, dir string) ([]Job, error) {
	if len(images) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyInput, "no page images to recognize")
	}

	p.mu.Lock()
	p.jobs = make([]*Job, len(images))
	for i, img := range images {
		p.jobs[i] = &Job{ID: uuid.NewString(), Page: i + 1, Image: img, State: JobPending}
	}
	p.nextLaunch = time.Now()
	p.mu.Unlock()

	workers := p.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	work := make(chan *Job)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range work {
				p.runJob(ctx, job, dir)
			}
		}()
	}

feed:
	for _, job := range p.jobs {
		select {
		case work <- job:
		case <-ctx.Done():
			break feed
		}
	}
	close(work)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return p.Snapshot(), err
	}

	results := p.Snapshot()
	failed := 0
	for _, j := range results {
		if j.State == JobFailed {
			failed++
		}
	}
	if failed > 0 {
		return results, errors.New(errors.ErrCodeEngineFailed, "%d of %d pages failed recognition", failed, len(results))
	}
	return results, nil
}

// Snapshot returns a copy of the current job table.
func (p *Pool) Snapshot() []Job {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Job, len(p.jobs))
	for i, j := range p.jobs {
		out[i] = *j
	}
	return out
}

// runJob drives one page: cache probe, staggered engine launch, cache
// fill.
func (p *Pool) runJob(ctx context.Context, job *Job, dir string) {
	pageDir := filepath.Join(dir, fmt.Sprintf("page_%02d", job.Page))

	key, cachedOK := p.probeCache(ctx, job, pageDir)
	if cachedOK {
		return
	}

	if !p.awaitLaunchSlot(ctx) {
		p.update(job, func(j *Job) {
			j.State = JobFailed
			j.Err = ctx.Err()
		})
		return
	}

	p.update(job, func(j *Job) {
		j.State = JobRunning
		j.Started = time.Now()
	})
	observability.Stage().OnStageStart(ctx, "recognize", job.Image)

	frag, err := p.Engine.Recognize(ctx, job.Image, pageDir)

	p.update(job, func(j *Job) {
		j.Finished = time.Now()
		if err != nil {
			j.State = JobFailed
			j.Err = err
		} else {
			j.State = JobDone
			j.Fragment = frag
		}
	})
	observability.Stage().OnStageComplete(ctx, "recognize", job.Image, time.Since(job.Started), err)

	if err != nil {
		p.Logger.Error("page recognition failed", "page", job.Page, "err", err)
		return
	}
	if key != "" {
		if data, readErr := os.ReadFile(frag); readErr == nil {
			_ = p.Cache.Set(ctx, key, data, cache.TTLRecognition)
			observability.Cache().OnCacheSet(ctx, "omr", len(data))
		}
	}
}

// probeCache checks for a cached fragment and, on a hit, materializes it
// into the page directory. Returns the cache key for a later fill.
func (p *Pool) probeCache(ctx context.Context, job *Job, pageDir string) (key string, ok bool) {
	imageHash, err := cache.HashFile(job.Image)
	if err != nil {
		p.update(job, func(j *Job) {
			j.State = JobFailed
			j.Err = errors.Wrap(errors.ErrCodeFileNotFound, err, "page image %s", job.Image)
		})
		return "", true // terminal; no launch
	}
	key = p.Keyer.RecognitionKey(imageHash, p.Engine.Name())

	data, hit, err := p.Cache.Get(ctx, key)
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, "omr")
		return key, false
	}
	observability.Cache().OnCacheHit(ctx, "omr")

	if err := os.MkdirAll(pageDir, 0755); err != nil {
		return key, false
	}
	frag := filepath.Join(pageDir, "score.musicxml")
	if err := os.WriteFile(frag, data, 0644); err != nil {
		return key, false
	}

	p.update(job, func(j *Job) {
		j.State = JobCached
		j.Fragment = frag
		j.Finished = time.Now()
	})
	p.Logger.Debug("page served from cache", "page", job.Page)
	return key, true
}

// awaitLaunchSlot reserves the next launch time and sleeps until it.
// Returns false when the context is cancelled first.
func (p *Pool) awaitLaunchSlot(ctx context.Context) bool {
	stagger := p.Stagger

	p.mu.Lock()
	slot := p.nextLaunch
	if now := time.Now(); slot.Before(now) {
		slot = now
	}
	p.nextLaunch = slot.Add(stagger)
	p.mu.Unlock()

	wait := time.Until(slot)
	if wait <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// update mutates a job under the pool lock and notifies OnUpdate.
func (p *Pool) update(job *Job, fn func(*Job)) {
	p.mu.Lock()
	fn(job)
	snapshot := *job
	p.mu.Unlock()
	if p.OnUpdate != nil {
		p.OnUpdate(snapshot)
	}
}
