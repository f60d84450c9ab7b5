// Package walker drives recursive neighbor discovery. An Engine seeds a
// shared walk queue, fans out a bounded pool of workers, and for each
// dequeued device connects, gathers facts, persists the walk, and feeds
// newly mentioned neighbors back into the queue until the frontier drains.
package walker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"netwalker/internal/boundary"
	"netwalker/internal/connector"
	"netwalker/internal/domain"
	"netwalker/internal/facts"
	"netwalker/internal/queue"
	"netwalker/internal/repository"
)

var ErrNoSeeds = errors.New("walker: at least one seed device is required")

// Seed is a starting point for the walk. Name is required; Address is
// dialed instead of Name when set.
type Seed struct {
	Name    string
	Address string
}

// Options configures a discovery run.
type Options struct {
	Seeds []Seed

	// MaxDepth bounds hop distance from the seeds. Devices mentioned
	// beyond it are recorded but never walked. Zero walks only the
	// seed devices; negative means unset.
	MaxDepth int

	// Concurrency is the number of devices walked in parallel.
	Concurrency int

	// DiscoveryTimeout bounds the whole run. Zero means no limit.
	DiscoveryTimeout time.Duration

	// ConnectTimeout applies to each connection attempt.
	ConnectTimeout time.Duration

	RetryAttempts int
	RetryBackoff  time.Duration

	Credentials connector.Credentials
	Boundary    boundary.Policy

	ExcludeCapabilities []string
	ExcludePlatforms    []string
}

func (o *Options) applyDefaults() {
	// Zero is a deliberate setting (walk only the seeds), so only a
	// negative MaxDepth falls back to the default.
	if o.MaxDepth < 0 {
		o.MaxDepth = 8
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 8
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 15 * time.Second
	}
	if o.RetryAttempts < 0 {
		o.RetryAttempts = 0
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
}

// Summary reports the outcome of a completed run.
type Summary struct {
	RunID    string
	Started  time.Time
	Duration time.Duration

	Walked          int
	Failed          int
	SkippedBoundary int
	SkippedDepth    int
	SkippedExcluded int

	// Total is every device the run saw, walked or not.
	Total int
}

// Engine walks a network breadth-first from the configured seeds.
type Engine struct {
	opts     Options
	repo     repository.Store
	conn     connector.Connector
	gatherer facts.Gatherer
	exclude  excludeFilter
	log      zerolog.Logger
}

func New(opts Options, repo repository.Store, conn connector.Connector, gatherer facts.Gatherer, log zerolog.Logger) (*Engine, error) {
	if len(opts.Seeds) == 0 {
		return nil, ErrNoSeeds
	}
	if err := opts.Boundary.Validate(); err != nil {
		return nil, err
	}
	opts.applyDefaults()

	return &Engine{
		opts:     opts,
		repo:     repo,
		conn:     conn,
		gatherer: gatherer,
		exclude:  newExcludeFilter(opts.ExcludeCapabilities, opts.ExcludePlatforms),
		log:      log,
	}, nil
}

// Run performs one discovery walk and blocks until the frontier drains,
// the discovery timeout fires, or ctx is cancelled. Partial results are
// left in the repository either way.
func (e *Engine) Run(ctx context.Context) (*Summary, error) {
	runID := uuid.New().String()
	started := time.Now()

	if e.opts.DiscoveryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.DiscoveryTimeout)
		defer cancel()
	}

	store := queue.NewStore()
	stop := context.AfterFunc(ctx, store.Shutdown)
	defer stop()

	log := e.log.With().Str("run_id", runID).Logger()
	log.Info().
		Int("seeds", len(e.opts.Seeds)).
		Int("max_depth", e.opts.MaxDepth).
		Int("concurrency", e.opts.Concurrency).
		Msg("starting discovery walk")

	for _, s := range e.opts.Seeds {
		addr := s.Address
		if addr == "" {
			// Dial exactly what was configured; Enqueue shortens the
			// display name.
			addr = s.Name
		}
		store.Enqueue(queue.Entry{Name: s.Name, Address: addr})
	}

	var wg sync.WaitGroup
	for i := 0; i < e.opts.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				entry, ok := store.Next()
				if !ok {
					return
				}
				e.walk(ctx, store, log, entry)
			}
		}()
	}
	wg.Wait()

	summary := summarize(runID, started, store.Counts())
	log.Info().
		Int("walked", summary.Walked).
		Int("failed", summary.Failed).
		Int("total", summary.Total).
		Dur("duration", summary.Duration).
		Msg("discovery walk complete")

	return summary, ctx.Err()
}

// walk processes one dequeued device end to end and always leaves its
// queue entry in a terminal state.
func (e *Engine) walk(ctx context.Context, store *queue.Store, log zerolog.Logger, entry *queue.Entry) {
	log = log.With().Str("device", entry.Name).Int("depth", entry.Depth).Logger()

	if e.exclude.Match(entry.Platform, entry.Capabilities) {
		store.Finish(entry.Key, domain.WalkStateSkippedExcluded)
		return
	}

	sess, err := e.connect(ctx, entry)
	if err != nil {
		// A run cut off mid-dial says nothing about the device; only a
		// diagnosed failure (retries exhausted with the run still live)
		// marks the row failed.
		if ctx.Err() != nil {
			log.Debug().Msg("run cancelled before device could be walked")
			return
		}
		log.Warn().Err(err).Msg("device unreachable, marking failed")
		if mErr := e.repo.MarkFailed(context.WithoutCancel(ctx), entry.Name); mErr != nil {
			log.Error().Err(mErr).Msg("failed to record unreachable device")
		}
		store.Finish(entry.Key, domain.WalkStateFailed)
		return
	}

	deviceFacts, failedCmds, err := e.gatherer.Gather(ctx, sess)
	sess.Close()

	if err != nil || deviceFacts.Hostname == "" {
		if ctx.Err() != nil {
			log.Debug().Msg("run cancelled before facts were gathered")
			return
		}
		log.Warn().Err(err).Msg("fact gathering failed, marking failed")
		if mErr := e.repo.MarkFailed(context.WithoutCancel(ctx), entry.Name); mErr != nil {
			log.Error().Err(mErr).Msg("failed to record unwalkable device")
		}
		store.Finish(entry.Key, domain.WalkStateFailed)
		return
	}
	if failedCmds > 0 {
		log.Debug().Int("failed_commands", failedCmds).Msg("gathered partial facts")
	}

	// A device seeded or discovered by address dequeues under that key.
	// Claim its canonical name too so neighbor mentions of the hostname
	// do not walk the same box twice.
	if key := deviceFacts.Key(); key != entry.Key {
		store.Skip(deviceFacts.Hostname, entry.Depth, entry.DiscoveredFrom, domain.WalkStateAlias)
	}

	atBoundary := e.opts.Boundary.IsBoundary(deviceFacts.Hostname)
	status := domain.DeviceStatusActive
	if atBoundary {
		status = domain.DeviceStatusBoundary
	}

	if _, _, err := e.repo.SaveWalk(ctx, &repository.Walk{Facts: deviceFacts, Status: status}); err != nil {
		log.Error().Err(err).Msg("persisting walk failed")
		store.Finish(entry.Key, domain.WalkStateFailed)
		return
	}

	if atBoundary {
		log.Info().Str("hostname", deviceFacts.Hostname).Msg("site boundary reached, not expanding")
		store.Finish(entry.Key, domain.WalkStateSkippedBoundary)
		return
	}

	e.expand(store, log, entry, deviceFacts)

	log.Info().
		Str("hostname", deviceFacts.Hostname).
		Int("neighbors", len(deviceFacts.Neighbors)).
		Msg("device walked")
	store.Finish(entry.Key, domain.WalkStateWalked)
}

// expand feeds a walked device's neighbors into the queue. Excluded and
// over-depth neighbors are terminally skipped without ever being dialed;
// their stub device rows were already written by SaveWalk.
func (e *Engine) expand(store *queue.Store, log zerolog.Logger, entry *queue.Entry, deviceFacts *domain.DeviceFacts) {
	depth := entry.Depth + 1
	for _, n := range deviceFacts.Neighbors {
		switch {
		case e.exclude.Match(n.Platform, n.Capabilities):
			store.Skip(n.DestName, depth, deviceFacts.Hostname, domain.WalkStateSkippedExcluded)
		case depth > e.opts.MaxDepth:
			store.Skip(n.DestName, depth, deviceFacts.Hostname, domain.WalkStateSkippedDepth)
		default:
			if _, added := store.Enqueue(queue.Entry{
				Name:           n.DestName,
				Address:        n.MgmtAddress,
				Depth:          depth,
				DiscoveredFrom: deviceFacts.Hostname,
				Platform:       n.Platform,
				Capabilities:   n.Capabilities,
			}); added {
				log.Debug().Str("neighbor", n.DestName).Int("depth", depth).Msg("neighbor queued")
			}
		}
	}
}

// connect dials the device with retries and linear backoff.
func (e *Engine) connect(ctx context.Context, entry *queue.Entry) (connector.Session, error) {
	addr := entry.Address
	if addr == "" {
		addr = entry.Name
	}

	var lastErr error
	for attempt := 0; attempt <= e.opts.RetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(e.opts.RetryBackoff * time.Duration(attempt)):
			}
		}

		sess, err := e.conn.Open(ctx, addr, e.opts.Credentials, e.opts.ConnectTimeout)
		if err == nil {
			return sess, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("connecting to %s after %d attempts: %w", addr, e.opts.RetryAttempts+1, lastErr)
}

func summarize(runID string, started time.Time, counts map[domain.WalkState]int) *Summary {
	s := &Summary{
		RunID:           runID,
		Started:         started,
		Duration:        time.Since(started),
		Walked:          counts[domain.WalkStateWalked],
		Failed:          counts[domain.WalkStateFailed],
		SkippedBoundary: counts[domain.WalkStateSkippedBoundary],
		SkippedDepth:    counts[domain.WalkStateSkippedDepth],
		SkippedExcluded: counts[domain.WalkStateSkippedExcluded],
	}
	for _, n := range counts {
		s.Total += n
	}
	return s
}
