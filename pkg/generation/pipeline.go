// Package generation runs render, compile and placement as one serialized,
// deadline-bounded unit of work.
//
// At most one generation holds the lock at a time. The deadline starts once
// the lock is acquired and covers rendering and compilation. When it expires
// the compilation is abandoned, not killed: Submit returns ErrTimeout, the
// health state turns unhealthy and the lock is released, while the external
// process may keep running in the background. Its artifact is never placed
// and its working area is removed whenever it finishes. While unhealthy, a
// new generation can therefore overlap with an abandoned compilation.
package generation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/systemstart/doxgen-worker/pkg/compile"
	"github.com/systemstart/doxgen-worker/pkg/health"
	"github.com/systemstart/doxgen-worker/pkg/observability"
	"github.com/systemstart/doxgen-worker/pkg/render"
	"golang.org/x/sync/semaphore"
)

// Request is one unit of work. DestinationPath is the final filesystem path.
type Request struct {
	TemplateRef     string
	Context         map[string]any
	DestinationPath string
}

// Placer moves a finished artifact file to its destination atomically.
type Placer interface {
	Place(src, dest string) error
}

// Options wires a Pipeline. Renderer, Compiler, Placer and Health are required.
type Options struct {
	Renderer render.Renderer
	Compiler compile.Compiler
	Placer   Placer
	Health   *health.State
	// Lock serializes generations. A nil Lock gets a private one; pass a
	// shared semaphore of weight 1 to serialize several pipelines together.
	Lock    *semaphore.Weighted
	Metrics *observability.Metrics
}

// Pipeline is the single-flight generation runner.
type Pipeline struct {
	renderer render.Renderer
	compiler compile.Compiler
	placer   Placer
	health   *health.State
	lock     *semaphore.Weighted
	metrics  *observability.Metrics
}

type produced struct {
	artifact *compile.Artifact
	err      error
}

// New creates a pipeline from opts.
func New(opts Options) *Pipeline {
	lock := opts.Lock
	if lock == nil {
		lock = semaphore.NewWeighted(1)
	}
	return &Pipeline{
		renderer: opts.Renderer,
		compiler: opts.Compiler,
		placer:   opts.Placer,
		health:   opts.Health,
		lock:     lock,
		metrics:  opts.Metrics,
	}
}

// Submit waits for the generation lock, then renders, compiles and places the
// document described by req. Waiting for the lock honours ctx; once the lock
// is held only the deadline bounds the call. The lock is released on every
// return path.
func (p *Pipeline) Submit(ctx context.Context, req Request, deadline time.Duration) error {
	log := slog.With("job", uuid.NewString()[:8], "template", req.TemplateRef, "destination", req.DestinationPath)

	waitStart := time.Now()
	p.metrics.WaitStarted()
	err := p.lock.Acquire(ctx, 1)
	p.metrics.WaitEnded()
	if err != nil {
		log.Warn("gave up waiting for generation lock", "waited", time.Since(waitStart), "error", err)
		err = fmt.Errorf("%w: waiting for generation lock: %w", ErrRequest, err)
		p.metrics.Observe(Outcome(err), 0)
		return err
	}
	defer p.lock.Release(1)

	log.Info("generation started", "waited", time.Since(waitStart))
	start := time.Now()

	err = p.run(log, req, deadline)

	elapsed := time.Since(start)
	p.metrics.Observe(Outcome(err), elapsed)
	if err != nil {
		log.Error("generation failed", "outcome", Outcome(err), "duration", elapsed, "error", err)
		return err
	}
	log.Info("generation succeeded", "duration", elapsed)
	return nil
}

func (p *Pipeline) run(log *slog.Logger, req Request, deadline time.Duration) error {
	results := make(chan produced, 1)
	go func() {
		results <- p.produce(req)
	}()

	timer := time.NewTimer(deadline)
	defer timer.Stop()

	select {
	case res := <-results:
		if res.err != nil {
			return res.err
		}
		return p.place(log, res.artifact, req.DestinationPath)
	case <-timer.C:
		p.abandon(log, results)
		if p.health.MarkUnhealthy() {
			log.Error("generation timed out, worker is now unhealthy", "deadline", deadline)
		}
		return fmt.Errorf("%w: generation did not finish within %s", ErrTimeout, deadline)
	}
}

// produce renders and compiles. It runs on its own goroutine so the caller
// can stop waiting for it.
func (p *Pipeline) produce(req Request) produced {
	source, err := p.renderer.Render(req.TemplateRef, req.Context)
	if err != nil {
		return produced{err: fmt.Errorf("%w: %w", ErrRender, err)}
	}

	artifact, err := p.compiler.Compile(source)
	if err != nil {
		return produced{err: fmt.Errorf("%w: %w", ErrCompile, err)}
	}
	if artifact == nil {
		return produced{err: fmt.Errorf("%w: compiler returned no artifact", ErrCompile)}
	}
	return produced{artifact: artifact}
}

func (p *Pipeline) place(log *slog.Logger, artifact *compile.Artifact, dest string) error {
	defer func() {
		if err := artifact.Discard(); err != nil {
			log.Warn("failed to remove working area", "error", err)
		}
	}()

	if err := p.placer.Place(artifact.Path(), dest); err != nil {
		return fmt.Errorf("%w: %w", ErrPlacement, err)
	}
	return nil
}

// abandon leaves the in-flight compilation running and cleans up after it
// once it finishes.
func (p *Pipeline) abandon(log *slog.Logger, results <-chan produced) {
	p.metrics.AbandonStarted()
	go func() {
		defer p.metrics.AbandonEnded()
		res := <-results
		if res.artifact != nil {
			if err := res.artifact.Discard(); err != nil {
				log.Warn("failed to remove abandoned working area", "error", err)
			}
		}
		log.Warn("abandoned compilation finished", "error", res.err)
	}()
}
