// Package runner drives one posting cycle: pick a topic, compose, publish, remember.
package runner

import (
	"context"
	"errors"
	"log"
	"sync"

	"auto_x_post_publisher/generator"
	"auto_x_post_publisher/memory"
	"auto_x_post_publisher/publisher"
)

// ErrCycleInProgress is returned when another cycle is still running in this process.
var ErrCycleInProgress = errors.New("a posting cycle is already running")

// Composer produces the post text.
type Composer interface {
	Compose(ctx context.Context, topic string) (generator.Post, error)
}

// Publisher submits the post text.
type Publisher interface {
	Publish(ctx context.Context, text string) (publisher.PublishResult, error)
}

// CycleResult describes what one run did.
type CycleResult struct {
	Topic   string                   `json:"topic,omitempty"`
	Post    generator.Post           `json:"post"`
	Result  *publisher.PublishResult `json:"posted,omitempty"`
	Skipped bool                     `json:"skipped,omitempty"`
}

// Options wires the optional collaborators of a Runner.
type Options struct {
	Memory     memory.Log
	TopicsPath string
	Rand       memory.Rand
	Verbose    bool
	Logger     *log.Logger
}

type Runner struct {
	composer   Composer
	publisher  Publisher
	memory     memory.Log
	topicsPath string
	rng        memory.Rand
	verbose    bool
	logger     *log.Logger

	mu sync.Mutex
}

func New(composer Composer, pub Publisher, opts Options) (*Runner, error) {
	if composer == nil {
		return nil, errors.New("composer is required")
	}
	if pub == nil {
		return nil, errors.New("publisher is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Runner{
		composer:   composer,
		publisher:  pub,
		memory:     opts.Memory,
		topicsPath: opts.TopicsPath,
		rng:        opts.Rand,
		verbose:    opts.Verbose,
		logger:     opts.Logger,
	}, nil
}

func (r *Runner) infof(format string, args ...interface{}) {
	if !r.verbose {
		return
	}
	r.logger.Printf("[INFO] "+format, args...)
}

// RunOnce composes and publishes one post. An empty topic means one is picked
// from the topics file, if any. Only one cycle runs at a time.
func (r *Runner) RunOnce(ctx context.Context, topic string) (CycleResult, error) {
	if !r.mu.TryLock() {
		return CycleResult{}, ErrCycleInProgress
	}
	defer r.mu.Unlock()

	post, err := r.compose(ctx, topic)
	if err != nil {
		return CycleResult{}, err
	}
	res := CycleResult{Topic: post.Topic, Post: post}
	if post.Text == "" {
		r.logger.Printf("[WARN] no post generated, skipping")
		res.Skipped = true
		return res, nil
	}

	r.infof("publishing %q", post.Text)
	published, err := r.publisher.Publish(ctx, post.Text)
	if err != nil {
		return res, err
	}
	res.Result = &published

	if r.memory != nil {
		if err := r.memory.Append(ctx, post.Text); err != nil {
			r.logger.Printf("[WARN] remember post: %v", err)
		}
	}
	return res, nil
}

// Preview composes a post without publishing it.
func (r *Runner) Preview(ctx context.Context, topic string) (generator.Post, error) {
	return r.compose(ctx, topic)
}

func (r *Runner) compose(ctx context.Context, topic string) (generator.Post, error) {
	if topic == "" && r.rng != nil {
		picked, err := memory.PickTopic(r.topicsPath, r.rng)
		if err != nil {
			r.logger.Printf("[WARN] pick topic: %v", err)
		}
		topic = picked
	}
	r.infof("cycle topic=%q", topic)
	return r.composer.Compose(ctx, topic)
}
