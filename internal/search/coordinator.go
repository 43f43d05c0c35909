package search

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"greptide/internal/domain"
	"greptide/internal/eventbus"
	"greptide/internal/ripgrep"
)

const cacheSize = 128

// Coordinator owns the single current-search slot. It debounces raw input,
// cancels the in-flight run when a newer query supersedes it, and guarantees
// that a superseded run's result never reaches the UI.
type Coordinator struct {
	bus    eventbus.EventBus
	runner ripgrep.Runner

	mu       sync.Mutex
	timer    *time.Timer // pending debounce timer, nil when idle
	armSeq   uint64      // bumped on every re-arm; stale timer callbacks check it and bail
	pending  string      // latest input, becomes the query when the timer fires
	gen      uint64      // generation of the authoritative run
	cancel   context.CancelFunc
	closed   bool
	searched bool   // at least one run has fired
	last     string // pattern of the most recent run, for re-search on file change

	debounce    time.Duration
	root        string
	executable  string
	extraArgs   string
	cache       *lru.Cache[string, domain.ResultSet]
	unsubscribe []func()
}

// NewCoordinator creates a coordinator searching under root. It re-runs the
// current query whenever a FilesChanged event invalidates the cache, and
// picks up executable/argument changes from ConfigChanged events.
func NewCoordinator(bus eventbus.EventBus, runner ripgrep.Runner, root, executable, extraArgs string, debounce time.Duration) *Coordinator {
	cache, _ := lru.New[string, domain.ResultSet](cacheSize)

	c := &Coordinator{
		bus:        bus,
		runner:     runner,
		debounce:   debounce,
		root:       root,
		executable: executable,
		extraArgs:  extraArgs,
		cache:      cache,
	}

	c.unsubscribe = append(c.unsubscribe,
		bus.Subscribe(eventbus.EventFilesChanged, func(e eventbus.DomainEvent) {
			c.onFilesChanged()
		}),
		bus.Subscribe(eventbus.EventConfigChanged, func(e eventbus.DomainEvent) {
			if event, ok := e.(eventbus.ConfigChangedEvent); ok {
				c.onConfigChanged(event)
			}
		}),
	)

	return c
}

// OnInput registers a keystroke's worth of input. The search fires only
// after the debounce window elapses with no further input; every call
// re-arms the window and only the latest text is ever searched.
func (c *Coordinator) OnInput(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.pending = text
	if c.timer != nil {
		c.timer.Stop()
	}
	// Stop may miss a callback already in flight; the sequence check in
	// fire keeps such a callback from running alongside the new timer.
	c.armSeq++
	seq := c.armSeq
	c.timer = time.AfterFunc(c.debounce, func() { c.fire(seq) })
}

// fire runs when the debounce window elapses. Only the most recently armed
// timer may start a run.
func (c *Coordinator) fire(seq uint64) {
	c.mu.Lock()
	if c.closed || seq != c.armSeq {
		c.mu.Unlock()
		return
	}
	text := c.pending
	c.timer = nil
	c.mu.Unlock()

	c.startRun(text)
}

// startRun cancels the prior run, then makes a new one authoritative.
// An empty pattern is passed through unchanged; the executable decides
// what it means.
func (c *Coordinator) startRun(pattern string) {
	c.mu.Lock()

	if c.closed {
		c.mu.Unlock()
		return
	}

	// Prior run is cancelled before the replacement starts
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	c.gen++
	gen := c.gen
	c.searched = true
	c.last = pattern

	query := domain.SearchQuery{
		Pattern:    pattern,
		Root:       c.root,
		Executable: c.executable,
		ExtraArgs:  c.extraArgs,
	}

	if rs, ok := c.cache.Get(pattern); ok {
		c.mu.Unlock()
		c.bus.Publish(eventbus.SearchCompletedEvent{Gen: gen, Query: query, Results: rs, Cached: true})
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.mu.Unlock()

	c.bus.Publish(eventbus.SearchStartedEvent{Gen: gen, Query: query})

	go func() {
		rs, err := c.runner.Search(ctx, query)
		c.deliver(gen, query, rs, err)
	}()
}

// deliver hands a completed run to the bus if and only if it is still the
// authoritative run. Stale and cancelled runs are dropped without a trace.
// The Gen stamped on the event lets consumers discard a result that is
// superseded between this check and the publish.
func (c *Coordinator) deliver(gen uint64, query domain.SearchQuery, rs domain.ResultSet, err error) {
	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.cancel = nil

	if err != nil {
		c.mu.Unlock()
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Printf("Search failed for %q: %v", query.Pattern, err)
		c.bus.Publish(eventbus.SearchFailedEvent{Gen: gen, Query: query, Err: err})
		return
	}

	c.cache.Add(query.Pattern, rs)
	c.mu.Unlock()

	c.bus.Publish(eventbus.SearchCompletedEvent{Gen: gen, Query: query, Results: rs})
}

// onFilesChanged purges stale cached results and refreshes whatever query
// is on screen
func (c *Coordinator) onFilesChanged() {
	c.mu.Lock()
	c.cache.Purge()
	rerun := c.searched && !c.closed
	pattern := c.last
	c.mu.Unlock()

	if rerun {
		c.startRun(pattern)
	}
}

func (c *Coordinator) onConfigChanged(event eventbus.ConfigChangedEvent) {
	c.mu.Lock()
	if event.RipgrepPath != "" {
		c.executable = event.RipgrepPath
	}
	c.extraArgs = event.ExtraArgs
	// Results produced with the old arguments are no longer comparable
	c.cache.Purge()
	c.mu.Unlock()
}

// Close cancels any in-flight run and stops the debounce timer. Input and
// completions arriving after Close are ignored.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	unsub := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	for _, u := range unsub {
		u()
	}
}
