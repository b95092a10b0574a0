package hotreload

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultDebounce is used until SetDebounceTime is called.
const DefaultDebounce = 500 * time.Millisecond

// Reloadable is a component that can re-read its configuration.
type Reloadable interface {
	Reload(ctx context.Context) error
	Name() string
}

// Coordinator batches watcher events and reloads every registered
// component once per burst.
type Coordinator struct {
	watcher      *Watcher
	logger       *zap.Logger
	reloadables  map[string]Reloadable
	eventChan    chan Event
	ctx          context.Context
	cancel       context.CancelFunc
	mu           sync.RWMutex
	reloadMu     sync.Mutex
	debounceTime time.Duration
	wg           sync.WaitGroup
	isRunning    bool
}

// NewCoordinator creates a new reload coordinator
func NewCoordinator(watcher *Watcher, logger *zap.Logger) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())

	return &Coordinator{
		watcher:      watcher,
		logger:       logger,
		reloadables:  make(map[string]Reloadable),
		eventChan:    make(chan Event, 100),
		ctx:          ctx,
		cancel:       cancel,
		debounceTime: DefaultDebounce,
	}
}

// Register adds a reloadable component to the coordinator
func (c *Coordinator) Register(reloadable Reloadable) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	name := reloadable.Name()
	if _, exists := c.reloadables[name]; exists {
		return fmt.Errorf("reloadable %s already registered", name)
	}

	c.reloadables[name] = reloadable
	c.logger.Info("Registered reloadable component", zap.String("name", name))
	return nil
}

// Start begins the hot reload coordination
func (c *Coordinator) Start() error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return errors.New("coordinator already running")
	}
	if c.ctx.Err() != nil {
		c.mu.Unlock()
		return errors.New("coordinator already stopped")
	}
	c.isRunning = true
	c.mu.Unlock()

	c.watcher.Start()

	c.wg.Add(2)
	go c.processEvents()
	go c.coordinateReloads()

	c.logger.Info("Hot reload coordinator started")
	return nil
}

// Stop cancels in-flight reloads and waits for the event loops to exit.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return
	}
	c.isRunning = false
	c.mu.Unlock()

	c.cancel()
	c.watcher.Stop()
	c.wg.Wait()

	c.logger.Info("Hot reload coordinator stopped")
}

func (c *Coordinator) processEvents() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		case event, ok := <-c.watcher.Events():
			if !ok {
				return
			}
			select {
			case c.eventChan <- event:
			case <-c.ctx.Done():
				return
			}
		}
	}
}

// coordinateReloads fires one reload after the event stream has been quiet
// for the debounce time.
func (c *Coordinator) coordinateReloads() {
	defer c.wg.Done()

	var (
		timer  *time.Timer
		fire   <-chan time.Time
		events []Event
	)

	for {
		select {
		case <-c.ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event := <-c.eventChan:
			events = append(events, event)
			debounce := c.debounce()
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if len(events) > 0 {
				_ = c.triggerReload(c.ctx, events)
				events = events[:0]
			}
		}
	}
}

// ReloadNow reloads every component immediately, bypassing the debounce.
func (c *Coordinator) ReloadNow(ctx context.Context) error {
	return c.triggerReload(ctx, nil)
}

// triggerReload runs every reloadable concurrently and returns their joined
// errors. Reloads never overlap.
func (c *Coordinator) triggerReload(ctx context.Context, events []Event) error {
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	c.mu.RLock()
	reloadables := make([]Reloadable, 0, len(c.reloadables))
	for _, r := range c.reloadables {
		reloadables = append(reloadables, r)
	}
	c.mu.RUnlock()

	if len(reloadables) == 0 {
		return nil
	}

	c.logger.Info("Triggering hot reload", zap.Int("events", len(events)))
	for _, event := range events {
		c.logger.Debug("Reload triggered by", zap.String("path", event.Path), zap.String("operation", event.Op.String()))
	}

	var wg sync.WaitGroup
	errs := make([]error, len(reloadables))
	for i, reloadable := range reloadables {
		wg.Add(1)
		go func(i int, r Reloadable) {
			defer wg.Done()
			if err := r.Reload(ctx); err != nil {
				errs[i] = fmt.Errorf("failed to reload %s: %w", r.Name(), err)
				return
			}
			c.logger.Info("Successfully reloaded component", zap.String("name", r.Name()))
		}(i, reloadable)
	}
	wg.Wait()

	err := errors.Join(errs...)
	if err != nil {
		c.logger.Error("Hot reload completed with errors", zap.Error(err))
		return err
	}
	c.logger.Info("Hot reload completed successfully")
	return nil
}

// SetDebounceTime sets the debounce time for reload events
func (c *Coordinator) SetDebounceTime(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.debounceTime = d
}

func (c *Coordinator) debounce() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.debounceTime
}

// IsRunning returns whether the coordinator is currently running
func (c *Coordinator) IsRunning() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isRunning
}
