package service

import (
	"context"
	"sync"
	"time"

	"clinic-orchestrator/internal/domain/entity"

	"github.com/sirupsen/logrus"
)

// EventPublisher is what usecases emit committed transitions to.
type EventPublisher interface {
	Publish(ctx context.Context, event entity.DomainEvent)
}

// EventHub fans domain events out to in-process subscribers, persists them to the
// audit trail and forwards user-facing ones to the notification dispatcher.
//
// Publish never fails the caller: the transition is already committed when it runs.
type EventHub struct {
	audit         AuditService
	hooks         []EventHook
	notifier      NotificationDispatcher
	notifyTimeout time.Duration
	log           *logrus.Logger

	mu     sync.RWMutex
	subs   map[uint64]chan entity.DomainEvent
	nextID uint64

	// stopMu orders wg.Add in Publish against wg.Wait in Stop.
	stopMu  sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// EventHook runs synchronously inside Publish and sees every event, unlike subscribers.
type EventHook func(ctx context.Context, event entity.DomainEvent)

func NewEventHub(audit AuditService, notifier NotificationDispatcher, notifyTimeout time.Duration, log *logrus.Logger) *EventHub {
	if notifier == nil {
		notifier = NoopDispatcher{}
	}
	return &EventHub{
		audit:         audit,
		notifier:      notifier,
		notifyTimeout: notifyTimeout,
		log:           log,
		subs:          make(map[uint64]chan entity.DomainEvent),
	}
}

// AddHook registers fn to run on every published event. Call it during wiring, before
// the first Publish.
func (h *EventHub) AddHook(fn EventHook) {
	h.hooks = append(h.hooks, fn)
}

// Subscribe registers a buffered listener. Slow listeners miss events rather than
// blocking publishers. The returned func unsubscribes and closes the channel.
func (h *EventHub) Subscribe(buffer int) (<-chan entity.DomainEvent, func()) {
	ch := make(chan entity.DomainEvent, buffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *EventHub) Publish(ctx context.Context, event entity.DomainEvent) {
	userFacing := event.IsUserFacing()

	h.stopMu.Lock()
	if h.stopped {
		h.stopMu.Unlock()
		return
	}
	if userFacing {
		h.wg.Add(1)
	}
	h.stopMu.Unlock()

	if h.audit != nil {
		if err := h.audit.RecordEvent(context.WithoutCancel(ctx), event); err != nil {
			h.log.Warnf("Failed to record event %s for %s %s: %+v", event.Type, event.Aggregate, event.AggregateID, err)
		}
	}

	for _, hook := range h.hooks {
		hook(context.WithoutCancel(ctx), event)
	}

	h.mu.RLock()
	for id, ch := range h.subs {
		select {
		case ch <- event:
		default:
			h.log.Debugf("Dropping event %s for slow subscriber %d", event.Type, id)
		}
	}
	h.mu.RUnlock()

	if userFacing {
		go h.notify(event)
	}
}

func (h *EventHub) notify(event entity.DomainEvent) {
	defer h.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), h.notifyTimeout)
	defer cancel()

	if err := h.notifier.Dispatch(ctx, event); err != nil {
		h.log.Warnf("Failed to dispatch notification %s for %s: %+v", event.Type, event.AggregateID, err)
	}
}

// Stop waits for in-flight notifications and closes the dispatcher.
// Safe to call multiple times.
func (h *EventHub) Stop() {
	h.stopMu.Lock()
	if h.stopped {
		h.stopMu.Unlock()
		return
	}
	h.stopped = true
	h.stopMu.Unlock()

	h.wg.Wait()
	h.notifier.Close()
	h.log.Info("EventHub stopped")
}
