package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"clinic-orchestrator/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingAudit struct {
	AuditService
	mu     sync.Mutex
	events []entity.DomainEvent
	err    error
}

func (a *recordingAudit) RecordEvent(_ context.Context, event entity.DomainEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
	return a.err
}

func (a *recordingAudit) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.events)
}

type recordingDispatcher struct {
	mu         sync.Mutex
	dispatched []entity.EventType
	closed     bool
	afterClose int
}

func (d *recordingDispatcher) Dispatch(_ context.Context, event entity.DomainEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		d.afterClose++
	}
	d.dispatched = append(d.dispatched, event.Type)
	return nil
}

func (d *recordingDispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
}

func appointmentEvent(t entity.EventType) entity.DomainEvent {
	a := &entity.Appointment{ID: uuid.New(), DoctorID: uuid.New(), PatientID: uuid.New(), Status: entity.AppointmentStatusConfirmed}
	return entity.NewAppointmentEvent(t, a, entity.SystemActor, time.Now())
}

func TestEventHub_FanOut(t *testing.T) {
	audit := &recordingAudit{}
	dispatcher := &recordingDispatcher{}
	hub := NewEventHub(audit, dispatcher, time.Second, quietLogger())

	first, unsubscribeFirst := hub.Subscribe(4)
	second, unsubscribeSecond := hub.Subscribe(4)
	defer unsubscribeSecond()

	hub.Publish(context.Background(), appointmentEvent(entity.EventAppointmentConfirmed))

	assert.Equal(t, entity.EventAppointmentConfirmed, (<-first).Type)
	assert.Equal(t, entity.EventAppointmentConfirmed, (<-second).Type)
	assert.Equal(t, 1, audit.Len())

	unsubscribeFirst()
	unsubscribeFirst()
	_, open := <-first
	assert.False(t, open)

	hub.Publish(context.Background(), appointmentEvent(entity.EventAppointmentCheckedIn))
	assert.Equal(t, entity.EventAppointmentCheckedIn, (<-second).Type)

	hub.Stop()
	assert.Equal(t, []entity.EventType{entity.EventAppointmentConfirmed}, dispatcher.dispatched)
	assert.True(t, dispatcher.closed)
}

func TestEventHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewEventHub(nil, nil, time.Second, quietLogger())
	events, unsubscribe := hub.Subscribe(1)
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			hub.Publish(context.Background(), appointmentEvent(entity.EventAppointmentCheckedIn))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
	assert.Len(t, events, 1)
	hub.Stop()
}

func TestEventHub_AuditFailureIsNotFatal(t *testing.T) {
	audit := &recordingAudit{err: errors.New("db down")}
	hub := NewEventHub(audit, nil, time.Second, quietLogger())
	events, unsubscribe := hub.Subscribe(1)
	defer unsubscribe()

	hub.Publish(context.Background(), appointmentEvent(entity.EventAppointmentCancelled))
	require.Len(t, events, 1)
	hub.Stop()
}

func TestEventHub_IgnoresPublishAfterStop(t *testing.T) {
	audit := &recordingAudit{}
	dispatcher := &recordingDispatcher{}
	hub := NewEventHub(audit, dispatcher, time.Second, quietLogger())

	hub.Stop()
	hub.Stop()
	hub.Publish(context.Background(), appointmentEvent(entity.EventAppointmentBooked))

	assert.Zero(t, audit.Len())
	assert.Empty(t, dispatcher.dispatched)
}

func TestEventHub_StopWhilePublishing(t *testing.T) {
	for i := 0; i < 100; i++ {
		dispatcher := &recordingDispatcher{}
		hub := NewEventHub(nil, dispatcher, time.Second, quietLogger())

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				hub.Publish(context.Background(), appointmentEvent(entity.EventAppointmentConfirmed))
			}
		}()
		go func() {
			defer wg.Done()
			hub.Stop()
		}()
		wg.Wait()
		hub.Stop()

		dispatcher.mu.Lock()
		assert.True(t, dispatcher.closed)
		assert.Zero(t, dispatcher.afterClose, "dispatch ran on a closed dispatcher")
		dispatcher.mu.Unlock()
	}
}

func TestEventHub_HookSeesEventsSubscribersDrop(t *testing.T) {
	hub := NewEventHub(nil, nil, time.Second, quietLogger())
	events, unsubscribe := hub.Subscribe(1)
	defer unsubscribe()

	var hooked []entity.EventType
	hub.AddHook(func(_ context.Context, event entity.DomainEvent) {
		hooked = append(hooked, event.Type)
	})

	for i := 0; i < 5; i++ {
		hub.Publish(context.Background(), appointmentEvent(entity.EventAppointmentCancelled))
	}
	hub.Stop()

	assert.Len(t, events, 1)
	assert.Len(t, hooked, 5)
}
