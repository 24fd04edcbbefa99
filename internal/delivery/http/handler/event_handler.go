package handler

import (
	"net/http"
	"time"

	"clinic-orchestrator/internal/domain/entity"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	eventBuffer     = 64
	wsWriteWait     = 10 * time.Second
	wsPongWait      = 60 * time.Second
	wsPingPeriod    = (wsPongWait * 9) / 10
	wsMaxReadLength = 512
)

// EventSubscriber is the in-process source of committed domain events.
type EventSubscriber interface {
	Subscribe(buffer int) (<-chan entity.DomainEvent, func())
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// EventHandler pushes domain events to websocket clients in place of polling.
type EventHandler struct {
	subscriber EventSubscriber
	log        *logrus.Logger
}

func NewEventHandler(subscriber EventSubscriber, log *logrus.Logger) *EventHandler {
	return &EventHandler{subscriber: subscriber, log: log}
}

// Stream upgrades the connection and forwards every event the caller may see until
// either side closes.
func (h *EventHandler) Stream(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnf("Failed to upgrade event stream: %+v", err)
		return
	}

	events, unsubscribe := h.subscriber.Subscribe(eventBuffer)
	closed := make(chan struct{})

	go h.readPump(conn, closed)
	h.writePump(conn, actor, events, closed)

	unsubscribe()
	conn.Close()
}

// readPump discards client messages; it exists to process pongs and notice disconnects.
func (h *EventHandler) readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)

	conn.SetReadLimit(wsMaxReadLength)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *EventHandler) writePump(conn *websocket.Conn, actor entity.Actor, events <-chan entity.DomainEvent, closed <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case event, ok := <-events:
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if !canSee(actor, event) {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// canSee limits patients and doctors to their own appointments. Operators see
// everything, doctors also see lab events because they review results.
func canSee(actor entity.Actor, event entity.DomainEvent) bool {
	if actor.IsOperator() {
		return true
	}
	if event.Aggregate == entity.AggregateLabRequest {
		return actor.IsDoctor()
	}

	self := actor.UserID.String()
	switch {
	case actor.IsPatient():
		return event.Payload["patient_id"] == self
	case actor.IsDoctor():
		return event.Payload["doctor_id"] == self
	}
	return false
}
