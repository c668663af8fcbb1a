package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/scalerwatch/internal/events"
)

// sseBuffer is how many events a slow client may fall behind before new
// ones are dropped for it.
const sseBuffer = 32

// forward subscribes ch to events of type T without ever blocking the bus.
func forward[T events.Event](bus *events.Bus, ch chan<- any) func() {
	return events.Subscribe(bus, func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}

// registerSSERoutes registers the live monitor event stream.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Live monitor events: samples, geometry and stale changes, cycle errors and captures",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"monitor-started":   events.MonitorStartedEvent{},
		"frame-sampled":     events.FrameSampledEvent{},
		"geometry-changed":  events.GeometryChangedEvent{},
		"stale-changed":     events.StaleChangedEvent{},
		"cycle-error":       events.CycleErrorEvent{},
		"capture-completed": events.CaptureCompletedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, sseBuffer)
		bus := s.options.Bus

		unsubscribers := []func(){
			forward[events.MonitorStartedEvent](bus, eventCh),
			forward[events.FrameSampledEvent](bus, eventCh),
			forward[events.GeometryChangedEvent](bus, eventCh),
			forward[events.StaleChangedEvent](bus, eventCh),
			forward[events.CycleErrorEvent](bus, eventCh),
			forward[events.CaptureCompletedEvent](bus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
