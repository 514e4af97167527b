// Package event provides the typed event bus the integration layer uses to
// observe the notebook host.
//
// The host announces lifecycle moments (document loaded, application
// initialized, cell created or deleted, document closed) by publishing
// events. Components subscribe to topics and receive the events
// synchronously, in priority order, on the publisher's goroutine:
//
//	bus := event.NewBus()
//	sub, _ := bus.SubscribeFunc("cell.created", func(ctx context.Context, ev any) error {
//	    created := ev.(event.Event[events.CellCreated])
//	    return binder.Attach(created.Payload.Cell)
//	})
//	defer bus.Unsubscribe(sub)
//
//	bus.Publish(ctx, event.New(events.TopicCellCreated, events.CellCreated{Cell: c}, "host"))
//
// # Topics
//
// Topics are dot separated ("notebook.loaded"). Subscription patterns may use
// "*" for exactly one segment and "**" for any number of trailing segments.
//
// # Failure isolation
//
// A handler that returns an error or panics does not prevent the remaining
// handlers from running. Publish returns every failure joined together;
// panics surface as *PanicError.
package event
