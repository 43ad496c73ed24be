// Package ladder provides a WebSocket connection multiplexer: a Ladder accepts
// raw connection upgrades and routes them into Rooms, and each Room holds a set
// of Connections, fans messages out to them and tracks its own occupancy and
// lifecycle.
//
// # Features
//
//   - Single admission entry point with pluggable acceptance and room routing
//   - Rooms created lazily on first connection, evicted after a grace period
//     of continuous emptiness
//   - Per-room capacity ceilings (0 = unlimited)
//   - Reactive room/connection collections: every membership change emits a
//     typed event observable by diagnostics collaborators (see pkg/rxcol)
//   - Best-effort broadcast: one failed recipient never blocks the rest
//   - Pluggable message codec (JSON by default)
//   - Heartbeat, connection limits, origin control, graceful shutdown
//   - Optional Redis fan-out bus for multi-instance deployments (see pkg/bus)
//
// # Basic Usage
//
// Create a ladder and hand it HTTP upgrade requests:
//
//	lad, err := ladder.NewLadder(
//	    ladder.WithAllowAnonymous(true),
//	    ladder.WithIdleRoomGrace(5 * time.Second),
//	    ladder.WithRoomResolver(func(r *http.Request) (string, error) {
//	        id := r.URL.Query().Get("room")
//	        if id == "" {
//	            return "", ladder.ErrNoRoomIdentifier
//	        }
//	        return id, nil
//	    }),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	http.HandleFunc("/ws", lad.HandleConnection)
//
// With a bus configured (see pkg/bus), start the consumer loop as well:
//
//	go func() {
//	    if err := lad.Run(); err != nil {
//	        log.Print(err)
//	    }
//	}()
//
// # Authentication
//
// When anonymous access is disallowed, an acceptance function must resolve a
// sender identity before the upgrade completes:
//
//	ladder.WithAcceptFunc(func(ctx context.Context, r *http.Request) (any, error) {
//	    token := r.URL.Query().Get("token")
//	    user, err := verify(ctx, token)
//	    if err != nil {
//	        return nil, err
//	    }
//	    return user, nil
//	})
//
// A failed or nil identity rejects the connection with a diagnostic HTTP
// status before the WebSocket handshake; when anonymous access is allowed the
// connection is downgraded to anonymous instead.
//
// # Room Lifecycle
//
// A room identifier maps to the same Room instance for every connection routed
// to it until the room is evicted. A room that stays empty for the configured
// grace period is removed from the ladder; emptiness is rechecked when the
// grace timer fires, so a room reoccupied in the meantime survives.
//
// # Monitoring
//
// Membership is observable without polling:
//
//	lad.RoomsObserver().Additions().Subscribe(func(e rxcol.MapEvent[string, *ladder.Room]) {
//	    id, _ := e.Key()
//	    log.Printf("room %s created, %d rooms total", id, len(e.Source))
//	})
//
// Implement the Metrics interface (a Prometheus implementation lives in
// pkg/metrics) to export connection, room and message counters.
package ladder
