// Package kumo implements the session and event-polling engine for AJA KUMO
// video routers.
//
// The router exposes its state as named parameters over a small HTTP API:
// single-parameter get and set, a connect call handing out a connection id,
// and a long-poll that blocks until parameters change. This package logs in,
// keeps the long-poll running in the background, splits each batch of changes
// into matrix, label, color, lock and temperature deltas, and publishes them
// to subscribers.
//
// # Components
//
//   - DeviceSession: the router capability. HTTPSession speaks to a real
//     router, SimulatedSession answers from an in-memory 4x4 router.
//   - SessionManager: owns the Session (cookie, connection id, connectivity,
//     port count) and wraps the get/set primitives.
//   - EventFetcher: one long-poll request per call, no retries.
//   - Classify: turns a batch into an AggregateEvent, or reports a topology
//     reset when the router changed its signal switching mode.
//   - PollLoop: the background cycle, serialized by a capacity-1 semaphore so
//     ForcePoll and the scheduled loop never overlap.
//   - Registry: typed notification subscribers.
//   - GetMatrix: full-state hydration, one status query per destination.
//
// # Usage Example
//
//	client := kumo.NewFromConfig(kumo.Config{Address: "192.168.1.50"})
//	if !client.Login(ctx, password) {
//	    log.Fatal("login failed")
//	}
//
//	matrix := client.GetMatrix(ctx)
//
//	client.Subscribe(func(n kumo.Notification) {
//	    fmt.Println(n.Kind, n.Matrix)
//	}, kumo.KindMatrix, kumo.KindConnectivity)
//
//	client.StartPolling(ctx)
//	defer client.StopPolling()
//
// # Error Handling
//
// DeviceSession methods return *DeviceError values classified by ErrorType.
// The engine above them never lets an error escape: getters return "",
// setters return "Error: ..." and Login returns false. Connectivity changes
// are reported as KindConnectivity notifications, and only on edges.
//
// An HTTP 417 on the long-poll means the router refused the wait but is
// reachable. It is ErrTypeExpectationFailed and promotes a disconnected
// session back to connected.
package kumo
