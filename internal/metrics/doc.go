// Package metrics holds the Prometheus instrumentation for the router engine
// and the bridge.
//
// Collectors are registered with the default registry at init through
// promauto, so any package can record without plumbing a registry around.
// The bridge exposes them on /metrics via Handler.
//
// Recorded series:
//
//	kumo_poll_cycles_total{result}         ok, empty, expectation_failed, network_error, error
//	kumo_poll_cycle_duration_seconds       lock-held section of one cycle
//	kumo_notifications_total{kind}         notifications published to subscribers
//	kumo_connected                         1 while the router is reachable
//	kumo_port_count                        last known number of sources
//	kumo_temperature_celsius               last reported temperature
//	kumo_malformed_events_total            events dropped by the classifier
//	kumo_commands_total{command,result}    bridge commands
//	kumo_circuit_breaker_state             0 closed, 1 half-open, 2 open
//	kumo_bridge_clients                    connected websocket clients
package metrics
