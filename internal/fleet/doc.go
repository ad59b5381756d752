// Package fleet supervises a small fleet of persistent game-server
// connections on behalf of a management console.
//
// # Overview
//
// Each managed connection ("bot") is established, kept alive, monitored,
// and automatically recovered after failure. Chat lines sent while a bot
// is down are queued and replayed once it reconnects.
//
// # Supervisor
//
// The Supervisor is the public entry point:
//
//	sup := fleet.NewSupervisor(connector, sink, fleet.Settings{}, logger)
//
// Key operations:
//
//   - Start(cfg): register and connect a bot (no-op if already running)
//   - Stop(id): disconnect; suppresses reconnects until the next Start
//   - Send(id, text): deliver now or queue; reports which happened
//   - Status(id) / AllStatuses(): aggregated status records
//   - Shutdown(): stop everything; no timer fires after it returns
//
// # Bot Lifecycle
//
// Per-bot states: Offline -> Connecting -> Online -> {Error, Offline},
// with scheduled reconnects re-entering Connecting and manual stop forcing
// Offline from any state.
//
// Each Bot runs a single processing loop fed by a mailbox. Client events,
// timer firings, connect results, and API calls are serialized, so no two
// handlers for the same bot ever run concurrently. Different bots are
// fully independent.
//
// # Sessions and Stale Events
//
// Every connect attempt is tagged with a monotonically increasing session
// id. Messages carrying a session id that no longer matches the bot's
// current one are dropped. This makes stale-event rejection structural:
// a kick that arrives after the operator already stopped the bot cannot
// schedule a reconnect, because Stop bumped the session id.
//
// # Reconnect Backoff
//
// ReconnectPolicy is a pure function: Delay(n) = min(max, base*growth^(n-1)),
// defaulting to 5s base, 1.5 growth, 300s cap.
//
// # Keep-Alive
//
// While Online, a bot performs small synthetic activity (a jump pulse
// alternating with a random look) every 45s so idle servers do not kick
// it. Failures are logged and never escalate.
//
// # Queue Flush
//
// The outbound queue is drained in one step when a bot comes Online and
// the backlog is delivered in FIFO order with 1s spacing. Delivery is not
// confirmed before the drain, so a failure mid-flush loses the remainder;
// this at-most-once behavior is deliberate.
package fleet
