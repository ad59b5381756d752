// Package mc defines the contract between the fleet supervisor and the
// external game-protocol client.
//
// # Overview
//
// The supervisor never speaks the game protocol itself. It depends on two
// small interfaces:
//
//   - Connector: dials a server and returns a live Handle
//   - Handle: chat, movement, and disconnect actions plus an event stream
//
// A production deployment wraps a real protocol library behind Connector.
// This package ships only the contract and a Simulator.
//
// # Session Events
//
// Events arrive on Handle.Events() in the order the client observed them:
//
//   - SpawnedEvent: the player entered the world; the session is usable
//   - ChatEvent / SystemMessageEvent: inbound text
//   - MovedEvent: periodic telemetry snapshot
//   - KickedEvent / ErroredEvent / EndedEvent: terminal; the channel is
//     closed afterwards
//
// # Simulator
//
// Simulator is a scriptable in-process Connector used by tests and the demo
// console:
//
//	sim := mc.NewSimulator(mc.WithAutoSpawn(0))
//	...
//	sim.LastSession().Kick("restart")
//
// The harness injects server-side events and inspects supervisor-side
// actions (SentChat, JumpPulses, Looks).
package mc
