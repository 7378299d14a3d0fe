// Package manhole owns the interactive diagnostic console.
//
// Ownership boundary:
// - per-connection command buffering and prompt selection
// - the session protocol state machine
// - inline and pooled execution strategies
// - namespace factory (isolated vs shared)
// - listener lifecycle over TCP and unix sockets
//
// The console is a plain line-oriented text protocol for trusted operator
// access. It carries no authentication, encryption, or framing.
package manhole
