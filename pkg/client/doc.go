// Package client keeps a document in sync with a server over a WebSocket.
//
// A Session owns one document and at most one socket. The server sends
// commands that mutate the document; the client reports which marked
// elements are present and forwards events the server asked for.
//
// # Architecture
//
//   - Session: the loop goroutine that owns all state below
//   - socket: one connection attempt, dialed and read in its own goroutine
//   - Outbox: messages written while disconnected, flushed on reconnect
//   - Registry: bound elements by id and by node
//   - scheduler: the single pending reconnect
//
// # Connection Lifecycle
//
// The session connects when created unless the document is hidden. On open
// the failure count resets, and once the document has loaded every marked
// element is bound and the outbox is flushed. When the socket closes for any
// reason other than Disconnect, a reconnect is scheduled after
//
//	min(BackoffCeiling, BackoffBase * (failures+1)^2)
//
// Hiding the document disconnects; showing it connects again.
//
// # Wire Format
//
// Inbound frames are JSON arrays naming an operation:
//
//	["update", id, html, options?]
//	["replace" | "prepend" | "append", selector, html, options?]
//	["remove", selector, options?]
//	["dispatchEvent", selector, type, init?, options?]
//	["script", id, source, options?]
//
// When options carry a truthy "reply" the client answers {"reply": token},
// with "value" for scripts and failures. Outbound messages are
// ["bind", id, dataset], ["unbind", id] and {"id": id, "event": payload}.
//
// # Tracking
//
// Elements carrying the marker class (default "live") are bound when they
// enter the document and unbound when they leave it. An element moved within
// one command stays bound. Controllers named by data-controller start on
// bind and are torn down on unbind.
//
// # Event Forwarding
//
//	sess.RegisterController("form", func(b *client.Binding) {
//	    b.ForwardFormData("submit", nil)
//	})
//
// Forwarded events have their default action prevented.
package client
