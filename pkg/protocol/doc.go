// Package protocol implements the JSON wire protocol spoken between a live
// document client and its server.
//
// Every message is a single UTF-8 JSON text frame. The protocol is
// deliberately small: the server drives the document through a closed set of
// operations and the client reports what it sees.
//
// # Server → Client
//
// Inbound frames are JSON arrays whose first element names the operation:
//
//	["update",        id,       html,             options?]
//	["replace",       selector, html,             options?]
//	["prepend",       selector, html,             options?]
//	["append",        selector, html,             options?]
//	["remove",        selector,                   options?]
//	["dispatchEvent", selector, type, eventInit?, options?]
//	["script",        id,       source,           options?]
//
// The trailing options object may carry a reply token:
//
//	["update", "my", "<p>Goodbye World!</p>", {"reply": true}]
//
// A truthy token obligates the client to answer with a Reply once the
// operation has been applied. Operation names outside this set are rejected
// with ErrUnknownOperation; they are never silently ignored.
//
// # Client → Server
//
//	["bind",   id, {"key": "value"}]   // element entered the document
//	["unbind", id]                      // element left the document
//	{"id": id, "event": {...}}          // forwarded user event
//	{"reply": token, "value": ...}      // answer to a reply token
//
// # Usage Example
//
//	cmd, err := protocol.DecodeCommand(frame)
//	if err != nil {
//	    // *protocol.Error: log it and keep reading
//	}
//	switch c := cmd.(type) {
//	case *protocol.Update:
//	    ...
//	}
//
//	data, _ := protocol.EncodeBind("counter", map[string]string{"count": "1"})
//
// # File Structure
//
//   - op.go: operation names
//   - command.go: inbound command types
//   - decode.go: command decoding and encoding
//   - message.go: outbound message types
//   - error.go: protocol errors
//   - limits.go: size limits
package protocol
