package protocol

// Size limits applied while decoding.
const (
	// MaxFrameSize is the largest inbound frame DecodeCommand accepts.
	// Clients should configure their read limit to the same value.
	MaxFrameSize = 4 * 1024 * 1024

	// MaxMessageSize is the largest outbound message DecodeMessage accepts.
	MaxMessageSize = 1024 * 1024
)
