package protocol

import (
	"testing"
)

// FuzzDecodeCommand tests that decoding arbitrary bytes doesn't panic.
func FuzzDecodeCommand(f *testing.F) {
	f.Add([]byte(`["update","my","<p>Goodbye World!</p>",{"reply":true}]`))
	f.Add([]byte(`["dispatchEvent","#a","x",{"detail":[1,2]},{"reply":"t"}]`))
	f.Add([]byte(`["remove"]`))
	f.Add([]byte(`[]`))
	f.Add([]byte(`[null]`))

	f.Fuzz(func(t *testing.T, data []byte) {
		cmd, err := DecodeCommand(data)
		if err != nil {
			return
		}
		// Anything that decodes must encode again.
		if _, err := EncodeCommand(cmd); err != nil {
			t.Fatalf("EncodeCommand() error = %v", err)
		}
	})
}

// FuzzDecodeMessage tests that decoding arbitrary bytes doesn't panic.
func FuzzDecodeMessage(f *testing.F) {
	f.Add([]byte(`["bind","a",{"k":"v"}]`))
	f.Add([]byte(`["unbind","a"]`))
	f.Add([]byte(`{"id":"a","event":{"type":"click"}}`))
	f.Add([]byte(`{"reply":1,"value":null}`))

	f.Fuzz(func(t *testing.T, data []byte) {
		_, _ = DecodeMessage(data)
	})
}
