package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Outbound message tags.
const (
	TagBind   = "bind"
	TagUnbind = "unbind"
)

// EncodeBind encodes ["bind", id, data].
func EncodeBind(id string, data map[string]string) ([]byte, error) {
	if data == nil {
		data = map[string]string{}
	}
	return json.Marshal([]any{TagBind, id, data})
}

// EncodeUnbind encodes ["unbind", id].
func EncodeUnbind(id string) ([]byte, error) {
	return json.Marshal([]any{TagUnbind, id})
}

// EventPayload is the serializable projection of a forwarded event.
type EventPayload struct {
	Type     string      `json:"type"`
	Detail   any         `json:"detail,omitempty"`
	FormData [][2]string `json:"formData,omitempty"`
}

// EncodeTrigger encodes {"id": id, "event": event}.
func EncodeTrigger(id string, event any) ([]byte, error) {
	return json.Marshal(struct {
		ID    string `json:"id"`
		Event any    `json:"event"`
	}{id, event})
}

// Reply answers a reply token. Value is only written when HasValue is set,
// so {"reply": t} and {"reply": t, "value": null} stay distinct.
type Reply struct {
	Token    json.RawMessage
	Value    any
	HasValue bool
}

// MarshalJSON implements json.Marshaler.
func (r Reply) MarshalJSON() ([]byte, error) {
	token := r.Token
	if len(token) == 0 {
		token = json.RawMessage("null")
	}
	if !r.HasValue {
		return json.Marshal(struct {
			Reply json.RawMessage `json:"reply"`
		}{token})
	}
	return json.Marshal(struct {
		Reply json.RawMessage `json:"reply"`
		Value any             `json:"value"`
	}{token, r.Value})
}

// EncodeReply encodes a Reply.
func EncodeReply(r Reply) ([]byte, error) {
	return json.Marshal(r)
}

// Message is a decoded client → server message: *Bind, *Unbind, *Trigger
// or *ReplyMessage.
type Message interface {
	message()
}

// Bind reports an element entering the document.
type Bind struct {
	ID   string
	Data map[string]string
}

// Unbind reports an element leaving the document.
type Unbind struct {
	ID string
}

// Trigger carries a forwarded event.
type Trigger struct {
	ID    string
	Event json.RawMessage
}

// ReplyMessage is a decoded Reply. Value is nil when the reply carried no
// value field.
type ReplyMessage struct {
	Token json.RawMessage
	Value json.RawMessage
}

func (*Bind) message()         {}
func (*Unbind) message()       {}
func (*Trigger) message()      {}
func (*ReplyMessage) message() {}

// DecodeMessage decodes an outbound frame. Servers use it to read what the
// client sends.
func DecodeMessage(data []byte) (Message, error) {
	if len(data) > MaxMessageSize {
		return nil, newError(ErrFrameTooLarge, "", fmt.Sprintf("%d bytes exceeds %d", len(data), MaxMessageSize), nil)
	}
	t := bytes.TrimSpace(data)
	if len(t) == 0 {
		return nil, newError(ErrMalformedMessage, "", "empty message", nil)
	}

	switch t[0] {
	case '[':
		return decodeTagged(t)
	case '{':
		return decodeObject(t)
	}
	return nil, newError(ErrMalformedMessage, "", "message is neither array nor object", nil)
}

func decodeTagged(data []byte) (Message, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, newError(ErrMalformedMessage, "", "invalid array", err)
	}
	if len(raw) < 2 {
		return nil, newError(ErrMalformedMessage, "", "tagged message needs a tag and an id", nil)
	}
	var tag, id string
	if err := json.Unmarshal(raw[0], &tag); err != nil {
		return nil, newError(ErrMalformedMessage, "", "tag is not a string", err)
	}
	if err := json.Unmarshal(raw[1], &id); err != nil {
		return nil, newError(ErrMalformedMessage, tag, "id is not a string", err)
	}

	switch tag {
	case TagBind:
		m := &Bind{ID: id, Data: map[string]string{}}
		if len(raw) > 2 && !isNull(raw[2]) {
			if err := json.Unmarshal(raw[2], &m.Data); err != nil {
				return nil, newError(ErrMalformedMessage, tag, "invalid data", err)
			}
		}
		return m, nil
	case TagUnbind:
		return &Unbind{ID: id}, nil
	}
	return nil, newError(ErrMalformedMessage, tag, "unknown tag", nil)
}

func decodeObject(data []byte) (Message, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, newError(ErrMalformedMessage, "", "invalid object", err)
	}

	if token, ok := fields["reply"]; ok {
		return &ReplyMessage{Token: token, Value: fields["value"]}, nil
	}

	rawID, ok := fields["id"]
	if !ok {
		return nil, newError(ErrMalformedMessage, "", "object has neither reply nor id", nil)
	}
	m := &Trigger{Event: fields["event"]}
	if err := json.Unmarshal(rawID, &m.ID); err != nil {
		return nil, newError(ErrMalformedMessage, "", "id is not a string", err)
	}
	return m, nil
}
