package msg

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownType is returned by Decode for a type tag outside the protocol.
// Callers drop such messages — they are usually the embedded application's
// own postMessage traffic leaking through.
var ErrUnknownType = errors.New("msg: unknown message type")

// Encode serialises a message with its type tag spliced into the JSON
// object, so both ends dispatch on the same discriminator field.
func Encode(m Message) ([]byte, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("msg: marshal %s: %w", m.MessageType(), err)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("msg: reshape %s: %w", m.MessageType(), err)
	}
	if obj == nil {
		obj = make(map[string]json.RawMessage, 1)
	}
	obj["type"], _ = json.Marshal(m.MessageType())
	return json.Marshal(obj)
}

// Decode parses a wire payload into its typed message. The concrete type
// is selected by the "type" discriminator.
func Decode(data []byte) (Message, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("msg: envelope: %w", err)
	}

	var (
		m   Message
		err error
	)
	switch env.Type {
	case TypeStartInspection:
		m = StartInspection{}
	case TypeStopInspection:
		m = StopInspection{}
	case TypeSelfInject:
		m = SelfInject{}
	case TypeInspectorReady:
		var v InspectorReady
		err = json.Unmarshal(data, &v)
		m = v
	case TypeRequestState:
		m = RequestState{}
	case TypeInspectHover:
		var v InspectHover
		err = json.Unmarshal(data, &v)
		m = v
	case TypeInspectLeave:
		m = InspectLeave{}
	case TypeInspectClick:
		var v InspectClick
		err = json.Unmarshal(data, &v)
		m = v
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("msg: decode %s: %w", env.Type, err)
	}
	return m, nil
}
