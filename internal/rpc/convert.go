package rpc

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/erg0nix/sessiontab/internal/core"
)

// toValue turns any JSON-encodable value into its structpb form by going
// through its JSON encoding, which only yields types structpb accepts.
func toValue(v any) (*structpb.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}

	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	return structpb.NewValue(generic)
}

// fromValue decodes a structpb value into out using the JSON tags of out.
func fromValue(v *structpb.Value, out any) error {
	data, err := v.MarshalJSON()
	if err != nil {
		return fmt.Errorf("decode value: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode value: %w", err)
	}
	return nil
}

func sessionsToStruct(list []core.Session) (*structpb.Struct, error) {
	if list == nil {
		list = []core.Session{}
	}

	value, err := toValue(list)
	if err != nil {
		return nil, err
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{"sessions": value}}, nil
}

func sessionsFromStruct(msg *structpb.Struct) ([]core.Session, error) {
	value, ok := msg.GetFields()["sessions"]
	if !ok {
		return nil, nil
	}
	if _, isNull := value.GetKind().(*structpb.Value_NullValue); isNull {
		return nil, nil
	}

	var list []core.Session
	if err := fromValue(value, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func sessionToStruct(session *core.Session) (*structpb.Struct, error) {
	if session == nil {
		return &structpb.Struct{Fields: map[string]*structpb.Value{"session": structpb.NewNullValue()}}, nil
	}

	value, err := toValue(session)
	if err != nil {
		return nil, err
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{"session": value}}, nil
}

func sessionFromStruct(msg *structpb.Struct) (*core.Session, error) {
	value, ok := msg.GetFields()["session"]
	if !ok {
		return nil, nil
	}
	if _, isNull := value.GetKind().(*structpb.Value_NullValue); isNull {
		return nil, nil
	}

	var session core.Session
	if err := fromValue(value, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func stringField(msg *structpb.Struct, key string) string {
	return msg.GetFields()[key].GetStringValue()
}
