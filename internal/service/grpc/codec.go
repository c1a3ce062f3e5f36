package grpcsvc

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/dynamicpb"
)

// Go-структуры сообщений переводятся в protobuf через каноническое JSON-отображение:
// json-теги совпадают с именами полей в ProtoFile.
var (
	toWire   = protojson.UnmarshalOptions{DiscardUnknown: true}
	fromWire = protojson.MarshalOptions{UseProtoNames: true}
)

// encode собирает сообщение cafe.v1.<name> из Go-структуры.
func encode(v any, name string) (*dynamicpb.Message, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", name, err)
	}
	msg := newMessage(name)
	if err := toWire.Unmarshal(raw, msg); err != nil {
		return nil, fmt.Errorf("encode %s: %w", name, err)
	}
	return msg, nil
}

// decode заполняет Go-структуру v из protobuf-сообщения.
func decode(msg proto.Message, v any) error {
	raw, err := fromWire.Marshal(msg)
	if err != nil {
		return fmt.Errorf("decode %s: %w", msg.ProtoReflect().Descriptor().FullName(), err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", msg.ProtoReflect().Descriptor().FullName(), err)
	}
	return nil
}
