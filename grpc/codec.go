package grpc

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

// toStruct encodes v through its JSON form so the wire payload carries the
// same field names as the HTTP API.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("payload is not an object: %w", err)
	}
	return structpb.NewStruct(m)
}

// fromStruct decodes a wire payload into v.
func fromStruct(s *structpb.Struct, v any) error {
	raw, err := json.Marshal(s.AsMap())
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

func serverRequest(serverID string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"server_id": structpb.NewStringValue(serverID),
	}}
}

func serverIDOf(req *structpb.Struct) string {
	if req == nil {
		return ""
	}
	return req.GetFields()["server_id"].GetStringValue()
}
