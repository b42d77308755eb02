package server

import (
	"math"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func has(in *structpb.Struct, key string) bool {
	_, ok := in.GetFields()[key]
	return ok
}

func isNull(in *structpb.Struct, key string) bool {
	v, ok := in.GetFields()[key]
	if !ok {
		return false
	}
	_, null := v.GetKind().(*structpb.Value_NullValue)
	return null
}

func str(in *structpb.Struct, key string) string {
	return strings.TrimSpace(in.GetFields()[key].GetStringValue())
}

// optStr is nil when key is absent or null.
func optStr(in *structpb.Struct, key string) *string {
	if !has(in, key) || isNull(in, key) {
		return nil
	}
	s := in.GetFields()[key].GetStringValue()
	return &s
}

func integer(in *structpb.Struct, key string) (int, error) {
	v, ok := in.GetFields()[key]
	if !ok || isNull(in, key) {
		return 0, nil
	}
	n, isNum := v.GetKind().(*structpb.Value_NumberValue)
	if !isNum || n.NumberValue != math.Trunc(n.NumberValue) {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be an integer", key)
	}
	return int(n.NumberValue), nil
}

// strList reports ok=false when key is absent.
func strList(in *structpb.Struct, key string) ([]string, bool, error) {
	v, ok := in.GetFields()[key]
	if !ok {
		return nil, false, nil
	}
	lv, isList := v.GetKind().(*structpb.Value_ListValue)
	if !isList {
		return nil, true, status.Errorf(codes.InvalidArgument, "%s must be a list of strings", key)
	}
	out := make([]string, 0, len(lv.ListValue.GetValues()))
	for _, item := range lv.ListValue.GetValues() {
		s, isStr := item.GetKind().(*structpb.Value_StringValue)
		if !isStr {
			return nil, true, status.Errorf(codes.InvalidArgument, "%s must be a list of strings", key)
		}
		out = append(out, s.StringValue)
	}
	return out, true, nil
}

func object(in *structpb.Struct, key string) *structpb.Struct {
	return in.GetFields()[key].GetStructValue()
}

func newStruct(m map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return s, nil
}
