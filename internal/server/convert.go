package server

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// decodeStruct copies a request message into v through its JSON form.
// Keys that v has no field for are rejected, as on the HTTP side.
func decodeStruct(in *structpb.Struct, v any) error {
	if in == nil {
		return nil
	}
	b, err := protojson.Marshal(in)
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	return nil
}

// encodeStruct converts v, which must encode as a JSON object, to a response message.
func encodeStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// storeError converts a store error to a gRPC status error.
// Not-found errors become codes.NotFound; everything else becomes codes.Internal.
func storeError(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return status.Errorf(codes.NotFound, "%s not found", entity)
	}
	var nfErr interface{ NotFound() bool }
	if errors.As(err, &nfErr) && nfErr.NotFound() {
		return status.Error(codes.NotFound, err.Error())
	}
	return status.Errorf(codes.Internal, "%s: %v", entity, err)
}

// grpcError converts an error from a server helper to a gRPC status error.
func grpcError(err error, entity string) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var ie inputError
	if errors.As(err, &ie) {
		return status.Error(codes.InvalidArgument, ie.Error())
	}
	var ce conflictError
	if errors.As(err, &ce) {
		return status.Error(codes.AlreadyExists, ce.Error())
	}
	return storeError(err, entity)
}

// reply encodes a helper result, mapping a helper error first.
func reply(v any, err error, entity string) (*structpb.Struct, error) {
	if err != nil {
		return nil, grpcError(err, entity)
	}
	return encodeStruct(v)
}

func requireField(name, value string) error {
	if value == "" {
		return inputError(fmt.Sprintf("%s is required", name))
	}
	return nil
}
