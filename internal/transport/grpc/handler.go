package grpc

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/clippy-oss/homie/whatsapp-mcp/internal/rpc"
)

// Handler bridges the Core service onto the dispatcher. Operation failures
// travel inside the response envelope; only a malformed envelope is a gRPC
// error.
type Handler struct {
	dispatcher *rpc.Dispatcher
}

func NewHandler(dispatcher *rpc.Dispatcher) *Handler {
	return &Handler{dispatcher: dispatcher}
}

func (h *Handler) Call(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := RequestFromStruct(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	resp := h.dispatcher.Dispatch(ctx, req)

	out, err := ResponseToStruct(resp)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}

// RequestFromStruct reads an envelope request. params must be an object
// when present.
func RequestFromStruct(in *structpb.Struct) (rpc.Request, error) {
	var req rpc.Request
	fields := in.GetFields()

	if v, ok := fields["id"]; ok {
		req.ID = v.GetStringValue()
	}
	req.Method = fields["method"].GetStringValue()
	if req.Method == "" {
		return req, fmt.Errorf("method is required")
	}

	if v, ok := fields["params"]; ok {
		params := v.GetStructValue()
		if params == nil {
			if _, isNull := v.GetKind().(*structpb.Value_NullValue); !isNull {
				return req, fmt.Errorf("params must be an object")
			}
			return req, nil
		}
		raw, err := params.MarshalJSON()
		if err != nil {
			return req, fmt.Errorf("bad params: %w", err)
		}
		req.Params = raw
	}
	return req, nil
}

// RequestToStruct is the client-side inverse of RequestFromStruct.
func RequestToStruct(req rpc.Request) (*structpb.Struct, error) {
	fields := map[string]any{
		"id":     req.ID,
		"method": req.Method,
	}
	if len(req.Params) > 0 {
		var params map[string]any
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, fmt.Errorf("params must be an object: %w", err)
		}
		fields["params"] = params
	}
	return structpb.NewStruct(fields)
}

// ResponseToStruct encodes resp through its JSON form so that the struct
// keys match every other transport.
func ResponseToStruct(resp rpc.Response) (*structpb.Struct, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := out.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return out, nil
}
