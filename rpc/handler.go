// Package rpc exposes a workflow.Service as the Connect service
// workflow.v1.WorkflowService.
//
// Requests and responses are google.protobuf.Struct messages carrying the
// same JSON shapes as the HTTP routes, so the service works with the Connect,
// gRPC and gRPC-Web protocols without generated stubs.
//
//	path, h := rpc.NewHandler(svc)
//	mux.Handle(path, h)
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tailored-agentic-units/workflow/engine"
	"github.com/tailored-agentic-units/workflow/graph"
	"github.com/tailored-agentic-units/workflow/store"
	"github.com/tailored-agentic-units/workflow/workflow"
)

// ServiceName is the fully-qualified Connect service name.
const ServiceName = "workflow.v1.WorkflowService"

// Procedure paths.
const (
	CreateGraphProcedure = "/" + ServiceName + "/CreateGraph"
	RunGraphProcedure    = "/" + ServiceName + "/RunGraph"
	GetRunProcedure      = "/" + ServiceName + "/GetRun"
	ResumeRunProcedure   = "/" + ServiceName + "/ResumeRun"
	StreamRunProcedure   = "/" + ServiceName + "/StreamRun"
)

type handler struct {
	svc *workflow.Service
}

// NewHandler returns the service path prefix and the handler serving every
// procedure under it.
func NewHandler(svc *workflow.Service, opts ...connect.HandlerOption) (string, http.Handler) {
	h := &handler{svc: svc}

	mux := http.NewServeMux()
	mux.Handle(CreateGraphProcedure, connect.NewUnaryHandler(CreateGraphProcedure, h.createGraph, opts...))
	mux.Handle(RunGraphProcedure, connect.NewUnaryHandler(RunGraphProcedure, h.runGraph, opts...))
	mux.Handle(GetRunProcedure, connect.NewUnaryHandler(GetRunProcedure, h.getRun, opts...))
	mux.Handle(ResumeRunProcedure, connect.NewUnaryHandler(ResumeRunProcedure, h.resumeRun, opts...))
	mux.Handle(StreamRunProcedure, connect.NewServerStreamHandler(StreamRunProcedure, h.streamRun, opts...))

	return "/" + ServiceName + "/", mux
}

func (h *handler) createGraph(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	var in workflow.CreateGraphRequest
	if err := decode(req.Msg, &in); err != nil {
		return nil, err
	}

	id, err := h.svc.CreateGraph(ctx, in)
	if err != nil {
		return nil, connectError(err)
	}
	return respond(map[string]string{"graph_id": id})
}

func (h *handler) runGraph(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	var in workflow.RunRequest
	if err := decode(req.Msg, &in); err != nil {
		return nil, err
	}

	result, err := h.svc.RunGraph(ctx, in)
	if err != nil {
		return nil, connectError(err)
	}
	return respond(result)
}

func (h *handler) getRun(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	run, err := h.svc.GetRun(ctx, runID(req.Msg))
	if err != nil {
		return nil, connectError(err)
	}
	return respond(run)
}

func (h *handler) resumeRun(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	result, err := h.svc.ResumeRun(ctx, runID(req.Msg))
	if err != nil {
		return nil, connectError(err)
	}
	return respond(result)
}

// streamRun sends one event struct per stream event. Failures that produced an
// error event still end the stream with an error status.
func (h *handler) streamRun(ctx context.Context, req *connect.Request[structpb.Struct], stream *connect.ServerStream[structpb.Struct]) error {
	var in workflow.RunRequest
	if err := decode(req.Msg, &in); err != nil {
		return err
	}

	emitter := engine.EmitterFunc(func(_ context.Context, e engine.Event) error {
		msg, err := toStruct(e.Payload())
		if err != nil {
			return err
		}
		return stream.Send(msg)
	})

	if err := h.svc.StreamRun(ctx, in, emitter); err != nil {
		return connectError(err)
	}
	return nil
}

// Code maps service errors onto Connect codes.
func Code(err error) connect.Code {
	var execErr *engine.ExecutionError
	switch {
	case errors.Is(err, store.ErrGraphNotFound), errors.Is(err, store.ErrRunNotFound):
		return connect.CodeNotFound
	case errors.Is(err, engine.ErrStreamAborted):
		return connect.CodeCanceled
	case errors.Is(err, workflow.ErrRunNotResumable), errors.As(err, &execErr):
		return connect.CodeFailedPrecondition
	case errors.Is(err, graph.ErrEmptyStart), errors.Is(err, graph.ErrEmptyNodeID):
		return connect.CodeInvalidArgument
	default:
		return connect.CodeInternal
	}
}

func connectError(err error) error {
	return connect.NewError(Code(err), err)
}

func runID(msg *structpb.Struct) string {
	for _, key := range []string{"run_id", "id"} {
		if v, ok := msg.GetFields()[key]; ok {
			return v.GetStringValue()
		}
	}
	return ""
}

func decode(msg *structpb.Struct, v any) error {
	data, err := protojson.Marshal(msg)
	if err != nil {
		return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("malformed request: %w", err))
	}
	if err := json.Unmarshal(data, v); err != nil {
		return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("malformed request: %w", err))
	}
	return nil
}

func respond(v any) (*connect.Response[structpb.Struct], error) {
	msg, err := toStruct(v)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}

func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	msg := &structpb.Struct{}
	if err := protojson.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	return msg, nil
}
