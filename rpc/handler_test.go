package rpc_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/google/go-cmp/cmp"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tailored-agentic-units/workflow/engine"
	"github.com/tailored-agentic-units/workflow/graph"
	"github.com/tailored-agentic-units/workflow/rpc"
	"github.com/tailored-agentic-units/workflow/store"
	"github.com/tailored-agentic-units/workflow/workflow"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.Handle(rpc.NewHandler(workflow.New()))
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func client(ts *httptest.Server, procedure string) *connect.Client[structpb.Struct, structpb.Struct] {
	return connect.NewClient[structpb.Struct, structpb.Struct](ts.Client(), ts.URL+procedure)
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	st, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatalf("NewStruct failed: %v", err)
	}
	return st
}

func pipeline(t *testing.T) *structpb.Struct {
	t.Helper()
	return mustStruct(t, map[string]any{
		"start_node_id": "split",
		"nodes": []any{
			map[string]any{"id": "split", "tool_name": "split_text", "next_node": "summarize"},
			map[string]any{"id": "summarize", "tool_name": "generate_summaries", "next_node": "merge"},
			map[string]any{"id": "merge", "tool_name": "merge_summaries"},
		},
	})
}

func createGraph(t *testing.T, ts *httptest.Server, graph *structpb.Struct) string {
	t.Helper()
	resp, err := client(ts, rpc.CreateGraphProcedure).CallUnary(context.Background(), connect.NewRequest(graph))
	if err != nil {
		t.Fatalf("CreateGraph failed: %v", err)
	}
	return resp.Msg.GetFields()["graph_id"].GetStringValue()
}

func TestRPC_CreateRunGet(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	graphID := createGraph(t, ts, pipeline(t))
	if graphID == "" {
		t.Fatal("CreateGraph returned no graph_id")
	}

	run, err := client(ts, rpc.RunGraphProcedure).CallUnary(ctx, connect.NewRequest(mustStruct(t, map[string]any{
		"graph_id":      graphID,
		"initial_state": map[string]any{"text": "hello"},
	})))
	if err != nil {
		t.Fatalf("RunGraph failed: %v", err)
	}
	result := run.Msg.AsMap()
	if result["status"] != "completed" {
		t.Errorf("status = %v, want completed", result["status"])
	}
	if log := result["log"].([]any); len(log) != 3 {
		t.Errorf("log has %d entries, want 3", len(log))
	}

	runID := result["run_id"].(string)
	got, err := client(ts, rpc.GetRunProcedure).CallUnary(ctx, connect.NewRequest(mustStruct(t, map[string]any{"run_id": runID})))
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.Msg.AsMap()["graph_id"] != graphID {
		t.Errorf("run = %v", got.Msg.AsMap())
	}
}

func TestRPC_ErrorCodes(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	ghost := createGraph(t, ts, mustStruct(t, map[string]any{
		"start_node_id": "A",
		"nodes":         []any{map[string]any{"id": "A", "tool_name": "split_text", "next_node": "ghost"}},
	}))

	tests := []struct {
		name      string
		procedure string
		msg       map[string]any
		want      connect.Code
	}{
		{name: "unknown graph", procedure: rpc.RunGraphProcedure, msg: map[string]any{"graph_id": "missing"}, want: connect.CodeNotFound},
		{name: "missing node", procedure: rpc.RunGraphProcedure, msg: map[string]any{"graph_id": ghost}, want: connect.CodeFailedPrecondition},
		{name: "unknown run", procedure: rpc.GetRunProcedure, msg: map[string]any{"run_id": "missing"}, want: connect.CodeNotFound},
		{name: "empty start", procedure: rpc.CreateGraphProcedure, msg: map[string]any{}, want: connect.CodeInvalidArgument},
		{name: "malformed nodes", procedure: rpc.CreateGraphProcedure, msg: map[string]any{"start_node_id": "A", "nodes": "A"}, want: connect.CodeInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client(ts, tt.procedure).CallUnary(ctx, connect.NewRequest(mustStruct(t, tt.msg)))
			if got := connect.CodeOf(err); got != tt.want {
				t.Errorf("code = %v, want %v (err %v)", got, tt.want, err)
			}
		})
	}
}

func TestRPC_ResumeRun(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	loop := createGraph(t, ts, mustStruct(t, map[string]any{
		"start_node_id": "A",
		"nodes":         []any{map[string]any{"id": "A", "tool_name": "merge_summaries", "next_node": "A"}},
	}))

	run, err := client(ts, rpc.RunGraphProcedure).CallUnary(ctx, connect.NewRequest(mustStruct(t, map[string]any{"graph_id": loop})))
	if err != nil {
		t.Fatalf("RunGraph failed: %v", err)
	}
	runID := run.Msg.AsMap()["run_id"].(string)

	resumed, err := client(ts, rpc.ResumeRunProcedure).CallUnary(ctx, connect.NewRequest(mustStruct(t, map[string]any{"run_id": runID})))
	if err != nil {
		t.Fatalf("ResumeRun failed: %v", err)
	}
	if log := resumed.Msg.AsMap()["log"].([]any); len(log) != 2*engine.MaxSteps {
		t.Errorf("resumed log has %d entries, want %d", len(log), 2*engine.MaxSteps)
	}
}

func streamEvents(t *testing.T, ts *httptest.Server, msg *structpb.Struct) ([]map[string]any, error) {
	t.Helper()
	stream, err := client(ts, rpc.StreamRunProcedure).CallServerStream(context.Background(), connect.NewRequest(msg))
	if err != nil {
		t.Fatalf("StreamRun failed: %v", err)
	}
	defer stream.Close()

	var events []map[string]any
	for stream.Receive() {
		events = append(events, stream.Msg().AsMap())
	}
	return events, stream.Err()
}

func TestRPC_StreamRun(t *testing.T) {
	ts := newTestServer(t)
	graphID := createGraph(t, ts, pipeline(t))

	events, err := streamEvents(t, ts, mustStruct(t, map[string]any{
		"graph_id":      graphID,
		"initial_state": map[string]any{"text": "hello"},
	}))
	if err != nil {
		t.Fatalf("stream ended with %v", err)
	}

	var kinds []any
	for _, e := range events {
		kinds = append(kinds, e["event"])
	}
	if diff := cmp.Diff([]any{"run_started", "step", "step", "step", "run_completed"}, kinds); diff != "" {
		t.Fatalf("event kinds mismatch (-want +got):\n%s", diff)
	}
	final := events[4]["final_state"].(map[string]any)
	if final["merged_summary"] != "hello" {
		t.Errorf("merged_summary = %v, want hello", final["merged_summary"])
	}
}

func TestRPC_StreamUnknownGraph(t *testing.T) {
	ts := newTestServer(t)

	events, err := streamEvents(t, ts, mustStruct(t, map[string]any{"graph_id": "missing"}))
	if connect.CodeOf(err) != connect.CodeNotFound {
		t.Errorf("stream error code = %v, want %v", connect.CodeOf(err), connect.CodeNotFound)
	}
	if len(events) != 1 || events[0]["event"] != "error" {
		t.Errorf("events = %v, want a single error event", events)
	}
}

func TestCode(t *testing.T) {
	tests := []struct {
		err  error
		want connect.Code
	}{
		{err: store.ErrGraphNotFound, want: connect.CodeNotFound},
		{err: store.ErrRunNotFound, want: connect.CodeNotFound},
		{err: workflow.ErrRunNotResumable, want: connect.CodeFailedPrecondition},
		{err: &engine.ExecutionError{Err: graph.ErrNodeNotFound}, want: connect.CodeFailedPrecondition},
		{err: graph.ErrEmptyStart, want: connect.CodeInvalidArgument},
		{err: engine.ErrStreamAborted, want: connect.CodeCanceled},
		{err: errors.New("boom"), want: connect.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := rpc.Code(tt.err); got != tt.want {
				t.Errorf("Code() = %v, want %v", got, tt.want)
			}
		})
	}
}
