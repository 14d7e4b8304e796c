package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tailored-agentic-units/workflow/state"
)

// Built-in tool names.
const (
	SplitText         = "split_text"
	GenerateSummaries = "generate_summaries"
	MergeSummaries    = "merge_summaries"
	RefineSummary     = "refine_summary"
)

const (
	defaultChunkSize = 50
	summaryLength    = 20
	defaultMaxLength = 100
	summarySeparator = " "
)

// NewBuiltinRegistry returns a Registry preloaded with the built-in
// summarization tools.
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	RegisterBuiltins(r)
	return r
}

// RegisterBuiltins installs the built-in tools into r.
func RegisterBuiltins(r *Registry) {
	must(r.Register(SplitText, splitText))
	must(r.Register(GenerateSummaries, generateSummaries))
	must(r.Register(MergeSummaries, mergeSummaries))
	must(r.Register(RefineSummary, refineSummary))
}

func must(err error) {
	if err != nil {
		panic(fmt.Sprintf("failed to register tool: %v", err))
	}
}

// splitText partitions text into contiguous chunks of chunk_size characters.
// A negative chunk_size yields no chunks.
func splitText(_ context.Context, s state.State) (state.State, error) {
	text, err := s.String("text", "")
	if err != nil {
		return nil, err
	}
	size, err := s.Int("chunk_size", defaultChunkSize)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, errors.New("chunk_size must not be zero")
	}

	runes := []rune(text)
	chunks := []any{}
	if size < 0 {
		return s.With("chunks", chunks), nil
	}
	for i := 0; i < len(runes); i += size {
		end := min(i+size, len(runes))
		chunks = append(chunks, string(runes[i:end]))
	}
	return s.With("chunks", chunks), nil
}

// generateSummaries keeps the leading characters of every chunk.
func generateSummaries(_ context.Context, s state.State) (state.State, error) {
	chunks, err := s.Strings("chunks", nil)
	if err != nil {
		return nil, err
	}

	summaries := make([]any, len(chunks))
	for i, chunk := range chunks {
		summaries[i] = truncate(chunk, summaryLength)
	}
	return s.With("summaries", summaries), nil
}

func mergeSummaries(_ context.Context, s state.State) (state.State, error) {
	summaries, err := s.Strings("summaries", nil)
	if err != nil {
		return nil, err
	}
	return s.With("merged_summary", strings.Join(summaries, summarySeparator)), nil
}

// refineSummary bounds the merged summary to max_len characters. A negative
// max_len drops that many trailing characters, leaving summary_ok false.
func refineSummary(_ context.Context, s state.State) (state.State, error) {
	maxLen, err := s.Int("max_len", defaultMaxLength)
	if err != nil {
		return nil, err
	}
	summary, err := s.String("merged_summary", "")
	if err != nil {
		return nil, err
	}

	final := truncate(summary, maxLen)
	next := s.With("final_summary", final)
	return next.With("summary_ok", len([]rune(final)) <= maxLen), nil
}

// truncate returns the first n characters of str. Negative n counts from the
// end, matching slice semantics with a negative stop index.
func truncate(str string, n int) string {
	runes := []rune(str)
	if n < 0 {
		n = max(len(runes)+n, 0)
	}
	if n >= len(runes) {
		return str
	}
	return string(runes[:n])
}
