// Package state defines the payload that flows through workflow runs.
//
// A State is an open, JSON-shaped map. Tools read typed values from it with
// defaults, return updated copies with With, and the engine snapshots it with
// Clone after every step so log entries never observe later mutations.
//
//	s := state.State{"text": "hello world", "chunk_size": 5}
//	size, err := s.Int("chunk_size", 50)  // 5, nil
//	next := s.With("chunks", []any{"hello", " worl", "d"})
//	snapshot := next.Clone()
//
// # Equality
//
// Conditional edges compare state values with Equal, which treats the value
// space as the protobuf Value union (null, bool, number, string, list,
// struct). Integer and float numbers of equal value are equal; lists and maps
// compare deeply.
//
// # Wire conversion
//
// ToStruct and FromStruct convert between State and google.protobuf.Struct for
// the RPC transport.
package state
