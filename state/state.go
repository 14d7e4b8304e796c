package state

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"strconv"

	"github.com/google/go-cmp/cmp"
	"github.com/mohae/deepcopy"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// State is the working payload a run carries from node to node.
//
// Values are restricted to JSON kinds: nil, bool, numbers, string, []any and
// map[string]any. Decoded request bodies produce exactly these kinds; Go
// integer kinds are also accepted from in-process callers and compare equal to
// the float64 of the same value.
//
// Tools treat State as immutable: With returns a new State, and Clone produces
// a deep copy suitable for log snapshots.
type State map[string]any

// Clone returns a deep copy of the State.
//
// Nested maps and slices are copied, so mutating the clone (or any container
// reachable from it) never affects the original. A nil State clones to an
// empty one.
//
// Example:
//
//	snapshot := s.Clone()
//	s["chunks"].([]any)[0] = "changed"
//	// snapshot still holds the original chunk
func (s State) Clone() State {
	if s == nil {
		return State{}
	}
	return deepcopy.Copy(s).(State)
}

// With returns a shallow copy of the State with key set to value.
// The receiver is not modified.
func (s State) With(key string, value any) State {
	next := maps.Clone(s)
	if next == nil {
		next = State{}
	}
	next[key] = value
	return next
}

// Get returns the value stored under key and whether it was present.
func (s State) Get(key string) (any, bool) {
	v, ok := s[key]
	return v, ok
}

// String reads a string value, returning def when key is absent.
func (s State) String(key, def string) (string, error) {
	v, ok := s[key]
	if !ok {
		return def, nil
	}
	str, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is %T, want string", ErrKind, key, v)
	}
	return str, nil
}

// Int reads an integral number, returning def when key is absent.
// Floats are accepted only when they carry an integral value.
func (s State) Int(key string, def int) (int, error) {
	v, ok := s[key]
	if !ok {
		return def, nil
	}
	n, ok := toInt(v)
	if !ok {
		return 0, fmt.Errorf("%w: %s is %v (%T), want integer", ErrKind, key, v, v)
	}
	return n, nil
}

// Strings reads a sequence of strings, returning def when key is absent.
func (s State) Strings(key string, def []string) ([]string, error) {
	v, ok := s[key]
	if !ok {
		return def, nil
	}
	switch seq := v.(type) {
	case []string:
		return seq, nil
	case []any:
		out := make([]string, len(seq))
		for i, item := range seq {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s[%d] is %T, want string", ErrKind, key, i, item)
			}
			out[i] = str
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s is %T, want sequence", ErrKind, key, v)
	}
}

// Equal reports whether two state values are deeply equal.
//
// Values are compared as protobuf Value messages, so numbers compare by value
// regardless of Go kind and nested lists and maps compare element-wise.
// Values with no JSON representation fall back to structural comparison.
func Equal(a, b any) bool {
	va, errA := structpb.NewValue(plain(a))
	vb, errB := structpb.NewValue(plain(b))
	if errA == nil && errB == nil {
		return proto.Equal(va, vb)
	}
	return cmp.Equal(a, b)
}

// ToStruct converts the State into a protobuf Struct.
func (s State) ToStruct() (*structpb.Struct, error) {
	st, err := structpb.NewStruct(map[string]any(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKind, err)
	}
	return st, nil
}

// FromStruct converts a protobuf Struct into a State. A nil Struct yields an
// empty State.
func FromStruct(st *structpb.Struct) State {
	if st == nil {
		return State{}
	}
	return State(st.AsMap())
}

// plain converts State values nested anywhere in v to map[string]any so
// structpb accepts them.
func plain(v any) any {
	switch x := v.(type) {
	case State:
		return plainMap(x)
	case map[string]any:
		return plainMap(x)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = plain(item)
		}
		return out
	default:
		return v
	}
}

func plainMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, item := range m {
		out[k] = plain(item)
	}
	return out
}

// toInt converts integral values that fit in int. Values outside the int range
// are rejected rather than wrapped.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int64ToInt(n)
	case uint:
		return uint64ToInt(uint64(n))
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return uint64ToInt(uint64(n))
	case uint64:
		return uint64ToInt(n)
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int64ToInt(i)
	default:
		return 0, false
	}
}

func int64ToInt(n int64) (int, bool) {
	if n > math.MaxInt || n < math.MinInt {
		return 0, false
	}
	return int(n), true
}

func uint64ToInt(n uint64) (int, bool) {
	if n > math.MaxInt {
		return 0, false
	}
	return int(n), true
}

// intBound is 2^(bits-1), the first float beyond the int range. It is exact in
// float64, unlike float64(math.MaxInt).
var intBound = math.Ldexp(1, strconv.IntSize-1)

func floatToInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f >= intBound || f < -intBound {
		return 0, false
	}
	return int(f), true
}
