package propagate

import (
	"fmt"
	"reflect"
)

// Kind identifies which variant a state carries
type Kind int

const (
	// KindData carries a data payload
	KindData Kind = iota
	// KindError carries an error payload
	KindError
	// KindLEEO carries a loading/empty/error/offline payload (replay hub only)
	KindLEEO
	// KindCancelled is the terminal state, it carries no payload
	KindCancelled
)

// String returns a string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindError:
		return "error"
	case KindLEEO:
		return "leeo"
	case KindCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// StreamState is a single event delivered by a Publisher: data, an error,
// or the terminal cancellation. The zero value is Data of the zero T.
type StreamState[T any, E error] struct {
	kind Kind
	data T
	err  E
}

// Data creates a data state
func Data[T any, E error](v T) StreamState[T, E] {
	return StreamState[T, E]{kind: KindData, data: v}
}

// Error creates an error state
func Error[T any, E error](err E) StreamState[T, E] {
	return StreamState[T, E]{kind: KindError, err: err}
}

// Cancelled creates the terminal state
func Cancelled[T any, E error]() StreamState[T, E] {
	return StreamState[T, E]{kind: KindCancelled}
}

// Kind returns the state variant
func (s StreamState[T, E]) Kind() Kind {
	return s.kind
}

// Data returns the data payload, ok is false for non-data states
func (s StreamState[T, E]) Data() (v T, ok bool) {
	if s.kind != KindData {
		return v, false
	}
	return s.data, true
}

// Err returns the error payload, ok is false for non-error states
func (s StreamState[T, E]) Err() (err E, ok bool) {
	if s.kind != KindError {
		return err, false
	}
	return s.err, true
}

// IsCancelled reports whether s is the terminal state
func (s StreamState[T, E]) IsCancelled() bool {
	return s.kind == KindCancelled
}

// Equal reports whether both states have the same kind and deeply equal payloads
func (s StreamState[T, E]) Equal(o StreamState[T, E]) bool {
	if s.kind != o.kind {
		return false
	}
	switch s.kind {
	case KindData:
		return reflect.DeepEqual(s.data, o.data)
	case KindError:
		return reflect.DeepEqual(s.err, o.err)
	default:
		return true
	}
}

func (s StreamState[T, E]) String() string {
	switch s.kind {
	case KindData:
		return fmt.Sprintf("data(%v)", s.data)
	case KindError:
		return fmt.Sprintf("error(%v)", any(s.err))
	default:
		return s.kind.String()
	}
}

// ReplayState is a single event delivered by a StreamPublisher: new data, a
// LEEO (loading, empty, error, offline) payload, or the terminal cancellation.
type ReplayState[D, L any] struct {
	kind Kind
	data D
	leeo L
}

// NewData creates a data state
func NewData[D, L any](v D) ReplayState[D, L] {
	return ReplayState[D, L]{kind: KindData, data: v}
}

// LEEO creates a loading/empty/error/offline state
func LEEO[D, L any](v L) ReplayState[D, L] {
	return ReplayState[D, L]{kind: KindLEEO, leeo: v}
}

// ReplayCancelled creates the terminal state
func ReplayCancelled[D, L any]() ReplayState[D, L] {
	return ReplayState[D, L]{kind: KindCancelled}
}

// Kind returns the state variant
func (s ReplayState[D, L]) Kind() Kind {
	return s.kind
}

// Data returns the data payload, ok is false for non-data states
func (s ReplayState[D, L]) Data() (v D, ok bool) {
	if s.kind != KindData {
		return v, false
	}
	return s.data, true
}

// LEEO returns the LEEO payload, ok is false for non-LEEO states
func (s ReplayState[D, L]) LEEO() (v L, ok bool) {
	if s.kind != KindLEEO {
		return v, false
	}
	return s.leeo, true
}

// IsCancelled reports whether s is the terminal state
func (s ReplayState[D, L]) IsCancelled() bool {
	return s.kind == KindCancelled
}

// Equal reports whether both states have the same kind and deeply equal payloads
func (s ReplayState[D, L]) Equal(o ReplayState[D, L]) bool {
	if s.kind != o.kind {
		return false
	}
	switch s.kind {
	case KindData:
		return reflect.DeepEqual(s.data, o.data)
	case KindLEEO:
		return reflect.DeepEqual(s.leeo, o.leeo)
	default:
		return true
	}
}

func (s ReplayState[D, L]) String() string {
	switch s.kind {
	case KindData:
		return fmt.Sprintf("data(%v)", s.data)
	case KindLEEO:
		return fmt.Sprintf("leeo(%v)", s.leeo)
	default:
		return s.kind.String()
	}
}
