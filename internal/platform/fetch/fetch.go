// Package fetch carries collaborator reads together with where the value came from.
//
// Fallback policy:
//   - profile, goals and plan read through the local cache; a miss goes to the durable store
//   - gamification state loads from the cache and is merged with the durable store; if that read fails the cached copy stands
//   - lesson, quiz and challenge catalog: durable store first, embedded catalog on failure or empty
//   - per-user lesson/challenge progress: empty progress on failure
//   - streak reads fail closed and never use this type
package fetch

import "fmt"

type Source string

const (
	SourceRemote   Source = "remote"
	SourceCache    Source = "cache"
	SourceFallback Source = "fallback"
)

// FetchError names the collaborator that failed and the operation attempted.
type FetchError struct {
	Collaborator string
	Op           string
	Err          error
}

func (e *FetchError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("%s %s: empty result", e.Collaborator, e.Op)
	}
	return fmt.Sprintf("%s %s: %v", e.Collaborator, e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

type Result[T any] struct {
	Value  T
	Source Source
	Err    *FetchError
}

func Remote[T any](v T) Result[T] {
	return Result[T]{Value: v, Source: SourceRemote}
}

func Cached[T any](v T, cause *FetchError) Result[T] {
	return Result[T]{Value: v, Source: SourceCache, Err: cause}
}

func Fallback[T any](v T, cause *FetchError) Result[T] {
	return Result[T]{Value: v, Source: SourceFallback, Err: cause}
}

// Degraded reports whether a collaborator failed or the value is a fallback.
// A plain cache hit is not degraded.
func (r Result[T]) Degraded() bool {
	return r.Err != nil || r.Source == SourceFallback
}

func NewError(collaborator, op string, err error) *FetchError {
	return &FetchError{Collaborator: collaborator, Op: op, Err: err}
}
