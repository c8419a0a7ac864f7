package rangeserve

import (
	"errors"
	"fmt"
	"net/http"
)

// State of a single range request
type State int

const (
	StateReceived State = iota
	StateRangeParsed
	StateWindowResolved
	StateHeadersSent
	StateStreaming
	StateCompleted
	// StateFailed means an error response was written, no partial content was sent
	StateFailed
	// StateAborted means the failure happened after headers were committed
	StateAborted
)

var stateNames = map[State]string{
	StateReceived:       "received",
	StateRangeParsed:    "range_parsed",
	StateWindowResolved: "window_resolved",
	StateHeadersSent:    "headers_sent",
	StateStreaming:      "streaming",
	StateCompleted:      "completed",
	StateFailed:         "failed",
	StateAborted:        "aborted",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Result describes how a request ended
type Result struct {
	State   State
	Window  Window
	Written int64
	Err     error
}

// Responder serves byte windows of resources
type Responder struct {
	policy ChunkPolicy

	// OnTransition is called on every state change if set
	OnTransition func(r *http.Request, s State)
}

// NewResponder creates responder with chunk policy
func NewResponder(policy ChunkPolicy) (*Responder, error) {
	if err := policy.Valid(); err != nil {
		return nil, err
	}
	return &Responder{policy: policy}, nil
}

// Serve drives one request through its lifecycle.
// Failures before headers are answered with an error response here,
// an aborted result must be handled by the caller by dropping the connection.
func (rs *Responder) Serve(w http.ResponseWriter, r *http.Request, res Resource) Result {
	ret := Result{}
	enter := func(s State) {
		ret.State = s
		if rs.OnTransition != nil {
			rs.OnTransition(r, s)
		}
	}
	fail := func(err error) Result {
		WriteError(w, err)
		ret.Err = err
		enter(StateFailed)
		return ret
	}
	enter(StateReceived)

	candidate, err := RangeRequestFrom(r.Header).Parse()
	if err != nil {
		return fail(err)
	}
	enter(StateRangeParsed)

	size, err := res.Size()
	if err != nil {
		return fail(err)
	}
	win, err := Resolve(candidate, size, rs.policy)
	if err != nil {
		return fail(err)
	}
	ret.Window = win
	enter(StateWindowResolved)

	headOnly := r.Method == http.MethodHead
	ret.Written, err = execute(r.Context(), res, win, w, headOnly, enter)
	switch {
	case err == nil:
		enter(StateCompleted)
	case errors.Is(err, ErrStreamIO):
		ret.Err = err
		enter(StateAborted)
	default:
		return fail(err)
	}
	return ret
}

// Handler returns http handler which serves res and drops the connection when aborted
func (rs *Responder) Handler(res Resource) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ret := rs.Serve(w, r, res); ret.State == StateAborted {
			panic(http.ErrAbortHandler)
		}
	})
}

// WriteError writes status and plain text body for err
func WriteError(w http.ResponseWriter, err error) {
	h := w.Header()
	h.Set("Accept-Ranges", "bytes")
	var ns *NotSatisfiableError
	if errors.As(err, &ns) {
		h.Set("Content-Range", UnsatisfiedContentRange(ns.Size))
	}
	http.Error(w, "Error - "+clientMessage(err), StatusCode(err))
}
