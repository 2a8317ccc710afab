package domain

import (
	"errors"
	"fmt"
)

type FaultKind string

const (
	KindValidation        FaultKind = "validation"
	KindNotFound          FaultKind = "not_found"
	KindRoomFull          FaultKind = "room_full"
	KindRoomStarted       FaultKind = "room_started"
	KindBanned            FaultKind = "banned"
	KindUnauthorized      FaultKind = "unauthorized"
	KindResourceExhausted FaultKind = "resource_exhausted"
	KindDeliveryFailed    FaultKind = "delivery_failed"
	KindInternal          FaultKind = "internal"
)

// Fault is the only error shape that leaves the room subsystem.
// errors.Is matches two faults by kind.
type Fault struct {
	Kind    FaultKind
	Message string
}

func NewFault(kind FaultKind, msg string) *Fault {
	return &Fault{Kind: kind, Message: msg}
}

func Faultf(kind FaultKind, format string, args ...any) *Fault {
	return &Fault{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Fault) Is(target error) bool {
	t, ok := target.(*Fault)
	return ok && t.Kind == f.Kind
}

var (
	ErrRoomNotFound       = NewFault(KindNotFound, "room not found")
	ErrPlayerNotInRoom    = NewFault(KindNotFound, "player is not in the room")
	ErrRoomFull           = NewFault(KindRoomFull, "room is full")
	ErrRoomStarted        = NewFault(KindRoomStarted, "room already started")
	ErrPlayerBanned       = NewFault(KindBanned, "player is banned from the room")
	ErrNotCreator         = NewFault(KindUnauthorized, "only the room creator can do this")
	ErrCodeSpaceExhausted = NewFault(KindResourceExhausted, "failed to generate unique room code")
)

// KindOf reports the fault kind carried by err, KindInternal for foreign errors.
func KindOf(err error) FaultKind {
	if err == nil {
		return ""
	}
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindInternal
}

// Result is the wire shape of an operation outcome.
type Result struct {
	Success bool      `json:"success"`
	Kind    FaultKind `json:"kind,omitempty"`
	Message string    `json:"message,omitempty"`
}

// ResultOf never exposes the text of a non-fault error.
func ResultOf(err error) Result {
	if err == nil {
		return Result{Success: true}
	}
	var f *Fault
	if errors.As(err, &f) {
		return Result{Kind: f.Kind, Message: f.Message}
	}
	return Result{Kind: KindInternal, Message: "internal error"}
}

func (r Result) Err() error {
	if r.Success {
		return nil
	}
	return NewFault(r.Kind, r.Message)
}
