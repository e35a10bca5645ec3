package exception

import "github.com/yanun0323/errors"

// General errors
var (
	ErrNilInstance     = errors.New("nil instance")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInternal        = errors.New("internal error")
)

// State store errors
var (
	ErrStateNotFound = errors.New("state: record not found")
	ErrStoreClosed   = errors.New("state: store closed")
)

// Orchestrator errors
var (
	ErrInvalidPhase    = errors.New("orchestrator: invalid phase")
	ErrNilCollaborator = errors.New("pipeline: nil collaborator")
)
