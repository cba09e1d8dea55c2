package domain

import (
	"errors"
	"fmt"
)

type DispatchStage string

const (
	DispatchStageResolve  DispatchStage = "resolve"
	DispatchStageValidate DispatchStage = "validate"
	DispatchStageCall     DispatchStage = "call"
)

type DispatchError struct {
	Stage DispatchStage
	Err   error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

func NewDispatchError(stage DispatchStage, err error) error {
	if err == nil {
		return nil
	}
	var dispatchErr *DispatchError
	if errors.As(err, &dispatchErr) {
		return err
	}
	return &DispatchError{Stage: stage, Err: err}
}

func DispatchStageFrom(err error) (DispatchStage, bool) {
	var dispatchErr *DispatchError
	if errors.As(err, &dispatchErr) {
		return dispatchErr.Stage, true
	}
	return "", false
}
