package domain

import (
	"fmt"
	"strings"
)

// FailurePolicy decides what a multi-step stage does after one step fails.
type FailurePolicy int

const (
	// ContinueOnError logs the failure and carries on with what it has.
	ContinueOnError FailurePolicy = iota
	// AbortOnError stops the stage and returns the failure.
	AbortOnError
)

// ParseFailurePolicy accepts "continue" or "abort". Empty means continue.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "continue":
		return ContinueOnError, nil
	case "abort":
		return AbortOnError, nil
	default:
		return ContinueOnError, fmt.Errorf("unknown failure policy %q (want continue or abort)", s)
	}
}

func (p FailurePolicy) String() string {
	if p == AbortOnError {
		return "abort"
	}
	return "continue"
}
