package strategy

import (
	"context"
	"errors"
)

// OutcomeKind tags an Outcome.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota + 1
	OutcomeFailure
	OutcomeRedirect
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeRedirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Outcome is the terminal result of one authentication attempt.
// Identity and Info are set for success, Info for failure, URL for redirect.
type Outcome struct {
	Kind     OutcomeKind
	Identity any
	Info     any
	URL      string
}

// Info is the info the strategy attaches to failures it produces itself.
// Verify functions may use it for their own info as well.
type Info struct {
	Message string `json:"message"`
}

// Success returns a success outcome.
func Success(identity, info any) *Outcome {
	return &Outcome{Kind: OutcomeSuccess, Identity: identity, Info: info}
}

// Failure returns a failure outcome.
func Failure(info any) *Outcome {
	return &Outcome{Kind: OutcomeFailure, Info: info}
}

// Redirect returns a redirect outcome.
func Redirect(url string) *Outcome {
	return &Outcome{Kind: OutcomeRedirect, URL: url}
}

// Sink receives the result of an attempt. Exactly one method is called per attempt.
type Sink interface {
	Success(identity, info any)
	Fail(info any)
	Redirect(url string)
	Error(err error)
}

// Report delivers the result of Authenticate to sink. Nothing is delivered when
// the attempt was abandoned because its context ended.
func Report(outcome *Outcome, err error, sink Sink) {
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		sink.Error(err)
		return
	}
	switch outcome.Kind {
	case OutcomeSuccess:
		sink.Success(outcome.Identity, outcome.Info)
	case OutcomeFailure:
		sink.Fail(outcome.Info)
	case OutcomeRedirect:
		sink.Redirect(outcome.URL)
	}
}
