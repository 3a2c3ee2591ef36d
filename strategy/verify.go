package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync/atomic"
)

// DoneFunc settles a verification. It must be called exactly once, with either
// a non-nil err, or an identity (absent to reject) and optional info.
type DoneFunc func(identity any, info any, err error)

// VerifyFunc resolves an identity from the tokens and the optional profile.
// It may call done synchronously or from another goroutine.
type VerifyFunc func(ctx context.Context, tokens *TokenResult, profile *Profile, done DoneFunc)

type settlement struct {
	identity any
	info     any
	err      error
}

func (s settlement) outcome() (*Outcome, error) {
	if s.err != nil {
		return nil, NewVerificationError("verify reported an error", s.err)
	}
	if absent(s.identity) {
		return Failure(s.info), nil
	}
	return Success(s.identity, s.info), nil
}

// dispatch runs verify and waits for its single settlement or for ctx to end.
func dispatch(ctx context.Context, logger *slog.Logger, verify VerifyFunc, tokens *TokenResult, profile *Profile) (*Outcome, error) {
	results := make(chan settlement, 1)
	var settled atomic.Bool

	settle := func(s settlement) bool {
		if !settled.CompareAndSwap(false, true) {
			return false
		}
		results <- s
		return true
	}
	done := func(identity any, info any, err error) {
		if !settle(settlement{identity: identity, info: info, err: err}) {
			logger.Error("verify settled more than once", "error", ErrDoneCalledTwice)
		}
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				settle(settlement{err: fmt.Errorf("verify panicked: %v", r)})
			}
		}()
		verify(ctx, tokens, profile, done)
	}()

	select {
	case s := <-results:
		return s.outcome()
	default:
	}

	logger.Debug("verify returned unsettled, waiting for done")
	select {
	case s := <-results:
		return s.outcome()
	case <-ctx.Done():
		logger.Warn("verify never called done before the attempt ended", "error", ctx.Err())
		return nil, ctx.Err()
	}
}

// absent reports whether a verify function declined to produce an identity.
func absent(identity any) bool {
	if identity == nil {
		return true
	}
	switch v := identity.(type) {
	case bool:
		return !v
	case string:
		return v == ""
	}
	rv := reflect.ValueOf(identity)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
