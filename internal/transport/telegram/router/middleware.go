package router

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	logx "farebot/pkg/logx"
)

type HandlerFunc func(ctx context.Context, req *Request) error

// Middleware wraps a handler. Chain applies the list outermost-first, so
// Chain(h, a, b) runs a(b(h)).
type Middleware func(next HandlerFunc) HandlerFunc

func Chain(h HandlerFunc, m ...Middleware) HandlerFunc {
	for i := len(m) - 1; i >= 0; i-- {
		h = m[i](h)
	}
	return h
}

// reqLogger prefers the per-request logger, which already carries rid,
// chat_id, from_id and cmd, over the router's plain fallback.
func reqLogger(fallback logx.Logger, req *Request) logx.Logger {
	if req != nil && !req.Logger.IsZero() {
		return req.Logger
	}
	return fallback
}

func MWTimeout(d time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) error {
			if d <= 0 {
				return next(ctx, req)
			}
			tctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(tctx, req)
		}
	}
}

// MWPanicRecover turns a handler panic into an error so one bad command
// cannot take a dispatch worker down.
func MWPanicRecover(log logx.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				reqLogger(log, req).Error("panic in command handler",
					logx.Any("panic", r),
					logx.String("stack", string(debug.Stack())))
				err = fmt.Errorf("panic: %v", r)
			}()
			return next(ctx, req)
		}
	}
}

// MWRequestLog records each command's verdict and duration. The request
// identity lives on the per-request logger, so only the outcome is added
// here; fast successes stay at DEBUG to keep INFO readable.
func MWRequestLog(log logx.Logger) Middleware {
	const slow = 750 * time.Millisecond
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) error {
			start := time.Now()
			err := next(ctx, req)
			took := time.Since(start)

			logger := reqLogger(log, req)
			switch {
			case err != nil:
				logger.Warn("request failed", logx.Duration("took", took), logx.Err(err))
			case took >= slow:
				logger.Info("request ok", logx.Duration("took", took))
			default:
				logger.Debug("request ok", logx.Duration("took", took))
			}
			return err
		}
	}
}
