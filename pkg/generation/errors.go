package generation

import "errors"

// Every error returned by Pipeline.Submit wraps exactly one of these.
var (
	ErrRequest   = errors.New("request error")
	ErrRender    = errors.New("render error")
	ErrCompile   = errors.New("compile error")
	ErrTimeout   = errors.New("timeout error")
	ErrPlacement = errors.New("placement error")
)

const (
	OutcomeSuccess   = "success"
	OutcomeRequest   = "request_error"
	OutcomeRender    = "render_error"
	OutcomeCompile   = "compile_error"
	OutcomeTimeout   = "timeout"
	OutcomePlacement = "placement_error"
	OutcomeUnknown   = "unknown_error"
)

// Outcome classifies err for logs and metrics.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrRequest):
		return OutcomeRequest
	case errors.Is(err, ErrRender):
		return OutcomeRender
	case errors.Is(err, ErrCompile):
		return OutcomeCompile
	case errors.Is(err, ErrTimeout):
		return OutcomeTimeout
	case errors.Is(err, ErrPlacement):
		return OutcomePlacement
	default:
		return OutcomeUnknown
	}
}
