package httpdto

// Code classifies an error response for programmatic callers.
type Code string

const (
	CodeInvalidRequest Code = "INVALID_REQUEST"
	CodeNotFound       Code = "NOT_FOUND"
	CodeUnauthorized   Code = "UNAUTHORIZED"
	CodeRequestFailed  Code = "REQUEST_FAILED"
	CodeUpstreamFailed Code = "UPSTREAM_FAILED"
	CodeInternalError  Code = "INTERNAL_ERROR"
	CodeUnhealthy      Code = "UNHEALTHY"
)

type Response[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    Code   `json:"code,omitempty"`
}

func NewSuccessResponse[T any](data T) Response[T] {
	return Response[T]{
		Success: true,
		Data:    data,
	}
}

func NewErrorResponse(err string, code Code) Response[any] {
	return Response[any]{
		Success: false,
		Error:   err,
		Code:    code,
	}
}
