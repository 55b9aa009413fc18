package rpckit

// Error is a transport-level RPC error that can be mapped by the caller
// to a concrete wire format (e.g. JSON-RPC error object).
type Error struct {
	Code    int
	Message string
	Data    any
}

func InvalidParams() *Error {
	return &Error{Code: -32602, Message: "invalid params"}
}

func ServiceError(code int, err error) *Error {
	return &Error{Code: code, Message: err.Error()}
}

// KindError carries a classified failure: the wire message is the raw error,
// data holds the stable kind and a human readable message.
func KindError(code int, kind, humanMessage string, err error) *Error {
	return &Error{
		Code:    code,
		Message: err.Error(),
		Data:    map[string]string{"kind": kind, "message": humanMessage},
	}
}
