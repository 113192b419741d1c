package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"
)

// ErrRPC matches every *RPCError.
var ErrRPC = errors.New("rpc error")

// RPCError is a failed JSON-RPC call. Code is the JSON-RPC error code from
// the node, or 0 when the request never produced a JSON-RPC response
// (connection, HTTP or decoding failure).
type RPCError struct {
	Method  string
	Code    int
	Message string
	Err     error
}

func (e *RPCError) Error() string {
	if e.Code == 0 {
		return fmt.Sprintf("rpc %s: %s", e.Method, e.Message)
	}
	return fmt.Sprintf("rpc %s: code %d: %s", e.Method, e.Code, e.Message)
}

// Is makes errors.Is(err, ErrRPC) true.
func (e *RPCError) Is(target error) bool {
	return target == ErrRPC
}

func (e *RPCError) Unwrap() error {
	return e.Err
}

// Transport reports whether the failure happened below the JSON-RPC layer.
func (e *RPCError) Transport() bool {
	return e.Code == 0
}

// IsRetryable reports whether err is a transport failure worth retrying.
// Node-side rejections (nonce too low, insufficient funds) are not, and
// neither is a cancelled context.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var re *RPCError
	if !errors.As(err, &re) {
		return false
	}
	return re.Transport()
}

func wrapError(method string, err error) error {
	if err == nil {
		return nil
	}
	var jsonErr rpc.Error
	if errors.As(err, &jsonErr) {
		return &RPCError{Method: method, Code: jsonErr.ErrorCode(), Message: jsonErr.Error(), Err: err}
	}
	return &RPCError{Method: method, Message: err.Error(), Err: err}
}
