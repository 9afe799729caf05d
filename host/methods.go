package host

import (
	"context"
	"encoding/json"
	"errors"

	goSpace "github.com/MrEthical07/goSpace"
)

type method func(ctx context.Context, caller string, params json.RawMessage) (any, *Error)

func (s *Server) methodTable() map[string]method {
	e := s.engine
	return map[string]method{
		"login": func(ctx context.Context, caller string, _ json.RawMessage) (any, *Error) {
			ok, err := e.Login(ctx, caller)
			if err != nil && errors.Is(err, goSpace.ErrAutoOpenFailed) {
				return false, nil
			}
			return boolResult(ok, err)
		},
		"isEnabled": func(context.Context, string, json.RawMessage) (any, *Error) {
			ok, err := e.IsEnabled()
			return boolResult(ok, err)
		},
		"getUserAddress": func(context.Context, string, json.RawMessage) (any, *Error) {
			addr, err := e.UserAddress()
			if err != nil {
				return valueResult("", err)
			}
			if addr == "" {
				return nullResult, nil
			}
			return addr, nil
		},
		"isSpaceOpened": func(_ context.Context, caller string, _ json.RawMessage) (any, *Error) {
			ok, err := e.IsSpaceOpened(caller)
			return boolResult(ok, err)
		},
		"openSpace": func(ctx context.Context, caller string, _ json.RawMessage) (any, *Error) {
			ok, err := e.OpenSpace(ctx, caller)
			if err != nil && errors.Is(err, goSpace.ErrStoreFailure) {
				return false, nil
			}
			return boolResult(ok, err)
		},
		"closeSpace": func(ctx context.Context, caller string, _ json.RawMessage) (any, *Error) {
			ok, err := e.CloseSpace(ctx, caller)
			return boolResult(ok, err)
		},
		"getPrivateValue": func(ctx context.Context, caller string, params json.RawMessage) (any, *Error) {
			p, perr := decodeParams(params, "key")
			if perr != nil {
				return nil, &Error{Code: CodeInvalidParams, Message: perr.Error()}
			}
			return valueResult(e.GetPrivateValue(ctx, caller, p[0]))
		},
		"setPrivateValue": func(ctx context.Context, caller string, params json.RawMessage) (any, *Error) {
			p, perr := decodeParams(params, "key", "value")
			if perr != nil {
				return nil, &Error{Code: CodeInvalidParams, Message: perr.Error()}
			}
			return boolResult(e.SetPrivateValue(ctx, caller, p[0], p[1]))
		},
		"getPublicValue": func(ctx context.Context, caller string, params json.RawMessage) (any, *Error) {
			p, perr := decodeParams(params, "key")
			if perr != nil {
				return nil, &Error{Code: CodeInvalidParams, Message: perr.Error()}
			}
			return valueResult(e.GetPublicValue(ctx, caller, p[0]))
		},
		"setPublicValue": func(ctx context.Context, caller string, params json.RawMessage) (any, *Error) {
			p, perr := decodeParams(params, "key", "value")
			if perr != nil {
				return nil, &Error{Code: CodeInvalidParams, Message: perr.Error()}
			}
			return boolResult(e.SetPublicValue(ctx, caller, p[0], p[1]))
		},
		"getPublicSpaceData": func(ctx context.Context, _ string, params json.RawMessage) (any, *Error) {
			p, perr := decodeParams(params, "address", "space")
			if perr != nil {
				return nil, &Error{Code: CodeInvalidParams, Message: perr.Error()}
			}
			data, err := e.GetPublicSpaceData(ctx, p[0], p[1])
			if err != nil {
				return nil, rpcError(err)
			}
			return data, nil
		},
	}
}

// sentinel reports whether err is answered with the method's sentinel
// result instead of a JSON-RPC error.
func sentinel(err error) bool {
	return goSpace.IsGuardViolation(err) || errors.Is(err, goSpace.ErrNoWalletAvailable)
}

func boolResult(ok bool, err error) (any, *Error) {
	if err == nil {
		return ok, nil
	}
	if sentinel(err) {
		return false, nil
	}
	return nil, rpcError(err)
}

func valueResult(value string, err error) (any, *Error) {
	if err == nil {
		return value, nil
	}
	if sentinel(err) {
		return nullResult, nil
	}
	return nil, rpcError(err)
}

func rpcError(err error) *Error {
	switch {
	case errors.Is(err, goSpace.ErrWalletTimeout), errors.Is(err, goSpace.ErrStoreTimeout), errors.Is(err, context.DeadlineExceeded):
		return &Error{Code: CodeTimeout, Message: err.Error()}
	case errors.Is(err, goSpace.ErrProviderRejected):
		return &Error{Code: CodeProviderRejected, Message: err.Error()}
	case errors.Is(err, goSpace.ErrStoreFailure):
		return &Error{Code: CodeStoreFailure, Message: err.Error()}
	case errors.Is(err, goSpace.ErrLoginInProgress):
		return &Error{Code: CodeLoginInProgress, Message: err.Error()}
	case errors.Is(err, goSpace.ErrSessionReset):
		return &Error{Code: CodeSessionReset, Message: err.Error()}
	case errors.Is(err, goSpace.ErrInvalidCaller):
		return &Error{Code: CodeInvalidCaller, Message: err.Error()}
	case errors.Is(err, goSpace.ErrWriteRateLimited):
		return &Error{Code: CodeRateLimited, Message: err.Error()}
	default:
		return &Error{Code: CodeInternalError, Message: "internal error"}
	}
}
