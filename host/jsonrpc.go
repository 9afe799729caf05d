package host

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MaxRequestBodySize is the maximum allowed size for request bodies (1MB).
const MaxRequestBodySize = 1 << 20

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// Standard JSON-RPC error codes
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Application error codes
const (
	CodeProviderRejected = -32001
	CodeStoreFailure     = -32002
	CodeLoginInProgress  = -32003
	CodeSessionReset     = -32004
	CodeTimeout          = -32005
	CodeInvalidCaller    = -32006
	CodeRateLimited      = -32029
)

// nullResult marshals as a JSON null while surviving omitempty.
var nullResult = json.RawMessage("null")

var errInvalidParams = errors.New("invalid params")

// decodeParams reads params given either positionally (["k","v"]) or by name
// ({"key":"k","value":"v"}) into len(names) strings.
func decodeParams(raw json.RawMessage, names ...string) ([]string, error) {
	out := make([]string, len(names))
	if len(names) == 0 {
		return out, nil
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("%w: expected %d params", errInvalidParams, len(names))
	}

	switch raw[0] {
	case '[':
		var list []string
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
		}
		if len(list) != len(names) {
			return nil, fmt.Errorf("%w: expected %d params, got %d", errInvalidParams, len(names), len(list))
		}
		copy(out, list)
	case '{':
		var byName map[string]string
		if err := json.Unmarshal(raw, &byName); err != nil {
			return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
		}
		for i, name := range names {
			v, ok := byName[name]
			if !ok {
				return nil, fmt.Errorf("%w: missing %q", errInvalidParams, name)
			}
			out[i] = v
		}
	default:
		return nil, fmt.Errorf("%w: params must be an array or object", errInvalidParams)
	}
	return out, nil
}
