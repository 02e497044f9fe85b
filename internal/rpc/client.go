// Package rpc implements the JSON-RPC 2.0 client used to talk to the
// coin daemon. Every call is a single authenticated POST; there is no
// retry and no connection state — a daemon outage fails loud at the
// call site.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// requestID is fixed: the client issues one request per HTTP exchange,
// so responses never need to be correlated.
const requestID = 42

// Kind classifies a failed call.
type Kind int

const (
	// KindUnauthorized is an HTTP 401 from the daemon.
	KindUnauthorized Kind = iota + 1
	// KindHTTPStatus is any other non-200 HTTP status.
	KindHTTPStatus
	// KindProtocol is a 200 response whose body is not a JSON-RPC envelope.
	KindProtocol
	// KindRPC is a 200 response carrying a non-null error field.
	KindRPC
)

// Error is the transport failure surfaced by Call.
type Error struct {
	Kind    Kind
	Method  string
	Status  int
	Message string
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindUnauthorized:
		return fmt.Sprintf("rpc %s: authentication required (status %d)", e.Method, e.Status)
	case KindHTTPStatus:
		return fmt.Sprintf("rpc %s: request failed with status %d", e.Method, e.Status)
	case KindProtocol:
		return fmt.Sprintf("rpc %s: protocol error: %s", e.Method, e.Message)
	case KindRPC:
		return fmt.Sprintf("rpc %s: daemon error: %s", e.Method, e.Message)
	}
	return fmt.Sprintf("rpc %s: %s", e.Method, e.Message)
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client issues JSON-RPC calls against a single daemon endpoint with a
// static basic-auth credential.
type Client struct {
	endpoint string
	username string
	password string
	httpc    *http.Client
}

func NewClient(host string, port int, username, password string) *Client {
	return &Client{
		endpoint: fmt.Sprintf("http://%s:%d/", host, port),
		username: username,
		password: password,
		httpc:    &http.Client{},
	}
}

// Call performs one request/response exchange. Trailing nil params are
// trimmed so variadic callers degrade to fewer positional arguments.
func (c *Client) Call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	for len(params) > 0 && params[len(params)-1] == nil {
		params = params[:len(params)-1]
	}
	if params == nil {
		params = []any{}
	}
	body, err := json.Marshal(request{
		JSONRPC: "2.0",
		ID:      requestID,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, &Error{Kind: KindProtocol, Method: method, Message: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: KindProtocol, Method: method, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindProtocol, Method: method, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, resp.Body)
		return nil, &Error{Kind: KindUnauthorized, Method: method, Status: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &Error{Kind: KindHTTPStatus, Method: method, Status: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindProtocol, Method: method, Message: err.Error()}
	}
	var parsed response
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &Error{Kind: KindProtocol, Method: method, Message: err.Error()}
	}
	// An error field in a 200 body is a failure; this is the protocol
	// rule, not a transport rule.
	if parsed.Error != nil {
		return nil, &Error{Kind: KindRPC, Method: method, Message: parsed.Error.Message}
	}
	return parsed.Result, nil
}
