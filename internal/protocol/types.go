// Package protocol defines the request/response envelope exchanged
// between credctl and credd. Envelopes are codec-agnostic: they carry
// both json and msgpack tags and bodies are encoded by whichever Codec
// the endpoints agreed on.
package protocol

import (
	"errors"
	"fmt"
	"time"
)

// Methods understood by credd.
const (
	MethodPing   = "ping"
	MethodStatus = "status"
	MethodWhoami = "whoami"
)

// Codec is the subset of the wire codec the protocol needs to encode
// and decode bodies.
type Codec interface {
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
}

// Request represents a call from a client to credd
type Request struct {
	ID     uint64 `json:"id" msgpack:"id"`
	Method string `json:"method" msgpack:"method"`
}

// Response represents credd's reply to a Request
type Response struct {
	ID       uint64 `json:"id" msgpack:"id"`
	OK       bool   `json:"ok" msgpack:"ok"`
	Body     []byte `json:"body,omitempty" msgpack:"body,omitempty"`
	ErrorMsg string `json:"error,omitempty" msgpack:"error,omitempty"`
}

// PingResult is the body of a ping response
type PingResult struct {
	Message string `json:"message" msgpack:"message"`
}

// WhoamiResult is the body of a whoami response: the caller's own
// identity as the daemon's kernel reported it at accept time. PIDKnown
// is false on platforms whose credential interface carries no pid; PID
// is 0 in that case.
type WhoamiResult struct {
	PID      int32  `json:"pid" msgpack:"pid"`
	UID      uint32 `json:"uid" msgpack:"uid"`
	GID      uint32 `json:"gid" msgpack:"gid"`
	PIDKnown bool   `json:"pid_known" msgpack:"pid_known"`
}

// StatusResult is the body of a status response
type StatusResult struct {
	PID           int32     `json:"pid" msgpack:"pid"`
	UID           uint32    `json:"uid" msgpack:"uid"`
	Socket        string    `json:"socket" msgpack:"socket"`
	StartedAt     time.Time `json:"started_at" msgpack:"started_at"`
	ConnsServed   uint64    `json:"conns_served" msgpack:"conns_served"`
	ConnsActive   int64     `json:"conns_active" msgpack:"conns_active"`
	ConnsRejected uint64    `json:"conns_rejected" msgpack:"conns_rejected"`
}

// NewRequest creates a new request for the given method
func NewRequest(id uint64, method string) *Request {
	return &Request{ID: id, Method: method}
}

// NewResponse creates a new successful response with the body encoded
// by the given codec
func NewResponse(c Codec, id uint64, body interface{}) (*Response, error) {
	bodyBytes, err := c.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response body: %w", err)
	}

	return &Response{
		ID:   id,
		OK:   true,
		Body: bodyBytes,
	}, nil
}

// NewErrorResponse creates a new error response
func NewErrorResponse(id uint64, err error) *Response {
	return &Response{
		ID:       id,
		OK:       false,
		ErrorMsg: err.Error(),
	}
}

// DecodeBody decodes the response body into v using the given codec
func (r *Response) DecodeBody(c Codec, v interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("response body is nil")
	}
	return c.Unmarshal(r.Body, v)
}

// Err returns the error carried by an unsuccessful response, or nil
func (r *Response) Err() error {
	if r.OK {
		return nil
	}
	if r.ErrorMsg == "" {
		return errors.New("unknown error")
	}
	return errors.New(r.ErrorMsg)
}
