package protocol

import (
	"encoding/json"
	"errors"
	"testing"
)

// jsonCodec is a minimal Codec for tests.
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v interface{}) error { return json.Unmarshal(data, v) }

func TestNewResponseBody(t *testing.T) {
	codec := jsonCodec{}

	resp, err := NewResponse(codec, 7, WhoamiResult{PID: 1234, UID: 1000, GID: 1000, PIDKnown: true})
	if err != nil {
		t.Fatalf("NewResponse: %v", err)
	}
	if !resp.OK || resp.ID != 7 {
		t.Errorf("response = %+v", resp)
	}
	if resp.Err() != nil {
		t.Errorf("Err() = %v, want nil", resp.Err())
	}

	var result WhoamiResult
	if err := resp.DecodeBody(codec, &result); err != nil {
		t.Fatalf("DecodeBody: %v", err)
	}
	if result.PID != 1234 || result.UID != 1000 || !result.PIDKnown {
		t.Errorf("result = %+v", result)
	}
}

func TestErrorResponse(t *testing.T) {
	resp := NewErrorResponse(3, errors.New("unknown method \"tables\""))
	if resp.OK {
		t.Error("error response must not be OK")
	}
	if resp.ID != 3 {
		t.Errorf("id = %d, want 3", resp.ID)
	}

	err := resp.Err()
	if err == nil || err.Error() != "unknown method \"tables\"" {
		t.Errorf("Err() = %v", err)
	}
}

func TestErrorResponseEmptyMessage(t *testing.T) {
	resp := &Response{ID: 1, OK: false}
	if resp.Err() == nil {
		t.Error("Err() should not be nil for a failed response")
	}
}

func TestDecodeBodyNil(t *testing.T) {
	resp := &Response{ID: 1, OK: true}
	var result PingResult
	if err := resp.DecodeBody(jsonCodec{}, &result); err == nil {
		t.Error("expected error decoding nil body")
	}
}
