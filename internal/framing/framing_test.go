package framing

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestFramer_WriteMessage(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr bool
	}{
		{name: "simple message", data: []byte(`{"id":1,"method":"whoami"}`)},
		{name: "empty message", data: []byte{}},
		{name: "binary message", data: []byte{0x82, 0xa2, 0x69, 0x64, 0x01}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			framer := NewFramer(&buf)

			err := framer.WriteMessage(tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("WriteMessage() error = %v, wantErr %v", err, tt.wantErr)
			}

			written := buf.Bytes()
			if len(written) < 4 {
				t.Fatal("frame too short")
			}

			length := binary.BigEndian.Uint32(written[:4])
			if int(length) != len(tt.data) {
				t.Errorf("length mismatch: header=%d, actual=%d", length, len(tt.data))
			}
			if !bytes.Equal(written[4:], tt.data) {
				t.Error("payload mismatch")
			}
		})
	}
}

func TestFramer_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	framer := NewFramer(&buf)

	messages := [][]byte{
		[]byte(`{"id":1,"method":"ping"}`),
		[]byte(`{"id":2,"method":"whoami"}`),
		[]byte(`{"id":3,"method":"status"}`),
	}

	for _, msg := range messages {
		if err := framer.WriteMessage(msg); err != nil {
			t.Fatalf("WriteMessage: %v", err)
		}
	}

	for i, want := range messages {
		got, err := framer.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage %d: %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("message %d = %q, want %q", i, got, want)
		}
	}
}

func TestFramer_MaxFrameSize(t *testing.T) {
	var buf bytes.Buffer
	framer := NewFramerWithMaxSize(&buf, 16)

	if err := framer.WriteMessage([]byte(strings.Repeat("x", 17))); err == nil {
		t.Error("expected error writing oversized message")
	}

	// An incoming frame claiming an oversized length must be rejected
	// before the payload is read.
	var wire bytes.Buffer
	lengthBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(lengthBuf, 1024)
	wire.Write(lengthBuf)
	wire.Write(bytes.Repeat([]byte("x"), 1024))

	reader := NewFramerWithMaxSize(&wire, 16)
	if _, err := reader.ReadMessage(); err == nil {
		t.Error("expected error reading oversized frame")
	}
}

func TestFramer_ReadEOF(t *testing.T) {
	framer := NewFramer(bytes.NewBuffer(nil))
	if _, err := framer.ReadMessage(); !errors.Is(err, io.EOF) {
		t.Errorf("error = %v, want io.EOF", err)
	}
}

func TestFramer_TruncatedFrame(t *testing.T) {
	var buf bytes.Buffer
	lengthBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(lengthBuf, 100)
	buf.Write(lengthBuf)
	buf.Write([]byte("short"))

	framer := NewFramer(&buf)
	if _, err := framer.ReadMessage(); err == nil {
		t.Error("expected error reading truncated frame")
	}
}
