package peercred

import (
	"testing"
)

func TestNewCodec(t *testing.T) {
	tests := []struct {
		name      string
		codecType CodecType
		wantName  string
		wantErr   bool
	}{
		{name: "default is msgpack", codecType: "", wantName: "msgpack"},
		{name: "msgpack", codecType: CodecMessagePack, wantName: "msgpack"},
		{name: "json", codecType: CodecJSON},
		{name: "unknown", codecType: "protobuf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec, err := NewCodec(tt.codecType)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewCodec() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if tt.wantName != "" && codec.Name() != tt.wantName {
				t.Errorf("Name() = %s, want %s", codec.Name(), tt.wantName)
			}
		})
	}
}

func TestCodecRoundTrip(t *testing.T) {
	type payload struct {
		UID uint32 `json:"uid" msgpack:"uid"`
		GID uint32 `json:"gid" msgpack:"gid"`
	}

	for _, codecType := range []CodecType{CodecMessagePack, CodecJSON} {
		codec, err := NewCodec(codecType)
		if err != nil {
			t.Fatalf("NewCodec(%s): %v", codecType, err)
		}

		in := payload{UID: 1000, GID: 1000}
		data, err := codec.Marshal(in)
		if err != nil {
			t.Fatalf("%s marshal: %v", codec.Name(), err)
		}

		var out payload
		if err := codec.Unmarshal(data, &out); err != nil {
			t.Fatalf("%s unmarshal: %v", codec.Name(), err)
		}
		if out != in {
			t.Errorf("%s round trip = %+v, want %+v", codec.Name(), out, in)
		}
	}
}
