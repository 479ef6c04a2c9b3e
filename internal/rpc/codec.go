// Package rpc defines the cloudrive.Drive gRPC service: its messages, the
// wire codec, the service descriptor and a typed client.
//
// Unary messages are plain Go structs encoded as JSON. The Upload and
// Download stream messages carry file bytes and use protobuf wire format,
// so chunks travel without base64 inflation. Clients must select the codec
// with grpc.CallContentSubtype(CodecName); DriveClient does so on every
// call.
package rpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content-subtype of the codec.
const CodecName = "cloudrive"

type codec struct{}

func (codec) Marshal(v any) ([]byte, error) {
	if m, ok := v.(wireMessage); ok {
		return m.marshalWire(), nil
	}
	return json.Marshal(v)
}

func (codec) Unmarshal(data []byte, v any) error {
	if m, ok := v.(wireMessage); ok {
		return m.unmarshalWire(data)
	}
	return json.Unmarshal(data, v)
}

func (codec) Name() string {
	return CodecName
}

func init() {
	encoding.RegisterCodec(codec{})
}
