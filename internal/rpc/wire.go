package rpc

import (
	"errors"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

// wireMessage is implemented by the stream messages, which carry file
// bytes and are encoded in protobuf wire format instead of JSON.
type wireMessage interface {
	marshalWire() []byte
	unmarshalWire(b []byte) error
}

var errWireType = errors.New("rpc: unexpected wire type")

// Field numbers.
const (
	uploadHeaderField protowire.Number = 1
	uploadChunkField  protowire.Number = 2

	headerParentField protowire.Number = 1
	headerNameField   protowire.Number = 2

	downloadNodeField  protowire.Number = 1
	downloadChunkField protowire.Number = 2

	nodeIDField        protowire.Number = 1
	nodeParentField    protowire.Number = 2
	nodeNameField      protowire.Number = 3
	nodeKindField      protowire.Number = 4
	nodeSizeField      protowire.Number = 5
	nodeCreatedAtField protowire.Number = 6
	nodeUpdatedAtField protowire.Number = 7
)

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendInt(b []byte, num protowire.Number, v int64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeZigZag(v))
}

func appendTime(b []byte, num protowire.Number, t time.Time) []byte {
	if t.IsZero() {
		return b
	}
	return appendInt(b, num, t.UnixNano())
}

// consumeFields walks b and calls fn with each field's number, type and
// raw value bytes (the varint itself for VarintType).
func consumeFields(b []byte, fn func(num protowire.Number, typ protowire.Type, v []byte, x uint64) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		switch typ {
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			if err := fn(num, typ, v, 0); err != nil {
				return err
			}
			b = b[n:]
		case protowire.VarintType:
			x, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			if err := fn(num, typ, nil, x); err != nil {
				return err
			}
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return nil
}

func (h *UploadHeader) marshalWire() []byte {
	var b []byte
	b = appendString(b, headerParentField, h.ParentID)
	b = appendString(b, headerNameField, h.Name)
	return b
}

func (h *UploadHeader) unmarshalWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, v []byte, _ uint64) error {
		switch num {
		case headerParentField:
			if typ != protowire.BytesType {
				return errWireType
			}
			h.ParentID = string(v)
		case headerNameField:
			if typ != protowire.BytesType {
				return errWireType
			}
			h.Name = string(v)
		}
		return nil
	})
}

func (m *UploadMessage) marshalWire() []byte {
	var b []byte
	if m.Header != nil {
		b = protowire.AppendTag(b, uploadHeaderField, protowire.BytesType)
		b = protowire.AppendBytes(b, m.Header.marshalWire())
	}
	return appendBytes(b, uploadChunkField, m.Chunk)
}

func (m *UploadMessage) unmarshalWire(b []byte) error {
	*m = UploadMessage{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, v []byte, _ uint64) error {
		if typ != protowire.BytesType && (num == uploadHeaderField || num == uploadChunkField) {
			return errWireType
		}
		switch num {
		case uploadHeaderField:
			m.Header = &UploadHeader{}
			return m.Header.unmarshalWire(v)
		case uploadChunkField:
			m.Chunk = append([]byte(nil), v...)
		}
		return nil
	})
}

func (n *Node) marshalWire() []byte {
	var b []byte
	b = appendString(b, nodeIDField, n.ID)
	b = appendString(b, nodeParentField, n.ParentID)
	b = appendString(b, nodeNameField, n.Name)
	b = appendString(b, nodeKindField, n.Kind)
	b = appendInt(b, nodeSizeField, n.Size)
	b = appendTime(b, nodeCreatedAtField, n.CreatedAt)
	b = appendTime(b, nodeUpdatedAtField, n.UpdatedAt)
	return b
}

func (n *Node) unmarshalWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, v []byte, x uint64) error {
		switch num {
		case nodeIDField, nodeParentField, nodeNameField, nodeKindField:
			if typ != protowire.BytesType {
				return errWireType
			}
		case nodeSizeField, nodeCreatedAtField, nodeUpdatedAtField:
			if typ != protowire.VarintType {
				return errWireType
			}
		}
		switch num {
		case nodeIDField:
			n.ID = string(v)
		case nodeParentField:
			n.ParentID = string(v)
		case nodeNameField:
			n.Name = string(v)
		case nodeKindField:
			n.Kind = string(v)
		case nodeSizeField:
			n.Size = protowire.DecodeZigZag(x)
		case nodeCreatedAtField:
			n.CreatedAt = time.Unix(0, protowire.DecodeZigZag(x)).UTC()
		case nodeUpdatedAtField:
			n.UpdatedAt = time.Unix(0, protowire.DecodeZigZag(x)).UTC()
		}
		return nil
	})
}

func (m *DownloadMessage) marshalWire() []byte {
	var b []byte
	if m.Node != nil {
		b = protowire.AppendTag(b, downloadNodeField, protowire.BytesType)
		b = protowire.AppendBytes(b, m.Node.marshalWire())
	}
	return appendBytes(b, downloadChunkField, m.Chunk)
}

func (m *DownloadMessage) unmarshalWire(b []byte) error {
	*m = DownloadMessage{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, v []byte, _ uint64) error {
		if typ != protowire.BytesType && (num == downloadNodeField || num == downloadChunkField) {
			return errWireType
		}
		switch num {
		case downloadNodeField:
			m.Node = &Node{}
			return m.Node.unmarshalWire(v)
		case downloadChunkField:
			m.Chunk = append([]byte(nil), v...)
		}
		return nil
	})
}
