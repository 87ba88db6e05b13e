// Package spotify holds the wire messages exchanged with the access point,
// the login5 endpoint, the mercury multiplexer and the playplay license
// service. Each message knows how to encode itself to and decode itself from
// the protobuf wire format; only the fields this client uses are modelled,
// unknown fields are skipped on decode.
package spotify

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Message is a wire message that can be encoded and decoded.
type Message interface {
	appendTo(b []byte) []byte
	unmarshal(f field) error
}

// Marshal encodes m to its wire form.
func Marshal(m Message) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("marshal: nil message")
	}
	return m.appendTo(nil), nil
}

// Unmarshal decodes b into m.
func Unmarshal(b []byte, m Message) error {
	return walk(b, m.unmarshal)
}

type field struct {
	num    protowire.Number
	typ    protowire.Type
	varint uint64
	bytes  []byte
}

func walk(b []byte, fn func(f field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("consuming tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.varint, n = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("skipping field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
			continue
		}
		if n < 0 {
			return fmt.Errorf("consuming field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]

		if err := fn(f); err != nil {
			return fmt.Errorf("field %d: %w", num, err)
		}
	}
	return nil
}

// repeatedVarints handles both the packed and the unpacked encoding of a
// repeated scalar field.
func repeatedVarints(f field) ([]uint64, error) {
	if f.typ == protowire.VarintType {
		return []uint64{f.varint}, nil
	}
	if f.typ != protowire.BytesType {
		return nil, fmt.Errorf("unexpected wire type %d", f.typ)
	}
	var out []uint64
	b := f.bytes
	for len(b) > 0 {
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		out = append(out, v)
		b = b[n:]
	}
	return out, nil
}

func decodeMessage[T any, P interface {
	*T
	Message
}](f field) (P, error) {
	if f.typ != protowire.BytesType {
		return nil, fmt.Errorf("unexpected wire type %d for message", f.typ)
	}
	m := P(new(T))
	if err := Unmarshal(f.bytes, m); err != nil {
		return nil, err
	}
	return m, nil
}

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBoolField(b []byte, num protowire.Number, v bool) []byte {
	return appendVarintField(b, num, protowire.EncodeBool(v))
}

func appendBytesField(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendStringField(b []byte, num protowire.Number, v string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendMessageField(b []byte, num protowire.Number, m Message) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, m.appendTo(nil))
}

// appendEmptyField writes a present-but-empty submessage, which proto2
// required fields need.
func appendEmptyField(b []byte, num protowire.Number) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendVarint(b, 0)
}
