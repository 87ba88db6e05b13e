package spotify

import "google.golang.org/protobuf/encoding/protowire"

// Header is the first part of every mercury message.
type Header struct {
	Uri         string
	ContentType string
	Method      string
	StatusCode  int32
	UserFields  []*UserField
}

func (m *Header) GetUri() string {
	if m == nil {
		return ""
	}
	return m.Uri
}

func (m *Header) GetMethod() string {
	if m == nil {
		return ""
	}
	return m.Method
}

func (m *Header) GetStatusCode() int32 {
	if m == nil {
		return 0
	}
	return m.StatusCode
}

func (m *Header) GetUserFields() []*UserField {
	if m == nil {
		return nil
	}
	return m.UserFields
}

func (m *Header) appendTo(b []byte) []byte {
	if m.Uri != "" {
		b = appendStringField(b, 1, m.Uri)
	}
	if m.ContentType != "" {
		b = appendStringField(b, 2, m.ContentType)
	}
	if m.Method != "" {
		b = appendStringField(b, 3, m.Method)
	}
	if m.StatusCode != 0 {
		b = appendVarintField(b, 4, protowire.EncodeZigZag(int64(m.StatusCode)))
	}
	for _, u := range m.UserFields {
		b = appendMessageField(b, 6, u)
	}
	return b
}

func (m *Header) unmarshal(f field) error {
	switch f.num {
	case 1:
		m.Uri = string(f.bytes)
	case 2:
		m.ContentType = string(f.bytes)
	case 3:
		m.Method = string(f.bytes)
	case 4:
		m.StatusCode = int32(protowire.DecodeZigZag(f.varint))
	case 6:
		u, err := decodeMessage[UserField](f)
		if err != nil {
			return err
		}
		m.UserFields = append(m.UserFields, u)
	}
	return nil
}

type UserField struct {
	Key   string
	Value []byte
}

func (m *UserField) appendTo(b []byte) []byte {
	b = appendStringField(b, 1, m.Key)
	return appendBytesField(b, 2, m.Value)
}

func (m *UserField) unmarshal(f field) error {
	switch f.num {
	case 1:
		m.Key = string(f.bytes)
	case 2:
		m.Value = f.bytes
	}
	return nil
}
