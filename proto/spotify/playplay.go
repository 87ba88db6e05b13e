package spotify

type ContentType int32

const (
	ContentType_AUDIO_TRACK   ContentType = 0
	ContentType_AUDIO_EPISODE ContentType = 1
)

type Interactivity int32

const (
	Interactivity_DOWNLOAD    Interactivity = 0
	Interactivity_INTERACTIVE Interactivity = 1
)

type PlayPlayLicenseRequest struct {
	Version       int32
	Token         []byte
	CacheId       []byte
	Interactivity Interactivity
	ContentType   ContentType
	Timestamp     int64
}

func (m *PlayPlayLicenseRequest) GetToken() []byte {
	if m == nil {
		return nil
	}
	return m.Token
}

func (m *PlayPlayLicenseRequest) appendTo(b []byte) []byte {
	b = appendVarintField(b, 1, uint64(int64(m.Version)))
	b = appendBytesField(b, 2, m.Token)
	if m.CacheId != nil {
		b = appendBytesField(b, 3, m.CacheId)
	}
	b = appendVarintField(b, 4, uint64(m.Interactivity))
	b = appendVarintField(b, 5, uint64(m.ContentType))
	return appendVarintField(b, 6, uint64(m.Timestamp))
}

func (m *PlayPlayLicenseRequest) unmarshal(f field) error {
	switch f.num {
	case 1:
		m.Version = int32(f.varint)
	case 2:
		m.Token = f.bytes
	case 3:
		m.CacheId = f.bytes
	case 4:
		m.Interactivity = Interactivity(f.varint)
	case 5:
		m.ContentType = ContentType(f.varint)
	case 6:
		m.Timestamp = int64(f.varint)
	}
	return nil
}

type PlayPlayLicenseResponse struct {
	ObfuscatedKey []byte
}

func (m *PlayPlayLicenseResponse) GetObfuscatedKey() []byte {
	if m == nil {
		return nil
	}
	return m.ObfuscatedKey
}

func (m *PlayPlayLicenseResponse) appendTo(b []byte) []byte {
	return appendBytesField(b, 1, m.ObfuscatedKey)
}

func (m *PlayPlayLicenseResponse) unmarshal(f field) error {
	if f.num == 1 {
		m.ObfuscatedKey = f.bytes
	}
	return nil
}
