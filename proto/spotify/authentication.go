package spotify

type AuthenticationType int32

const (
	AuthenticationType_AUTHENTICATION_USER_PASS                   AuthenticationType = 0
	AuthenticationType_AUTHENTICATION_STORED_SPOTIFY_CREDENTIALS  AuthenticationType = 1
	AuthenticationType_AUTHENTICATION_STORED_FACEBOOK_CREDENTIALS AuthenticationType = 2
	AuthenticationType_AUTHENTICATION_SPOTIFY_TOKEN               AuthenticationType = 3
	AuthenticationType_AUTHENTICATION_FACEBOOK_TOKEN              AuthenticationType = 4
)

type CpuFamily int32

const CpuFamily_CPU_UNKNOWN CpuFamily = 0

type Os int32

const Os_OS_UNKNOWN Os = 0

type ClientResponseEncrypted struct {
	LoginCredentials    *LoginCredentials
	FingerprintResponse *FingerprintResponseUnion
	SystemInfo          *SystemInfo
	VersionString       string
}

func (m *ClientResponseEncrypted) GetLoginCredentials() *LoginCredentials {
	if m == nil {
		return nil
	}
	return m.LoginCredentials
}

func (m *ClientResponseEncrypted) GetFingerprintResponse() *FingerprintResponseUnion {
	if m == nil {
		return nil
	}
	return m.FingerprintResponse
}

func (m *ClientResponseEncrypted) GetSystemInfo() *SystemInfo {
	if m == nil {
		return nil
	}
	return m.SystemInfo
}

func (m *ClientResponseEncrypted) appendTo(b []byte) []byte {
	if m.LoginCredentials != nil {
		b = appendMessageField(b, 10, m.LoginCredentials)
	}
	if m.FingerprintResponse != nil {
		b = appendMessageField(b, 30, m.FingerprintResponse)
	}
	if m.SystemInfo != nil {
		b = appendMessageField(b, 50, m.SystemInfo)
	}
	if m.VersionString != "" {
		b = appendStringField(b, 70, m.VersionString)
	}
	return b
}

func (m *ClientResponseEncrypted) unmarshal(f field) error {
	var err error
	switch f.num {
	case 10:
		m.LoginCredentials, err = decodeMessage[LoginCredentials](f)
	case 30:
		m.FingerprintResponse, err = decodeMessage[FingerprintResponseUnion](f)
	case 50:
		m.SystemInfo, err = decodeMessage[SystemInfo](f)
	case 70:
		m.VersionString = string(f.bytes)
	}
	return err
}

type LoginCredentials struct {
	Username string
	Typ      AuthenticationType
	AuthData []byte
}

func (m *LoginCredentials) GetUsername() string {
	if m == nil {
		return ""
	}
	return m.Username
}

func (m *LoginCredentials) GetAuthData() []byte {
	if m == nil {
		return nil
	}
	return m.AuthData
}

func (m *LoginCredentials) appendTo(b []byte) []byte {
	if m.Username != "" {
		b = appendStringField(b, 10, m.Username)
	}
	b = appendVarintField(b, 20, uint64(m.Typ))
	if m.AuthData != nil {
		b = appendBytesField(b, 30, m.AuthData)
	}
	return b
}

func (m *LoginCredentials) unmarshal(f field) error {
	switch f.num {
	case 10:
		m.Username = string(f.bytes)
	case 20:
		m.Typ = AuthenticationType(f.varint)
	case 30:
		m.AuthData = f.bytes
	}
	return nil
}

type SystemInfo struct {
	CpuFamily               CpuFamily
	Os                      Os
	SystemInformationString string
	DeviceId                string
}

func (m *SystemInfo) GetDeviceId() string {
	if m == nil {
		return ""
	}
	return m.DeviceId
}

func (m *SystemInfo) appendTo(b []byte) []byte {
	b = appendVarintField(b, 10, uint64(m.CpuFamily))
	b = appendVarintField(b, 60, uint64(m.Os))
	if m.SystemInformationString != "" {
		b = appendStringField(b, 90, m.SystemInformationString)
	}
	if m.DeviceId != "" {
		b = appendStringField(b, 100, m.DeviceId)
	}
	return b
}

func (m *SystemInfo) unmarshal(f field) error {
	switch f.num {
	case 10:
		m.CpuFamily = CpuFamily(f.varint)
	case 60:
		m.Os = Os(f.varint)
	case 90:
		m.SystemInformationString = string(f.bytes)
	case 100:
		m.DeviceId = string(f.bytes)
	}
	return nil
}

type FingerprintResponseUnion struct {
	Grain *FingerprintGrainResponse
}

func (m *FingerprintResponseUnion) GetGrain() *FingerprintGrainResponse {
	if m == nil {
		return nil
	}
	return m.Grain
}

func (m *FingerprintResponseUnion) appendTo(b []byte) []byte {
	if m.Grain != nil {
		b = appendMessageField(b, 10, m.Grain)
	}
	return b
}

func (m *FingerprintResponseUnion) unmarshal(f field) error {
	var err error
	if f.num == 10 {
		m.Grain, err = decodeMessage[FingerprintGrainResponse](f)
	}
	return err
}

type FingerprintGrainResponse struct {
	EncryptedKey []byte
}

func (m *FingerprintGrainResponse) GetEncryptedKey() []byte {
	if m == nil {
		return nil
	}
	return m.EncryptedKey
}

func (m *FingerprintGrainResponse) appendTo(b []byte) []byte {
	return appendBytesField(b, 10, m.EncryptedKey)
}

func (m *FingerprintGrainResponse) unmarshal(f field) error {
	if f.num == 10 {
		m.EncryptedKey = f.bytes
	}
	return nil
}

// APWelcome is sent by the access point after a successful encrypted login.
type APWelcome struct {
	CanonicalUsername           string
	ReusableAuthCredentialsType AuthenticationType
	ReusableAuthCredentials     []byte
}

func (m *APWelcome) GetCanonicalUsername() string {
	if m == nil {
		return ""
	}
	return m.CanonicalUsername
}

func (m *APWelcome) GetReusableAuthCredentials() []byte {
	if m == nil {
		return nil
	}
	return m.ReusableAuthCredentials
}

func (m *APWelcome) appendTo(b []byte) []byte {
	b = appendStringField(b, 10, m.CanonicalUsername)
	b = appendVarintField(b, 40, uint64(m.ReusableAuthCredentialsType))
	return appendBytesField(b, 50, m.ReusableAuthCredentials)
}

func (m *APWelcome) unmarshal(f field) error {
	switch f.num {
	case 10:
		m.CanonicalUsername = string(f.bytes)
	case 40:
		m.ReusableAuthCredentialsType = AuthenticationType(f.varint)
	case 50:
		m.ReusableAuthCredentials = f.bytes
	}
	return nil
}
