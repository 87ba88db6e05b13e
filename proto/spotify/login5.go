package spotify

// LoginError is the numeric error returned by the login5 endpoint.
type LoginError int32

const (
	LoginError_UNKNOWN_ERROR       LoginError = 0
	LoginError_INVALID_CREDENTIALS LoginError = 1
	LoginError_BAD_REQUEST         LoginError = 2
	LoginError_UNSUPPORTED_LOGIN   LoginError = 3
	LoginError_TIMEOUT             LoginError = 4
	LoginError_UNKNOWN_IDENTIFIER  LoginError = 5
	LoginError_TOO_MANY_ATTEMPTS   LoginError = 6
	LoginError_INVALID_PHONENUMBER LoginError = 7
	LoginError_TRY_AGAIN_LATER     LoginError = 8
)

type LoginRequest struct {
	ClientInfo         *ClientInfo
	LoginContext       []byte
	ChallengeSolutions *ChallengeSolutions
	Interaction        *InteractionInfo
	StoredCredential   *StoredCredential
	Password           *Password
}

func (m *LoginRequest) GetClientInfo() *ClientInfo {
	if m == nil {
		return nil
	}
	return m.ClientInfo
}

func (m *LoginRequest) GetLoginContext() []byte {
	if m == nil {
		return nil
	}
	return m.LoginContext
}

func (m *LoginRequest) GetChallengeSolutions() *ChallengeSolutions {
	if m == nil {
		return nil
	}
	return m.ChallengeSolutions
}

func (m *LoginRequest) GetInteraction() *InteractionInfo {
	if m == nil {
		return nil
	}
	return m.Interaction
}

func (m *LoginRequest) GetStoredCredential() *StoredCredential {
	if m == nil {
		return nil
	}
	return m.StoredCredential
}

func (m *LoginRequest) GetPassword() *Password {
	if m == nil {
		return nil
	}
	return m.Password
}

func (m *LoginRequest) appendTo(b []byte) []byte {
	if m.ClientInfo != nil {
		b = appendMessageField(b, 1, m.ClientInfo)
	}
	if m.LoginContext != nil {
		b = appendBytesField(b, 2, m.LoginContext)
	}
	if m.ChallengeSolutions != nil {
		b = appendMessageField(b, 3, m.ChallengeSolutions)
	}
	if m.Interaction != nil {
		b = appendMessageField(b, 4, m.Interaction)
	}
	if m.StoredCredential != nil {
		b = appendMessageField(b, 100, m.StoredCredential)
	}
	if m.Password != nil {
		b = appendMessageField(b, 101, m.Password)
	}
	return b
}

func (m *LoginRequest) unmarshal(f field) error {
	var err error
	switch f.num {
	case 1:
		m.ClientInfo, err = decodeMessage[ClientInfo](f)
	case 2:
		m.LoginContext = f.bytes
	case 3:
		m.ChallengeSolutions, err = decodeMessage[ChallengeSolutions](f)
	case 4:
		m.Interaction, err = decodeMessage[InteractionInfo](f)
	case 100:
		m.StoredCredential, err = decodeMessage[StoredCredential](f)
	case 101:
		m.Password, err = decodeMessage[Password](f)
	}
	return err
}

type ClientInfo struct {
	ClientId string
	DeviceId string
}

func (m *ClientInfo) GetClientId() string {
	if m == nil {
		return ""
	}
	return m.ClientId
}

func (m *ClientInfo) GetDeviceId() string {
	if m == nil {
		return ""
	}
	return m.DeviceId
}

func (m *ClientInfo) appendTo(b []byte) []byte {
	b = appendStringField(b, 1, m.ClientId)
	if m.DeviceId != "" {
		b = appendStringField(b, 2, m.DeviceId)
	}
	return b
}

func (m *ClientInfo) unmarshal(f field) error {
	switch f.num {
	case 1:
		m.ClientId = string(f.bytes)
	case 2:
		m.DeviceId = string(f.bytes)
	}
	return nil
}

// InteractionInfo accompanies interactive (password) logins.
type InteractionInfo struct {
	Uri       string
	Nonce     string
	UiLocales string
}

func (m *InteractionInfo) GetNonce() string {
	if m == nil {
		return ""
	}
	return m.Nonce
}

func (m *InteractionInfo) appendTo(b []byte) []byte {
	b = appendStringField(b, 1, m.Uri)
	b = appendStringField(b, 2, m.Nonce)
	return appendStringField(b, 3, m.UiLocales)
}

func (m *InteractionInfo) unmarshal(f field) error {
	switch f.num {
	case 1:
		m.Uri = string(f.bytes)
	case 2:
		m.Nonce = string(f.bytes)
	case 3:
		m.UiLocales = string(f.bytes)
	}
	return nil
}

type StoredCredential struct {
	Username string
	Data     []byte
}

func (m *StoredCredential) GetUsername() string {
	if m == nil {
		return ""
	}
	return m.Username
}

func (m *StoredCredential) GetData() []byte {
	if m == nil {
		return nil
	}
	return m.Data
}

func (m *StoredCredential) appendTo(b []byte) []byte {
	b = appendStringField(b, 1, m.Username)
	return appendBytesField(b, 2, m.Data)
}

func (m *StoredCredential) unmarshal(f field) error {
	switch f.num {
	case 1:
		m.Username = string(f.bytes)
	case 2:
		m.Data = f.bytes
	}
	return nil
}

type Password struct {
	Id       string
	Password string
	Padding  []byte
}

func (m *Password) GetId() string {
	if m == nil {
		return ""
	}
	return m.Id
}

func (m *Password) GetPassword() string {
	if m == nil {
		return ""
	}
	return m.Password
}

func (m *Password) appendTo(b []byte) []byte {
	b = appendStringField(b, 1, m.Id)
	b = appendStringField(b, 2, m.Password)
	if m.Padding != nil {
		b = appendBytesField(b, 3, m.Padding)
	}
	return b
}

func (m *Password) unmarshal(f field) error {
	switch f.num {
	case 1:
		m.Id = string(f.bytes)
	case 2:
		m.Password = string(f.bytes)
	case 3:
		m.Padding = f.bytes
	}
	return nil
}

type ChallengeSolutions struct {
	Solutions []*ChallengeSolution
}

func (m *ChallengeSolutions) GetSolutions() []*ChallengeSolution {
	if m == nil {
		return nil
	}
	return m.Solutions
}

func (m *ChallengeSolutions) appendTo(b []byte) []byte {
	for _, s := range m.Solutions {
		b = appendMessageField(b, 1, s)
	}
	return b
}

func (m *ChallengeSolutions) unmarshal(f field) error {
	if f.num != 1 {
		return nil
	}
	s, err := decodeMessage[ChallengeSolution](f)
	if err != nil {
		return err
	}
	m.Solutions = append(m.Solutions, s)
	return nil
}

type ChallengeSolution struct {
	Hashcash *HashcashSolution
}

func (m *ChallengeSolution) GetHashcash() *HashcashSolution {
	if m == nil {
		return nil
	}
	return m.Hashcash
}

func (m *ChallengeSolution) appendTo(b []byte) []byte {
	if m.Hashcash != nil {
		b = appendMessageField(b, 1, m.Hashcash)
	}
	return b
}

func (m *ChallengeSolution) unmarshal(f field) error {
	var err error
	if f.num == 1 {
		m.Hashcash, err = decodeMessage[HashcashSolution](f)
	}
	return err
}

type HashcashSolution struct {
	Suffix   []byte
	Duration *Duration
}

func (m *HashcashSolution) GetSuffix() []byte {
	if m == nil {
		return nil
	}
	return m.Suffix
}

func (m *HashcashSolution) appendTo(b []byte) []byte {
	b = appendBytesField(b, 1, m.Suffix)
	if m.Duration != nil {
		b = appendMessageField(b, 2, m.Duration)
	}
	return b
}

func (m *HashcashSolution) unmarshal(f field) error {
	var err error
	switch f.num {
	case 1:
		m.Suffix = f.bytes
	case 2:
		m.Duration, err = decodeMessage[Duration](f)
	}
	return err
}

type Duration struct {
	Seconds int64
	Nanos   int32
}

func (m *Duration) appendTo(b []byte) []byte {
	b = appendVarintField(b, 1, uint64(m.Seconds))
	return appendVarintField(b, 2, uint64(int64(m.Nanos)))
}

func (m *Duration) unmarshal(f field) error {
	switch f.num {
	case 1:
		m.Seconds = int64(f.varint)
	case 2:
		m.Nanos = int32(f.varint)
	}
	return nil
}

// LoginResponse carries exactly one of Ok, Error or Challenges.
type LoginResponse struct {
	Ok           *LoginOk
	Error        LoginError
	HasError     bool
	Challenges   *Challenges
	LoginContext []byte
}

func (m *LoginResponse) GetOk() *LoginOk {
	if m == nil {
		return nil
	}
	return m.Ok
}

func (m *LoginResponse) GetChallenges() *Challenges {
	if m == nil {
		return nil
	}
	return m.Challenges
}

func (m *LoginResponse) GetLoginContext() []byte {
	if m == nil {
		return nil
	}
	return m.LoginContext
}

func (m *LoginResponse) appendTo(b []byte) []byte {
	if m.Ok != nil {
		b = appendMessageField(b, 1, m.Ok)
	}
	if m.HasError {
		b = appendVarintField(b, 2, uint64(m.Error))
	}
	if m.Challenges != nil {
		b = appendMessageField(b, 3, m.Challenges)
	}
	if m.LoginContext != nil {
		b = appendBytesField(b, 5, m.LoginContext)
	}
	return b
}

func (m *LoginResponse) unmarshal(f field) error {
	var err error
	switch f.num {
	case 1:
		m.Ok, err = decodeMessage[LoginOk](f)
	case 2:
		m.Error = LoginError(f.varint)
		m.HasError = true
	case 3:
		m.Challenges, err = decodeMessage[Challenges](f)
	case 5:
		m.LoginContext = f.bytes
	}
	return err
}

type LoginOk struct {
	Username             string
	AccessToken          string
	StoredCredential     []byte
	AccessTokenExpiresIn int32
}

func (m *LoginOk) appendTo(b []byte) []byte {
	b = appendStringField(b, 1, m.Username)
	b = appendStringField(b, 2, m.AccessToken)
	b = appendBytesField(b, 3, m.StoredCredential)
	return appendVarintField(b, 4, uint64(int64(m.AccessTokenExpiresIn)))
}

func (m *LoginOk) unmarshal(f field) error {
	switch f.num {
	case 1:
		m.Username = string(f.bytes)
	case 2:
		m.AccessToken = string(f.bytes)
	case 3:
		m.StoredCredential = f.bytes
	case 4:
		m.AccessTokenExpiresIn = int32(f.varint)
	}
	return nil
}

type Challenges struct {
	Challenges []*Challenge
}

func (m *Challenges) GetChallenges() []*Challenge {
	if m == nil {
		return nil
	}
	return m.Challenges
}

func (m *Challenges) appendTo(b []byte) []byte {
	for _, c := range m.Challenges {
		b = appendMessageField(b, 1, c)
	}
	return b
}

func (m *Challenges) unmarshal(f field) error {
	if f.num != 1 {
		return nil
	}
	c, err := decodeMessage[Challenge](f)
	if err != nil {
		return err
	}
	m.Challenges = append(m.Challenges, c)
	return nil
}

type Challenge struct {
	Hashcash *HashcashChallenge
}

func (m *Challenge) GetHashcash() *HashcashChallenge {
	if m == nil {
		return nil
	}
	return m.Hashcash
}

func (m *Challenge) appendTo(b []byte) []byte {
	if m.Hashcash != nil {
		b = appendMessageField(b, 1, m.Hashcash)
	}
	return b
}

func (m *Challenge) unmarshal(f field) error {
	var err error
	if f.num == 1 {
		m.Hashcash, err = decodeMessage[HashcashChallenge](f)
	}
	return err
}

type HashcashChallenge struct {
	Prefix []byte
	Length int32
}

func (m *HashcashChallenge) GetPrefix() []byte {
	if m == nil {
		return nil
	}
	return m.Prefix
}

func (m *HashcashChallenge) GetLength() int32 {
	if m == nil {
		return 0
	}
	return m.Length
}

func (m *HashcashChallenge) appendTo(b []byte) []byte {
	b = appendBytesField(b, 1, m.Prefix)
	return appendVarintField(b, 2, uint64(int64(m.Length)))
}

func (m *HashcashChallenge) unmarshal(f field) error {
	switch f.num {
	case 1:
		m.Prefix = f.bytes
	case 2:
		m.Length = int32(f.varint)
	}
	return nil
}
