package spotify

import "fmt"

type Product int32

const (
	Product_PRODUCT_CLIENT              Product = 0
	Product_PRODUCT_LIBSPOTIFY          Product = 1
	Product_PRODUCT_MOBILE              Product = 2
	Product_PRODUCT_PARTNER             Product = 3
	Product_PRODUCT_LIBSPOTIFY_EMBEDDED Product = 5
)

type ProductFlags int32

const (
	ProductFlags_PRODUCT_FLAG_NONE      ProductFlags = 0
	ProductFlags_PRODUCT_FLAG_DEV_BUILD ProductFlags = 1
)

type Platform int32

const (
	Platform_PLATFORM_WIN32_X86    Platform = 0
	Platform_PLATFORM_OSX_X86      Platform = 1
	Platform_PLATFORM_LINUX_X86    Platform = 2
	Platform_PLATFORM_LINUX_X86_64 Platform = 10
	Platform_PLATFORM_OSX_ARM64    Platform = 13
)

type Fingerprint int32

const (
	Fingerprint_FINGERPRINT_GRAIN       Fingerprint = 0
	Fingerprint_FINGERPRINT_HMAC_RIPEMD Fingerprint = 1
)

type Cryptosuite int32

const (
	Cryptosuite_CRYPTO_SUITE_SHANNON       Cryptosuite = 0
	Cryptosuite_CRYPTO_SUITE_RC4_SHA1_HMAC Cryptosuite = 1
)

// ErrorCode is the reason carried by APLoginFailed.
type ErrorCode int32

const (
	ErrorCode_ProtocolError               ErrorCode = 0
	ErrorCode_TryAnotherAP                ErrorCode = 2
	ErrorCode_BadConnectionId             ErrorCode = 5
	ErrorCode_TravelRestriction           ErrorCode = 9
	ErrorCode_PremiumAccountRequired      ErrorCode = 11
	ErrorCode_BadCredentials              ErrorCode = 12
	ErrorCode_CouldNotValidateCredentials ErrorCode = 13
	ErrorCode_AccountExists               ErrorCode = 14
	ErrorCode_ExtraVerificationRequired   ErrorCode = 15
	ErrorCode_InvalidAppKey               ErrorCode = 16
	ErrorCode_ApplicationBanned           ErrorCode = 17
)

func (c ErrorCode) String() string {
	switch c {
	case ErrorCode_ProtocolError:
		return "ProtocolError"
	case ErrorCode_TryAnotherAP:
		return "TryAnotherAP"
	case ErrorCode_BadConnectionId:
		return "BadConnectionId"
	case ErrorCode_TravelRestriction:
		return "TravelRestriction"
	case ErrorCode_PremiumAccountRequired:
		return "PremiumAccountRequired"
	case ErrorCode_BadCredentials:
		return "BadCredentials"
	case ErrorCode_CouldNotValidateCredentials:
		return "CouldNotValidateCredentials"
	case ErrorCode_AccountExists:
		return "AccountExists"
	case ErrorCode_ExtraVerificationRequired:
		return "ExtraVerificationRequired"
	case ErrorCode_InvalidAppKey:
		return "InvalidAppKey"
	case ErrorCode_ApplicationBanned:
		return "ApplicationBanned"
	}
	return fmt.Sprintf("ErrorCode(%d)", int32(c))
}

type ClientHello struct {
	BuildInfo             *BuildInfo
	FingerprintsSupported []Fingerprint
	CryptosuitesSupported []Cryptosuite
	LoginCryptoHello      *LoginCryptoHelloUnion
	ClientNonce           []byte
	Padding               []byte
}

func (m *ClientHello) GetBuildInfo() *BuildInfo {
	if m == nil {
		return nil
	}
	return m.BuildInfo
}

func (m *ClientHello) GetLoginCryptoHello() *LoginCryptoHelloUnion {
	if m == nil {
		return nil
	}
	return m.LoginCryptoHello
}

func (m *ClientHello) GetClientNonce() []byte {
	if m == nil {
		return nil
	}
	return m.ClientNonce
}

func (m *ClientHello) appendTo(b []byte) []byte {
	if m.BuildInfo != nil {
		b = appendMessageField(b, 10, m.BuildInfo)
	}
	for _, fp := range m.FingerprintsSupported {
		b = appendVarintField(b, 20, uint64(fp))
	}
	for _, cs := range m.CryptosuitesSupported {
		b = appendVarintField(b, 30, uint64(cs))
	}
	if m.LoginCryptoHello != nil {
		b = appendMessageField(b, 50, m.LoginCryptoHello)
	}
	b = appendBytesField(b, 60, m.ClientNonce)
	if m.Padding != nil {
		b = appendBytesField(b, 70, m.Padding)
	}
	return b
}

func (m *ClientHello) unmarshal(f field) error {
	var err error
	switch f.num {
	case 10:
		m.BuildInfo, err = decodeMessage[BuildInfo](f)
	case 20:
		var vs []uint64
		vs, err = repeatedVarints(f)
		for _, v := range vs {
			m.FingerprintsSupported = append(m.FingerprintsSupported, Fingerprint(v))
		}
	case 30:
		var vs []uint64
		vs, err = repeatedVarints(f)
		for _, v := range vs {
			m.CryptosuitesSupported = append(m.CryptosuitesSupported, Cryptosuite(v))
		}
	case 50:
		m.LoginCryptoHello, err = decodeMessage[LoginCryptoHelloUnion](f)
	case 60:
		m.ClientNonce = f.bytes
	case 70:
		m.Padding = f.bytes
	}
	return err
}

type BuildInfo struct {
	Product      Product
	ProductFlags []ProductFlags
	Platform     Platform
	Version      uint64
}

func (m *BuildInfo) appendTo(b []byte) []byte {
	b = appendVarintField(b, 10, uint64(m.Product))
	for _, fl := range m.ProductFlags {
		b = appendVarintField(b, 20, uint64(fl))
	}
	b = appendVarintField(b, 30, uint64(m.Platform))
	return appendVarintField(b, 40, m.Version)
}

func (m *BuildInfo) unmarshal(f field) error {
	switch f.num {
	case 10:
		m.Product = Product(f.varint)
	case 20:
		vs, err := repeatedVarints(f)
		if err != nil {
			return err
		}
		for _, v := range vs {
			m.ProductFlags = append(m.ProductFlags, ProductFlags(v))
		}
	case 30:
		m.Platform = Platform(f.varint)
	case 40:
		m.Version = f.varint
	}
	return nil
}

type LoginCryptoHelloUnion struct {
	DiffieHellman *LoginCryptoDiffieHellmanHello
}

func (m *LoginCryptoHelloUnion) GetDiffieHellman() *LoginCryptoDiffieHellmanHello {
	if m == nil {
		return nil
	}
	return m.DiffieHellman
}

func (m *LoginCryptoHelloUnion) appendTo(b []byte) []byte {
	if m.DiffieHellman != nil {
		b = appendMessageField(b, 10, m.DiffieHellman)
	}
	return b
}

func (m *LoginCryptoHelloUnion) unmarshal(f field) error {
	var err error
	if f.num == 10 {
		m.DiffieHellman, err = decodeMessage[LoginCryptoDiffieHellmanHello](f)
	}
	return err
}

type LoginCryptoDiffieHellmanHello struct {
	Gc              []byte
	ServerKeysKnown uint32
}

func (m *LoginCryptoDiffieHellmanHello) GetGc() []byte {
	if m == nil {
		return nil
	}
	return m.Gc
}

func (m *LoginCryptoDiffieHellmanHello) appendTo(b []byte) []byte {
	b = appendBytesField(b, 10, m.Gc)
	return appendVarintField(b, 20, uint64(m.ServerKeysKnown))
}

func (m *LoginCryptoDiffieHellmanHello) unmarshal(f field) error {
	switch f.num {
	case 10:
		m.Gc = f.bytes
	case 20:
		m.ServerKeysKnown = uint32(f.varint)
	}
	return nil
}

type APResponseMessage struct {
	Challenge   *APChallenge
	LoginFailed *APLoginFailed
}

func (m *APResponseMessage) GetChallenge() *APChallenge {
	if m == nil {
		return nil
	}
	return m.Challenge
}

func (m *APResponseMessage) GetLoginFailed() *APLoginFailed {
	if m == nil {
		return nil
	}
	return m.LoginFailed
}

func (m *APResponseMessage) appendTo(b []byte) []byte {
	if m.Challenge != nil {
		b = appendMessageField(b, 10, m.Challenge)
	}
	if m.LoginFailed != nil {
		b = appendMessageField(b, 30, m.LoginFailed)
	}
	return b
}

func (m *APResponseMessage) unmarshal(f field) error {
	var err error
	switch f.num {
	case 10:
		m.Challenge, err = decodeMessage[APChallenge](f)
	case 30:
		m.LoginFailed, err = decodeMessage[APLoginFailed](f)
	}
	return err
}

type APChallenge struct {
	LoginCryptoChallenge *LoginCryptoChallengeUnion
	FingerprintChallenge *FingerprintChallengeUnion
	ServerNonce          []byte
	Padding              []byte
}

func (m *APChallenge) GetLoginCryptoChallenge() *LoginCryptoChallengeUnion {
	if m == nil {
		return nil
	}
	return m.LoginCryptoChallenge
}

func (m *APChallenge) GetFingerprintChallenge() *FingerprintChallengeUnion {
	if m == nil {
		return nil
	}
	return m.FingerprintChallenge
}

func (m *APChallenge) appendTo(b []byte) []byte {
	if m.LoginCryptoChallenge != nil {
		b = appendMessageField(b, 10, m.LoginCryptoChallenge)
	}
	if m.FingerprintChallenge != nil {
		b = appendMessageField(b, 20, m.FingerprintChallenge)
	} else {
		b = appendEmptyField(b, 20)
	}
	b = appendEmptyField(b, 30)
	b = appendEmptyField(b, 40)
	b = appendBytesField(b, 50, m.ServerNonce)
	if m.Padding != nil {
		b = appendBytesField(b, 60, m.Padding)
	}
	return b
}

func (m *APChallenge) unmarshal(f field) error {
	var err error
	switch f.num {
	case 10:
		m.LoginCryptoChallenge, err = decodeMessage[LoginCryptoChallengeUnion](f)
	case 20:
		m.FingerprintChallenge, err = decodeMessage[FingerprintChallengeUnion](f)
	case 50:
		m.ServerNonce = f.bytes
	case 60:
		m.Padding = f.bytes
	}
	return err
}

type LoginCryptoChallengeUnion struct {
	DiffieHellman *LoginCryptoDiffieHellmanChallenge
}

func (m *LoginCryptoChallengeUnion) GetDiffieHellman() *LoginCryptoDiffieHellmanChallenge {
	if m == nil {
		return nil
	}
	return m.DiffieHellman
}

func (m *LoginCryptoChallengeUnion) appendTo(b []byte) []byte {
	if m.DiffieHellman != nil {
		b = appendMessageField(b, 10, m.DiffieHellman)
	}
	return b
}

func (m *LoginCryptoChallengeUnion) unmarshal(f field) error {
	var err error
	if f.num == 10 {
		m.DiffieHellman, err = decodeMessage[LoginCryptoDiffieHellmanChallenge](f)
	}
	return err
}

type LoginCryptoDiffieHellmanChallenge struct {
	Gs                 []byte
	ServerSignatureKey int32
	GsSignature        []byte
}

func (m *LoginCryptoDiffieHellmanChallenge) GetGs() []byte {
	if m == nil {
		return nil
	}
	return m.Gs
}

func (m *LoginCryptoDiffieHellmanChallenge) appendTo(b []byte) []byte {
	b = appendBytesField(b, 10, m.Gs)
	b = appendVarintField(b, 20, uint64(m.ServerSignatureKey))
	return appendBytesField(b, 30, m.GsSignature)
}

func (m *LoginCryptoDiffieHellmanChallenge) unmarshal(f field) error {
	switch f.num {
	case 10:
		m.Gs = f.bytes
	case 20:
		m.ServerSignatureKey = int32(f.varint)
	case 30:
		m.GsSignature = f.bytes
	}
	return nil
}

type FingerprintChallengeUnion struct {
	Grain *FingerprintGrainChallenge
}

func (m *FingerprintChallengeUnion) GetGrain() *FingerprintGrainChallenge {
	if m == nil {
		return nil
	}
	return m.Grain
}

func (m *FingerprintChallengeUnion) appendTo(b []byte) []byte {
	if m.Grain != nil {
		b = appendMessageField(b, 10, m.Grain)
	}
	return b
}

func (m *FingerprintChallengeUnion) unmarshal(f field) error {
	var err error
	if f.num == 10 {
		m.Grain, err = decodeMessage[FingerprintGrainChallenge](f)
	}
	return err
}

type FingerprintGrainChallenge struct {
	Kek []byte
}

func (m *FingerprintGrainChallenge) GetKek() []byte {
	if m == nil {
		return nil
	}
	return m.Kek
}

func (m *FingerprintGrainChallenge) appendTo(b []byte) []byte {
	return appendBytesField(b, 10, m.Kek)
}

func (m *FingerprintGrainChallenge) unmarshal(f field) error {
	if f.num == 10 {
		m.Kek = f.bytes
	}
	return nil
}

type APLoginFailed struct {
	ErrorCode        ErrorCode
	RetryDelay       int32
	Expiry           int32
	ErrorDescription string
}

func (m *APLoginFailed) GetErrorCode() ErrorCode {
	if m == nil {
		return ErrorCode_ProtocolError
	}
	return m.ErrorCode
}

func (m *APLoginFailed) GetErrorDescription() string {
	if m == nil {
		return ""
	}
	return m.ErrorDescription
}

func (m *APLoginFailed) appendTo(b []byte) []byte {
	b = appendVarintField(b, 10, uint64(m.ErrorCode))
	if m.RetryDelay != 0 {
		b = appendVarintField(b, 20, uint64(m.RetryDelay))
	}
	if m.Expiry != 0 {
		b = appendVarintField(b, 30, uint64(m.Expiry))
	}
	if m.ErrorDescription != "" {
		b = appendStringField(b, 40, m.ErrorDescription)
	}
	return b
}

func (m *APLoginFailed) unmarshal(f field) error {
	switch f.num {
	case 10:
		m.ErrorCode = ErrorCode(f.varint)
	case 20:
		m.RetryDelay = int32(f.varint)
	case 30:
		m.Expiry = int32(f.varint)
	case 40:
		m.ErrorDescription = string(f.bytes)
	}
	return nil
}

type ClientResponsePlaintext struct {
	LoginCryptoResponse *LoginCryptoResponseUnion
}

func (m *ClientResponsePlaintext) GetLoginCryptoResponse() *LoginCryptoResponseUnion {
	if m == nil {
		return nil
	}
	return m.LoginCryptoResponse
}

func (m *ClientResponsePlaintext) appendTo(b []byte) []byte {
	if m.LoginCryptoResponse != nil {
		b = appendMessageField(b, 10, m.LoginCryptoResponse)
	}
	// pow_response and crypto_response are required but carry nothing.
	b = appendEmptyField(b, 20)
	return appendEmptyField(b, 30)
}

func (m *ClientResponsePlaintext) unmarshal(f field) error {
	var err error
	if f.num == 10 {
		m.LoginCryptoResponse, err = decodeMessage[LoginCryptoResponseUnion](f)
	}
	return err
}

type LoginCryptoResponseUnion struct {
	DiffieHellman *LoginCryptoDiffieHellmanResponse
}

func (m *LoginCryptoResponseUnion) GetDiffieHellman() *LoginCryptoDiffieHellmanResponse {
	if m == nil {
		return nil
	}
	return m.DiffieHellman
}

func (m *LoginCryptoResponseUnion) appendTo(b []byte) []byte {
	if m.DiffieHellman != nil {
		b = appendMessageField(b, 10, m.DiffieHellman)
	}
	return b
}

func (m *LoginCryptoResponseUnion) unmarshal(f field) error {
	var err error
	if f.num == 10 {
		m.DiffieHellman, err = decodeMessage[LoginCryptoDiffieHellmanResponse](f)
	}
	return err
}

type LoginCryptoDiffieHellmanResponse struct {
	Hmac []byte
}

func (m *LoginCryptoDiffieHellmanResponse) GetHmac() []byte {
	if m == nil {
		return nil
	}
	return m.Hmac
}

func (m *LoginCryptoDiffieHellmanResponse) appendTo(b []byte) []byte {
	return appendBytesField(b, 10, m.Hmac)
}

func (m *LoginCryptoDiffieHellmanResponse) unmarshal(f field) error {
	if f.num == 10 {
		m.Hmac = f.bytes
	}
	return nil
}
