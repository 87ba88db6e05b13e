package login5

import (
	"context"
	"crypto/sha1"
	"encoding/binary"
	"io"
	"math/bits"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotify-ap/credentials"
	"spotify-ap/proto/spotify"
)

type fakeEndpoint struct {
	t *testing.T

	mu       sync.Mutex
	requests []*spotify.LoginRequest
	paths    []string
	respond  func(n int, req *spotify.LoginRequest) *spotify.LoginResponse
}

func (f *fakeEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	assert.Equal(f.t, http.MethodPost, r.Method)
	assert.Equal(f.t, "application/x-protobuf", r.Header.Get("Content-Type"))
	assert.Equal(f.t, userAgent, r.Header.Get("User-Agent"))

	body, err := io.ReadAll(r.Body)
	require.NoError(f.t, err)
	var req spotify.LoginRequest
	require.NoError(f.t, spotify.Unmarshal(body, &req))

	f.mu.Lock()
	f.requests = append(f.requests, &req)
	f.paths = append(f.paths, r.URL.Path)
	n := len(f.requests)
	f.mu.Unlock()

	out, err := spotify.Marshal(f.respond(n, &req))
	require.NoError(f.t, err)
	w.Header().Set("Content-Type", "application/x-protobuf")
	w.Write(out)
}

func newClient(t *testing.T, respond func(int, *spotify.LoginRequest) *spotify.LoginResponse) (*Client, *fakeEndpoint) {
	f := &fakeEndpoint{t: t, respond: respond}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	c := New("client-id", "device-id", WithEndpoints(srv.URL+"/v3/login", srv.URL+"/v4/login"))
	return c, f
}

func okResponse() *spotify.LoginResponse {
	return &spotify.LoginResponse{Ok: &spotify.LoginOk{
		Username:             "canonical",
		AccessToken:          "token",
		StoredCredential:     []byte("stored"),
		AccessTokenExpiresIn: 3600,
	}}
}

func challenge(length int32) *spotify.LoginResponse {
	return &spotify.LoginResponse{
		LoginContext: []byte("context"),
		Challenges: &spotify.Challenges{Challenges: []*spotify.Challenge{
			{Hashcash: &spotify.HashcashChallenge{Prefix: []byte("prefix"), Length: length}},
		}},
	}
}

func TestLoginPasswordUsesInteraction(t *testing.T) {
	c, f := newClient(t, func(int, *spotify.LoginRequest) *spotify.LoginResponse { return okResponse() })

	before := time.Now()
	res, err := c.Login(context.Background(), credentials.UserPass("alice", "pw"))
	require.NoError(t, err)
	assert.Equal(t, "canonical", res.Username)
	assert.Equal(t, "token", res.AccessToken)
	assert.Equal(t, time.Hour, res.ExpiresIn)
	assert.False(t, res.ExpiresAt.Before(before.Add(time.Hour)))

	require.Len(t, f.requests, 1)
	req := f.requests[0]
	assert.Equal(t, "/v4/login", f.paths[0])
	assert.Equal(t, "client-id", req.GetClientInfo().GetClientId())
	assert.Equal(t, "device-id", req.GetClientInfo().GetDeviceId())
	assert.Equal(t, "alice", req.GetPassword().GetId())
	assert.Equal(t, "pw", req.GetPassword().GetPassword())
	assert.Nil(t, req.GetStoredCredential())

	nonce, err := uuid.Parse(req.GetInteraction().GetNonce())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), nonce.Version())
	assert.Equal(t, interactionURI, req.GetInteraction().Uri)
	assert.Equal(t, "en", req.GetInteraction().UiLocales)
}

func TestLoginStoredCredentialUsesV3(t *testing.T) {
	c, f := newClient(t, func(int, *spotify.LoginRequest) *spotify.LoginResponse { return okResponse() })

	_, err := c.Login(context.Background(), credentials.Stored("alice", []byte("blob")))
	require.NoError(t, err)
	assert.Equal(t, "/v3/login", f.paths[0])
	assert.Equal(t, []byte("blob"), f.requests[0].GetStoredCredential().GetData())
	assert.Nil(t, f.requests[0].GetInteraction())
}

func TestLoginSolvesChallenge(t *testing.T) {
	c, f := newClient(t, func(n int, req *spotify.LoginRequest) *spotify.LoginResponse {
		if n == 1 {
			return challenge(8)
		}
		return okResponse()
	})

	_, err := c.Login(context.Background(), credentials.UserPass("alice", "pw"))
	require.NoError(t, err)
	require.Len(t, f.requests, 2)

	retry := f.requests[1]
	assert.Equal(t, []byte("context"), retry.GetLoginContext())
	assert.Equal(t, f.requests[0].GetInteraction().GetNonce(), retry.GetInteraction().GetNonce())
	solutions := retry.GetChallengeSolutions().GetSolutions()
	require.Len(t, solutions, 1)
	suffix := solutions[0].GetHashcash().GetSuffix()
	require.Len(t, suffix, 16)

	hash := sha1.Sum(append([]byte("prefix"), suffix...))
	assert.GreaterOrEqual(t, bits.TrailingZeros64(binary.BigEndian.Uint64(hash[12:20])), 8)
}

func TestLoginSecondChallengeIsFatal(t *testing.T) {
	c, f := newClient(t, func(int, *spotify.LoginRequest) *spotify.LoginResponse { return challenge(0) })

	_, err := c.Login(context.Background(), credentials.UserPass("alice", "pw"))
	assert.ErrorIs(t, err, ErrMultipleChallenges)
	assert.Len(t, f.requests, 2)
}

func TestLoginErrorTaxonomy(t *testing.T) {
	for _, tc := range []struct {
		code      spotify.LoginError
		desc      string
		retryable bool
	}{
		{spotify.LoginError_INVALID_CREDENTIALS, "Invalid credentials", false},
		{spotify.LoginError_BAD_REQUEST, "Bad request", false},
		{spotify.LoginError_UNSUPPORTED_LOGIN, "Unsupported login protocol", false},
		{spotify.LoginError_TIMEOUT, "Timeout", true},
		{spotify.LoginError_UNKNOWN_IDENTIFIER, "Unknown identifier", false},
		{spotify.LoginError_TOO_MANY_ATTEMPTS, "Too many attempts", false},
		{spotify.LoginError_INVALID_PHONENUMBER, "Invalid phone number", false},
		{spotify.LoginError_TRY_AGAIN_LATER, "Try again later", true},
		{spotify.LoginError(42), "Unknown error", false},
	} {
		c, _ := newClient(t, func(int, *spotify.LoginRequest) *spotify.LoginResponse {
			return &spotify.LoginResponse{Error: tc.code, HasError: true}
		})
		_, err := c.Login(context.Background(), credentials.UserPass("alice", "pw"))
		var loginErr *LoginError
		require.ErrorAs(t, err, &loginErr)
		assert.Equal(t, tc.desc, loginErr.Description())
		assert.Equal(t, tc.retryable, loginErr.Retryable())
	}
}

func TestRefresh(t *testing.T) {
	c, f := newClient(t, func(int, *spotify.LoginRequest) *spotify.LoginResponse { return okResponse() })

	_, err := c.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	_, err = c.Login(context.Background(), credentials.UserPass("alice", "pw"))
	require.NoError(t, err)
	_, err = c.Refresh(context.Background())
	require.NoError(t, err)

	require.Len(t, f.requests, 2)
	assert.Equal(t, "/v3/login", f.paths[1])
	assert.Equal(t, "canonical", f.requests[1].GetStoredCredential().GetUsername())
	assert.Equal(t, []byte("stored"), f.requests[1].GetStoredCredential().GetData())
}

func TestLoginRejectsInvalidCredentials(t *testing.T) {
	c, f := newClient(t, func(int, *spotify.LoginRequest) *spotify.LoginResponse { return okResponse() })
	_, err := c.Login(context.Background(), credentials.Credentials{Username: "alice"})
	assert.ErrorIs(t, err, credentials.ErrInvalid)
	assert.Empty(t, f.requests)
}

func TestLoginHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New("client-id", "device-id", WithEndpoints(srv.URL, srv.URL))
	_, err := c.Login(context.Background(), credentials.UserPass("alice", "pw"))
	assert.ErrorContains(t, err, "503")
}
