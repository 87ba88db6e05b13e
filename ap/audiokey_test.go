package ap

import (
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAudioKeyRequestLayout(t *testing.T) {
	req, err := AudioKeyRequest("0a0b", "0c0d0e", 0x01020304)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x01, 0x02, 0x03, 0x04, 0x00, 0x00}, req)

	_, err = AudioKeyRequest("zz", "00", 0)
	assert.Error(t, err)
}

func TestAudioKeysCorrelateBySequence(t *testing.T) {
	keys := newAudioKeys()
	logger := log.New(io.Discard, "", 0)

	seq0, ch0, err := keys.register()
	require.NoError(t, err)
	seq1, ch1, err := keys.register()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), seq0)
	assert.Equal(t, uint32(1), seq1)

	keys.handle(logger, Packet{Cmd: CmdAESKeyError, Payload: []byte{0, 0, 0, 1, 0x00, 0x02}})
	keys.handle(logger, Packet{Cmd: CmdAESKey, Payload: []byte{0, 0, 0, 0, 0xde, 0xad}})

	res := <-ch0
	require.NoError(t, res.err)
	assert.Equal(t, []byte{0xde, 0xad}, res.key)

	res = <-ch1
	var keyErr *AudioKeyError
	require.ErrorAs(t, res.err, &keyErr)
	assert.Equal(t, uint16(2), keyErr.Code)
	assert.Empty(t, keys.pending)
}

func TestAudioKeysIgnoreUnknownSequence(t *testing.T) {
	keys := newAudioKeys()
	_, ch, err := keys.register()
	require.NoError(t, err)

	keys.handle(log.New(io.Discard, "", 0), Packet{Cmd: CmdAESKey, Payload: []byte{0, 0, 0, 9, 1}})
	select {
	case <-ch:
		t.Fatal("reply for another sequence resolved the waiter")
	default:
	}
	assert.Len(t, keys.pending, 1)
}

func TestAudioKeysUnregisterAndFail(t *testing.T) {
	keys := newAudioKeys()
	seq, _, err := keys.register()
	require.NoError(t, err)
	keys.unregister(seq)
	assert.Empty(t, keys.pending)

	_, ch, err := keys.register()
	require.NoError(t, err)
	keys.failAll(ErrSessionClosed)
	assert.ErrorIs(t, (<-ch).err, ErrSessionClosed)

	_, _, err = keys.register()
	assert.ErrorIs(t, err, ErrSessionClosed)
}
