package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectFile(t *testing.T) {
	files := []File{
		{Format: "OGG_VORBIS_96", FileID: "a"},
		{Format: "MP3_320", FileID: "b"},
		{Format: "OGG_VORBIS_320", FileID: "c"},
		{Format: "OGG_VORBIS_160", FileID: "d"},
		{Format: "AAC_24", FileID: "e"},
	}

	for _, tc := range []struct {
		name  string
		codec Codec
		max   Quality
		want  string
	}{
		{"vorbis high", CodecVorbis, QualityHigh, "d"},
		{"vorbis very high", CodecVorbis, QualityVeryHigh, "c"},
		{"vorbis normal", CodecVorbis, QualityNormal, "a"},
		{"mp3 very high", CodecMP3, QualityVeryHigh, "b"},
		{"aac high", CodecAAC, QualityHigh, "e"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f, err := SelectFile(files, tc.codec, tc.max)
			require.NoError(t, err)
			assert.Equal(t, tc.want, f.FileID)
		})
	}
}

func TestSelectFileSkipsAboveCeiling(t *testing.T) {
	files := []File{{Format: "OGG_VORBIS_96", FileID: "low"}, {Format: "OGG_VORBIS_320", FileID: "high"}}

	f, err := SelectFile(files, CodecVorbis, QualityHigh)
	require.NoError(t, err)
	assert.Equal(t, "low", f.FileID)

	f, err = SelectFile(files, CodecVorbis, QualityVeryHigh)
	require.NoError(t, err)
	assert.Equal(t, "high", f.FileID)
}

func TestSelectFileTieKeepsInputOrder(t *testing.T) {
	files := []File{
		{Format: "MP3_160", FileID: "first"},
		{Format: "MP3_160_ENC", FileID: "second"},
	}
	f, err := SelectFile(files, CodecMP3, QualityVeryHigh)
	require.NoError(t, err)
	assert.Equal(t, "first", f.FileID)
}

func TestSelectFileUnavailable(t *testing.T) {
	_, err := SelectFile(nil, CodecVorbis, QualityVeryHigh)
	assert.ErrorIs(t, err, ErrFileUnavailable)

	_, err = SelectFile([]File{{Format: "OGG_VORBIS_320", FileID: "x"}}, CodecVorbis, QualityHigh)
	assert.ErrorIs(t, err, ErrFileUnavailable)

	_, err = SelectFile([]File{{Format: "OGG_VORBIS_96", FileID: "x"}}, Codec("flac"), QualityVeryHigh)
	assert.ErrorIs(t, err, ErrFileUnavailable)
}
