// Package audio picks an encoded file for a track and turns the encrypted
// CDN object into plaintext audio.
package audio

import (
	"errors"
	"fmt"
)

// ErrFileUnavailable is returned when no file matches the requested codec
// and quality ceiling.
var ErrFileUnavailable = errors.New("audio: no file available for requested codec and quality")

type Codec string

const (
	CodecVorbis Codec = "vorbis"
	CodecMP3    Codec = "mp3"
	CodecAAC    Codec = "aac"
)

type Quality int

const (
	QualityNormal Quality = iota
	QualityHigh
	QualityVeryHigh
)

func (q Quality) String() string {
	switch q {
	case QualityNormal:
		return "normal"
	case QualityHigh:
		return "high"
	case QualityVeryHigh:
		return "very_high"
	default:
		return fmt.Sprintf("Quality(%d)", int(q))
	}
}

var tiers = map[Codec]map[string]Quality{
	CodecVorbis: {
		"OGG_VORBIS_96":  QualityNormal,
		"OGG_VORBIS_160": QualityHigh,
		"OGG_VORBIS_320": QualityVeryHigh,
	},
	CodecMP3: {
		"MP3_96":      QualityNormal,
		"MP3_160":     QualityHigh,
		"MP3_160_ENC": QualityHigh,
		"MP3_320":     QualityVeryHigh,
		"MP3_256":     QualityVeryHigh,
	},
	CodecAAC: {
		"AAC_24_NORM": QualityNormal,
		"AAC_24":      QualityHigh,
		"AAC_48":      QualityVeryHigh,
	},
}

// File is one encoding of a track as listed by the metadata service.
type File struct {
	Format string `json:"format"`
	FileID string `json:"file_id"`
}

// SelectFile returns the highest tier file of codec not above maxQuality.
// Ties keep the earliest entry.
func SelectFile(files []File, codec Codec, maxQuality Quality) (File, error) {
	table := tiers[codec]
	best, found := File{}, false
	bestTier := Quality(-1)
	for _, f := range files {
		tier, ok := table[f.Format]
		if !ok || tier > maxQuality {
			continue
		}
		if tier > bestTier {
			best, bestTier, found = f, tier, true
		}
	}
	if !found {
		return File{}, fmt.Errorf("%w: %s up to %s among %d files", ErrFileUnavailable, codec, maxQuality, len(files))
	}
	return best, nil
}
