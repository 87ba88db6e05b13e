package librespot

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"spotify-ap/audio"
	"spotify-ap/proto/spotify"
	"spotify-ap/spclient"
)

// Stream is a decrypted audio stream. Size is the expected plaintext
// length, or zero when the CDN did not report one.
type Stream struct {
	io.Reader
	body io.Closer

	Size      int64
	FileID    string
	Format    string
	HasLyrics bool
}

func (s *Stream) Close() error {
	return s.body.Close()
}

// TrackStream opens the track with the given base62 id.
func (c *Client) TrackStream(ctx context.Context, id string) (*Stream, error) {
	return c.stream(ctx, spclient.KindTrack, id)
}

// EpisodeStream opens the episode with the given base62 id.
func (c *Client) EpisodeStream(ctx context.Context, id string) (*Stream, error) {
	return c.stream(ctx, spclient.KindEpisode, id)
}

// StreamURI opens a spotify:kind:id URI or an open.spotify.com link.
func (c *Client) StreamURI(ctx context.Context, uri string) (*Stream, error) {
	kind, id, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	return c.stream(ctx, kind, id)
}

// AudioKey fetches the content key for an encoded file of the item with
// the given hex gid.
func (c *Client) AudioKey(ctx context.Context, kind, fileID, gid string) ([]byte, error) {
	if c.playplay != nil {
		contentType := spotify.ContentType_AUDIO_TRACK
		if kind == spclient.KindEpisode {
			contentType = spotify.ContentType_AUDIO_EPISODE
		}
		return c.playplay.AudioKey(ctx, fileID, contentType)
	}
	return c.session.AudioKey(ctx, fileID, gid)
}

func (c *Client) stream(ctx context.Context, kind, id string) (*Stream, error) {
	hexID, err := Base62ToHex(id)
	if err != nil {
		return nil, err
	}
	meta, err := c.api.Metadata(ctx, kind, hexID)
	if err != nil {
		return nil, err
	}
	gid, files := meta.Files(kind)
	file, err := audio.SelectFile(files, c.codec, c.maxQuality)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", kind, id, err)
	}

	var (
		storage *spclient.StorageResolve
		key     []byte
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		storage, err = c.api.StorageResolve(gctx, file.FileID)
		return err
	})
	g.Go(func() error {
		var err error
		key, err = c.AudioKey(gctx, kind, file.FileID, gid)
		if err != nil {
			return fmt.Errorf("fetching audio key: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cdnURL, err := c.api.PickCDN(storage.CDNURL)
	if err != nil {
		return nil, err
	}
	resp, err := c.api.OpenCDN(ctx, cdnURL)
	if err != nil {
		return nil, err
	}
	plain, err := audio.Decrypt(resp.Body, key)
	if err != nil {
		resp.Body.Close()
		return nil, err
	}

	s := &Stream{
		Reader:    plain,
		body:      resp.Body,
		FileID:    file.FileID,
		Format:    file.Format,
		HasLyrics: meta.HasLyrics,
	}
	if resp.ContentLength > 0 {
		s.Size = audio.StreamSize(resp.ContentLength)
	}
	return s, nil
}
