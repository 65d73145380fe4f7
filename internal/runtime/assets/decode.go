package assets

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path"
	"strings"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/wav"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"gopkg.in/yaml.v3"

	"github.com/ajsengine/ajs/internal/runtime/scene"
)

// Sound is a fully decoded clip. It is shared by every player of the path
// and never mutated; each playback takes its own Streamer.
type Sound struct {
	Format beep.Format
	buffer *beep.Buffer
}

// NewSound buffers s completely.
func NewSound(format beep.Format, s beep.Streamer) *Sound {
	buf := beep.NewBuffer(format)
	buf.Append(s)
	return &Sound{Format: format, buffer: buf}
}

// Streamer returns a fresh seekable reader over the whole clip.
func (s *Sound) Streamer() beep.StreamSeeker {
	return s.buffer.Streamer(0, s.buffer.Len())
}

// Len is the clip length in samples.
func (s *Sound) Len() int {
	return s.buffer.Len()
}

func (s *Sound) Duration() time.Duration {
	return s.Format.SampleRate.D(s.buffer.Len())
}

func decodeImage(data []byte, _ string) (any, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
		}
		return nil, err
	}
	return img, nil
}

func decodeSound(data []byte, p string) (any, error) {
	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		err      error
	)
	switch strings.ToLower(path.Ext(p)) {
	case ".wav":
		streamer, format, err = wav.Decode(bytes.NewReader(data))
	case ".mp3":
		streamer, format, err = mp3.Decode(nopCloser{bytes.NewReader(data)})
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path.Ext(p))
	}
	if err != nil {
		return nil, err
	}
	defer streamer.Close()

	snd := NewSound(format, streamer)
	if err := streamer.Err(); err != nil {
		return nil, err
	}
	return snd, nil
}

func decodeData(data []byte, p string) (any, error) {
	var v any
	switch strings.ToLower(path.Ext(p)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return scene.Normalize(v), nil
	default:
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }
