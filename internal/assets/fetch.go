package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/taigrr/moon/pkg/render"
)

// ErrStatus is returned for a non-200 HTTP response.
var ErrStatus = errors.New("unexpected HTTP status")

// ErrTooLarge is returned when an asset exceeds the fetcher's size limit.
var ErrTooLarge = errors.New("asset too large")

// maxAssetBytes bounds a single download.
const maxAssetBytes = 64 << 20

// Fetcher reads assets over HTTP or from the local filesystem. Requests are
// plain GETs with no extra headers and no retries.
type Fetcher struct {
	Client   *http.Client // nil means http.DefaultClient
	MaxBytes int64        // 0 means 64 MiB
}

func (f *Fetcher) limit() int64 {
	if f.MaxBytes > 0 {
		return f.MaxBytes
	}
	return maxAssetBytes
}

// readLimited reads r fully, failing with ErrTooLarge past limit bytes.
func readLimited(r io.Reader, limit int64, loc string) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", loc, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("fetch %s: %w: more than %d bytes", loc, ErrTooLarge, limit)
	}
	return data, nil
}

// Fetch returns the bytes at loc: an http(s) URL, a file:// URL or a path.
func (f *Fetcher) Fetch(ctx context.Context, loc string) ([]byte, error) {
	switch {
	case strings.HasPrefix(loc, "http://"), strings.HasPrefix(loc, "https://"):
		return f.get(ctx, loc)
	case strings.HasPrefix(loc, "file://"):
		u, err := url.Parse(loc)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", loc, err)
		}
		return f.readFile(ctx, u.Path)
	default:
		return f.readFile(ctx, loc)
	}
}

func (f *Fetcher) get(ctx context.Context, loc string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", loc, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", loc, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: %w: %d", loc, ErrStatus, resp.StatusCode)
	}
	return readLimited(resp.Body, f.limit(), loc)
}

func (f *Fetcher) readFile(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer file.Close()
	return readLimited(file, f.limit(), p)
}

// FetchImage fetches and decodes loc, downscaled to maxSize.
func (f *Fetcher) FetchImage(ctx context.Context, loc string, maxSize int) (image.Image, error) {
	data, err := f.Fetch(ctx, loc)
	if err != nil {
		return nil, err
	}
	img, err := Decode(data, maxSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", loc, err)
	}
	return img, nil
}

// Decode decodes a PNG, JPEG or WebP image and downscales it so neither
// side exceeds maxSize (maxSize <= 0 keeps the original size).
func Decode(data []byte, maxSize int) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return render.Downscale(img, maxSize), nil
}
