package generators

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang/freetype/truetype"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

const (
	// DefaultFontURL is where the bold sans-serif overlay font is fetched from
	// when it is not cached yet.
	DefaultFontURL = "https://github.com/google/fonts/raw/main/ufl/ubuntu/Ubuntu-Bold.ttf"
	// DefaultFontFile is the cached file name under the font cache directory.
	DefaultFontFile = "Ubuntu-Bold.ttf"
	// DefaultFontDir is the font cache directory, relative to the working directory.
	DefaultFontDir = "assets/fonts"

	maxFontBytes = 16 << 20
)

// Face is a font face bound to a pixel size.
type Face struct {
	font.Face

	// Size is the pixel size that was requested.
	Size int
	// Fallback is set when the face is the built-in bitmap face.
	Fallback bool
}

// FaceResolver hands out faces for a pixel size.
type FaceResolver interface {
	Resolve(size int) *Face
}

// Fetcher retrieves the raw bytes of a remote font file.
type Fetcher interface {
	Fetch(url string) ([]byte, error)
}

// HTTPFetcher fetches fonts over HTTP.
type HTTPFetcher struct {
	Client *http.Client
}

// Fetch downloads url. Any non-2xx status is an error.
func (f HTTPFetcher) Fetch(url string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetching font %q: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetching font %q: unexpected status %s", url, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFontBytes))
	if err != nil {
		return nil, fmt.Errorf("reading font %q: %w", url, err)
	}
	return data, nil
}

// FontConfig tells a FontResolver where the font lives locally and remotely.
type FontConfig struct {
	CacheDir     string        `yaml:"cache_dir"`
	File         string        `yaml:"file"`
	URL          string        `yaml:"url"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

// FontOption customizes a FontResolver.
type FontOption func(*FontResolver)

// WithFetcher replaces the HTTP fetcher.
func WithFetcher(f Fetcher) FontOption {
	return func(r *FontResolver) { r.fetcher = f }
}

// WithFontLogger sets the logger used to report fallbacks.
func WithFontLogger(l *zap.Logger) FontOption {
	return func(r *FontResolver) { r.logger = l }
}

// FontResolver returns faces of the overlay font, downloading and caching the
// font file on first use and falling back to a built-in bitmap face whenever
// the font cannot be obtained.
type FontResolver struct {
	path    string
	url     string
	fetcher Fetcher
	logger  *zap.Logger

	mu     sync.Mutex
	loaded bool
	font   *truetype.Font
}

var _ FaceResolver = (*FontResolver)(nil)

// NewFontResolver builds a resolver for cfg. Empty fields take the defaults.
func NewFontResolver(cfg FontConfig, opts ...FontOption) *FontResolver {
	if cfg.CacheDir == "" {
		cfg.CacheDir = DefaultFontDir
	}
	if cfg.File == "" {
		cfg.File = DefaultFontFile
	}
	if cfg.URL == "" {
		cfg.URL = DefaultFontURL
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}

	r := &FontResolver{
		path:    filepath.Join(cfg.CacheDir, cfg.File),
		url:     cfg.URL,
		fetcher: HTTPFetcher{Client: &http.Client{Timeout: cfg.FetchTimeout}},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Path returns the location of the cached font file.
func (r *FontResolver) Path() string { return r.path }

// Resolve returns a face of the overlay font at size pixels. It never fails:
// if the font cannot be fetched, written, read or parsed, the returned face is
// the built-in 7x13 bitmap face regardless of size.
func (r *FontResolver) Resolve(size int) *Face {
	if size < 1 {
		size = 1
	}
	f := r.truetype()
	if f == nil {
		return FallbackFace(size)
	}
	return &Face{
		Face: truetype.NewFace(f, &truetype.Options{
			Size:    float64(size),
			DPI:     72,
			Hinting: font.HintingFull,
		}),
		Size: size,
	}
}

// FallbackFace returns the built-in bitmap face. size is recorded but does not
// change the glyphs.
func FallbackFace(size int) *Face {
	return &Face{Face: basicfont.Face7x13, Size: size, Fallback: true}
}

func (r *FontResolver) truetype() *truetype.Font {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loaded {
		return r.font
	}

	// Fetch on any read failure. loaded is set on every path below, so this
	// runs at most once.
	data, err := os.ReadFile(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			r.logger.Warn("Cannot read cached overlay font", zap.String("path", r.path), zap.Error(err))
		}
		data, err = r.download()
	}
	if err != nil {
		r.logger.Warn("Overlay font unavailable, using built-in face",
			zap.String("path", r.path),
			zap.Error(err),
		)
		r.loaded = true
		return nil
	}

	f, err := truetype.Parse(data)
	if err != nil {
		r.logger.Warn("Overlay font is corrupt, using built-in face",
			zap.String("path", r.path),
			zap.Error(err),
		)
		r.loaded = true
		return nil
	}
	r.font, r.loaded = f, true
	return f
}

// download fetches the font, checks that it parses and stores it at r.path.
// The parsed bytes are returned even when the cache cannot be written.
func (r *FontResolver) download() ([]byte, error) {
	r.logger.Info("Downloading overlay font", zap.String("url", r.url), zap.String("path", r.path))

	data, err := r.fetcher.Fetch(r.url)
	if err != nil {
		return nil, err
	}
	if _, err := truetype.Parse(data); err != nil {
		return nil, fmt.Errorf("downloaded font from %q does not parse: %w", r.url, err)
	}
	if err := writeFileAtomic(r.path, data); err != nil {
		r.logger.Warn("Could not cache overlay font", zap.String("path", r.path), zap.Error(err))
	}
	return data, nil
}

// writeFileAtomic writes data next to path and renames it into place so a
// concurrent reader never sees a partial file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating font directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".font-*")
	if err != nil {
		return fmt.Errorf("creating temporary font file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing font: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing font: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
