package imagecache

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"golang.org/x/crypto/blake2b"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"movie-indexer/internal/filesystem"
	"movie-indexer/internal/logging"
	"movie-indexer/internal/metrics"
)

var log = logging.Named("imagecache")

const (
	// DefaultMaxDimension bounds the width and height of cached images.
	DefaultMaxDimension = 1920

	// MaxImagePixels is the largest source image that is decoded at all.
	// A 50MP image needs about 200MB in RGBA.
	MaxImagePixels = 50_000_000

	defaultQuality = 85
	defaultWorkers = 2
)

// ErrTooLarge is returned for images beyond MaxImagePixels.
var ErrTooLarge = errors.New("image too large")

// Gate holds back decoding while memory is scarce.
type Gate interface {
	Wait(ctx context.Context) error
}

// Options configure a Cache.
type Options struct {
	MaxDimension int
	Quality      int
	Workers      int
	// Gate is consulted before every decode; nil never blocks.
	Gate Gate
}

// Cache writes resized artwork into a directory.
type Cache struct {
	dir  string
	opts Options

	// serializes writers of the same cache file
	mu      sync.Mutex
	writing map[string]*sync.Mutex
}

// New creates the cache directory when needed.
func New(dir string, opts Options) (*Cache, error) {
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = DefaultMaxDimension
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = defaultQuality
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image cache dir %s: %w", dir, err)
	}
	log.Debug("image cache in %s (max %dpx)", dir, opts.MaxDimension)

	return &Cache{
		dir:     dir,
		opts:    opts,
		writing: make(map[string]*sync.Mutex),
	}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Path returns the cache file used for the image at src.
func (c *Cache) Path(src string) string {
	sum := blake2b.Sum256([]byte(filepath.Clean(src)))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:16])+cacheExt(src))
}

func cacheExt(src string) string {
	if strings.EqualFold(filepath.Ext(src), ".png") {
		return ".png"
	}
	return ".jpg"
}

// Cache stores every image of paths and returns how many are now
// up to date in the cache. Failures of single images are collected and
// returned together; they do not stop the others.
func (c *Cache) Cache(ctx context.Context, paths []string) (int, error) {
	var (
		mu     sync.Mutex
		cached int
		errs   []error
	)

	var g errgroup.Group
	g.SetLimit(c.opts.Workers)

	for _, p := range paths {
		if ctx.Err() != nil {
			break
		}
		src := p
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			if c.opts.Gate != nil {
				if err := c.opts.Gate.Wait(ctx); err != nil {
					return nil
				}
			}
			_, err := c.CacheImage(src)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
			} else {
				cached++
			}
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		errs = append(errs, ctx.Err())
	}
	log.Debug("cached %d of %d images", cached, len(paths))
	return cached, errors.Join(errs...)
}

// CacheImage stores one image unless an up-to-date copy exists and returns
// the cache file.
func (c *Cache) CacheImage(src string) (string, error) {
	dst := c.Path(src)

	unlock := c.lock(dst)
	defer unlock()

	info, err := filesystem.StatWithRetry(src, filesystem.DefaultRetryConfig())
	if err != nil {
		metrics.ImageCacheWrites.WithLabelValues("error").Inc()
		return "", fmt.Errorf("image %s not accessible: %w", src, err)
	}
	if cached, err := os.Stat(dst); err == nil && !cached.ModTime().Before(info.ModTime()) {
		metrics.ImageCacheWrites.WithLabelValues("cached").Inc()
		return dst, nil
	}

	img, err := c.load(src)
	if err != nil {
		metrics.ImageCacheWrites.WithLabelValues("error").Inc()
		return "", err
	}

	if err := c.write(img, dst); err != nil {
		metrics.ImageCacheWrites.WithLabelValues("error").Inc()
		return "", err
	}
	metrics.ImageCacheWrites.WithLabelValues("written").Inc()
	log.Debug("cached %s as %s", src, filepath.Base(dst))
	return dst, nil
}

// load decodes src and scales it down to the configured bounds.
func (c *Cache) load(src string) (image.Image, error) {
	if dims, err := dimensions(src); err == nil && dims.X*dims.Y > MaxImagePixels {
		return nil, fmt.Errorf("%s (%dx%d): %w", src, dims.X, dims.Y, ErrTooLarge)
	}

	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", src, err)
	}

	b := img.Bounds()
	if b.Dx() > c.opts.MaxDimension || b.Dy() > c.opts.MaxDimension {
		img = imaging.Fit(img, c.opts.MaxDimension, c.opts.MaxDimension, imaging.Lanczos)
	}
	return img, nil
}

// write encodes img to a temporary file next to dst and renames it into
// place, so readers never see a partial file.
func (c *Cache) write(img image.Image, dst string) error {
	format := imaging.JPEG
	if filepath.Ext(dst) == ".png" {
		format = imaging.PNG
	}

	tmp, err := os.CreateTemp(c.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err := os.Remove(tmp.Name()); err != nil && !os.IsNotExist(err) {
			log.Warn("failed to remove %s: %v", tmp.Name(), err)
		}
	}()

	if err := imaging.Encode(tmp, img, format, imaging.JPEGQuality(c.opts.Quality)); err != nil {
		tmp.Close()
		return fmt.Errorf("encode %s: %w", dst, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("rename to %s: %w", dst, err)
	}
	return nil
}

func (c *Cache) lock(dst string) func() {
	c.mu.Lock()
	m, ok := c.writing[dst]
	if !ok {
		m = &sync.Mutex{}
		c.writing[dst] = m
	}
	c.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// dimensions reads the image size without decoding the pixels.
func dimensions(path string) (image.Point, error) {
	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return image.Point{}, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return image.Point{}, err
	}
	return image.Point{X: cfg.Width, Y: cfg.Height}, nil
}

// Size returns the number of cached files and their total size.
func (c *Cache) Size() (files int, bytes int64, err error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, 0, err
	}
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".tmp-") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files++
		bytes += info.Size()
	}
	return files, bytes, nil
}
