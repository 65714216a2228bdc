// Package download fetches component archives from an ordered list of
// mirrors, retrying each mirror before falling back to the next.
package download

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	units "github.com/docker/go-units"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/danieljhkim/bigdata-wsl/internal/archive"
	"github.com/danieljhkim/bigdata-wsl/internal/config"
	"github.com/danieljhkim/bigdata-wsl/internal/event"
	"github.com/danieljhkim/bigdata-wsl/internal/install"
)

// DefaultMinSize is the smallest file accepted as a real archive. Mirrors
// that have dropped a release often answer with a small HTML page.
const DefaultMinSize = 1000000

const userAgent = "bigdata-installer"

// Target is a single artifact to fetch.
type Target struct {
	Name        string
	URLs        []string // tried in order, primary first
	Destination string
	MinSize     int64
	SHA512      string // optional hex digest
}

// TargetFor builds the Target of a catalog component.
func TargetFor(cfg *config.Config, comp config.Component) Target {
	return Target{
		Name:        comp.Name,
		URLs:        comp.DownloadURLs(cfg.Mirrors),
		Destination: cfg.Paths().ArchivePath(comp),
		MinSize:     cfg.Download.MinSizeBytes,
		SHA512:      cfg.Checksums[comp.Name],
	}
}

// Downloader implements the mirror/retry loop.
type Downloader struct {
	client         *http.Client
	retries        int
	backoff        time.Duration
	attemptTimeout time.Duration
	validate       func(path string) error
	log            *zap.Logger
	events         event.Sink
	progressEvery  time.Duration
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithClient replaces the HTTP client.
func WithClient(c *http.Client) Option {
	return func(d *Downloader) { d.client = c }
}

// WithValidator replaces the archive integrity check.
func WithValidator(fn func(path string) error) Option {
	return func(d *Downloader) { d.validate = fn }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(d *Downloader) { d.log = log }
}

// WithEvents sets the progress sink.
func WithEvents(sink event.Sink) Option {
	return func(d *Downloader) { d.events = sink }
}

// New returns a Downloader configured from cfg.
func New(cfg config.DownloadConfig, opts ...Option) *Downloader {
	d := &Downloader{
		client:         newClient(cfg),
		retries:        cfg.Retries,
		backoff:        cfg.Backoff,
		attemptTimeout: cfg.AttemptTimeout,
		validate:       archive.Validate,
		log:            zap.NewNop(),
		progressEvery:  time.Second,
	}
	if d.retries < 1 {
		d.retries = 1
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func newClient(cfg config.DownloadConfig) *http.Client {
	connect := cfg.ConnectTimeout
	if connect <= 0 {
		connect = 15 * time.Second
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: connect, KeepAlive: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout:   connect,
		ResponseHeaderTimeout: cfg.ResponseTimeout,
		MaxIdleConns:          4,
		IdleConnTimeout:       30 * time.Second,
	}
	return &http.Client{Transport: transport}
}

// Download fetches t and returns its destination path. On any failure no
// file is left at the destination or its partial path.
func (d *Downloader) Download(ctx context.Context, t Target) (string, error) {
	if len(t.URLs) == 0 {
		return "", install.Errorf(install.Download, "", "no download locations for %s", t.Name)
	}
	minSize := t.MinSize
	if minSize <= 0 {
		minSize = DefaultMinSize
	}
	if err := os.MkdirAll(filepath.Dir(t.Destination), 0755); err != nil {
		return "", install.Wrap(install.Download, "create downloads dir", err)
	}

	if err := d.check(t, minSize, ""); err == nil {
		d.log.Info("using cached archive", zap.String("artifact", t.Name), zap.String("path", t.Destination))
		d.events.Infof(t.Name, "using cached %s", filepath.Base(t.Destination))
		return t.Destination, nil
	}

	var lastErr error
	for i, url := range t.URLs {
		for attempt := 1; attempt <= d.retries; attempt++ {
			d.removePartial(t)
			if err := ctx.Err(); err != nil {
				return "", err
			}

			log := d.log.With(zap.String("artifact", t.Name), zap.String("url", url), zap.Int("attempt", attempt))
			d.events.Progressf(t.Name, "downloading %s (attempt %d/%d)", url, attempt, d.retries)

			digest, err := d.fetch(ctx, url, t)
			if err == nil {
				err = d.check(t, minSize, digest)
			}
			if err == nil {
				log.Info("download complete")
				return t.Destination, nil
			}

			d.removePartial(t)
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			lastErr = err
			log.Warn("download attempt failed", zap.Error(err))
			d.events.Warnf(t.Name, err, "attempt %d from %s failed", attempt, url)

			if i == len(t.URLs)-1 && attempt == d.retries {
				break
			}
			if err := sleep(ctx, d.backoff); err != nil {
				d.removePartial(t)
				return "", err
			}
		}
	}

	// The last attempt may have failed validation; exhaustion is still a
	// download failure.
	return "", &install.Error{
		Kind: install.Download,
		Op:   "download " + t.Name,
		Hint: "check network access to " + hostOf(t.URLs[0]) + " or set BIGDATA_MIRRORS",
		Err:  errors.Wrapf(lastErr, "all mirrors exhausted (%d locations, %d attempts each)", len(t.URLs), d.retries),
	}
}

// fetch streams url into the partial file and renames it to the
// destination. It returns the hex SHA-512 of the body when one is pinned.
func (d *Downloader) fetch(ctx context.Context, url string, t Target) (string, error) {
	if d.attemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.attemptTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errors.Wrap(err, "building request")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.Errorf("unexpected HTTP status %s", resp.Status)
	}

	part := partialPath(t)
	f, err := os.OpenFile(part, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return "", errors.Wrap(err, "creating partial file")
	}

	var hasher hash.Hash
	var w io.Writer = f
	if t.SHA512 != "" {
		hasher = sha512.New()
		w = io.MultiWriter(f, hasher)
	}
	pw := &progressWriter{w: w, name: t.Name, total: resp.ContentLength, sink: d.events, every: d.progressEvery}

	_, copyErr := io.Copy(pw, resp.Body)
	closeErr := f.Close()
	if copyErr != nil {
		return "", errors.Wrap(copyErr, "reading response body")
	}
	if closeErr != nil {
		return "", errors.Wrap(closeErr, "closing partial file")
	}
	if err := os.Rename(part, t.Destination); err != nil {
		return "", errors.Wrap(err, "moving download into place")
	}

	if hasher == nil {
		return "", nil
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// check validates the file at the destination and removes it when invalid.
// digest is the streamed SHA-512, or empty to compute it from disk.
func (d *Downloader) check(t Target, minSize int64, digest string) error {
	info, err := os.Stat(t.Destination)
	if err != nil {
		return err
	}
	if info.Size() <= minSize {
		os.Remove(t.Destination)
		return errors.Errorf("file is %s, not above the %s minimum",
			units.HumanSize(float64(info.Size())), units.HumanSize(float64(minSize)))
	}
	if t.SHA512 != "" {
		if digest == "" {
			if digest, err = fileSHA512(t.Destination); err != nil {
				os.Remove(t.Destination)
				return err
			}
		}
		if !strings.EqualFold(digest, strings.TrimSpace(t.SHA512)) {
			os.Remove(t.Destination)
			return errors.Errorf("sha512 mismatch: got %s", digest)
		}
	}
	if d.validate != nil {
		if err := d.validate(t.Destination); err != nil {
			os.Remove(t.Destination)
			return errors.Wrap(err, "archive integrity check failed")
		}
	}
	return nil
}

func (d *Downloader) removePartial(t Target) {
	os.Remove(t.Destination)
	os.Remove(partialPath(t))
}

func partialPath(t Target) string {
	return t.Destination + ".part"
}

func fileSHA512(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.WithStack(err)
	}
	defer f.Close()
	h := sha512.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrapf(err, "hashing %s", path)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func hostOf(url string) string {
	rest := url
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	return rest
}
