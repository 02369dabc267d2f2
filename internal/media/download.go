package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"videofactory/internal/domain"
	"videofactory/internal/infra"
)

const (
	defaultDownloadTimeout = 8 * time.Second
	maxDownloadBytes       = 32 << 20
)

// ErrorKind tells the caller why a candidate was rejected.
type ErrorKind int

const (
	KindNetwork ErrorKind = iota + 1
	KindTooSmall
	KindTooLowRes
	KindBlacklisted
	KindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTooSmall:
		return "too_small"
	case KindTooLowRes:
		return "too_low_res"
	case KindBlacklisted:
		return "blacklisted"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// DownloadError is returned for every rejected candidate. None of them is fatal
// to the caller, they all mean "try the next one".
type DownloadError struct {
	Kind ErrorKind
	URL  string
	Err  error
}

func (e *DownloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("download %s (%s): %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("download %s (%s)", e.URL, e.Kind)
}

// Unwrap exposes both the domain sentinel and the underlying cause.
func (e *DownloadError) Unwrap() []error {
	var sentinel error
	switch e.Kind {
	case KindNetwork:
		sentinel = domain.ErrNetwork
	case KindBlacklisted:
		sentinel = domain.ErrBlacklisted
	default:
		sentinel = domain.ErrValidation
	}
	if e.Err == nil {
		return []error{sentinel}
	}
	return []error{sentinel, e.Err}
}

// KindOf returns the kind of a DownloadError in err's chain, or zero.
func KindOf(err error) ErrorKind {
	var de *DownloadError
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}

// Store is where accepted assets are written.
type Store interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
	Path(key string) string
}

// Accepted describes a candidate that passed validation and was written.
type Accepted struct {
	Key          string
	Path         string
	Width        int
	Height       int
	Bytes        int
	SourceWidth  int
	SourceHeight int
}

// DownloaderOptions configures a Downloader.
type DownloaderOptions struct {
	HTTPClient   *http.Client
	Timeout      time.Duration
	Validator    *Validator
	MinDimension int
	Store        Store
	Logger       *infra.Logger
}

// Downloader fetches candidate images, validates them and stores the normalized PNG.
type Downloader struct {
	client    *http.Client
	timeout   time.Duration
	validator Validator
	minDim    int
	store     Store
	logger    *infra.Logger
}

// NewDownloader wires a Downloader. A browser-like client is built when none is given.
func NewDownloader(opts DownloaderOptions) (*Downloader, error) {
	if opts.Store == nil {
		return nil, errors.New("media: store is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultDownloadTimeout
	}
	client := opts.HTTPClient
	if client == nil {
		client = NewBrowserClient(timeout)
	}
	validator := DefaultValidator()
	if opts.Validator != nil {
		validator = *opts.Validator
	}
	minDim := opts.MinDimension
	if minDim <= 0 {
		minDim = DefaultMinDimension
	}
	return &Downloader{
		client:    client,
		timeout:   timeout,
		validator: validator,
		minDim:    minDim,
		store:     opts.Store,
		logger:    infra.OrNop(opts.Logger),
	}, nil
}

// Validator returns the thresholds in use.
func (d *Downloader) Validator() Validator {
	return d.validator
}

// Fetch downloads c, validates it, normalizes it to ratio and writes it under key.
// Blacklisted candidates are rejected before any request is made.
func (d *Downloader) Fetch(ctx context.Context, c domain.CandidateResource, ratio float64, key string) (Accepted, error) {
	if d.validator.DomainBlacklisted(c.URL) || d.validator.DomainBlacklisted(c.SourceDomain) {
		return Accepted{}, &DownloadError{Kind: KindBlacklisted, URL: c.URL}
	}

	data, err := d.get(ctx, c.URL)
	if err != nil {
		return Accepted{}, &DownloadError{Kind: KindNetwork, URL: c.URL, Err: err}
	}
	if !d.validator.SizeOK(len(data)) {
		return Accepted{}, &DownloadError{
			Kind: KindTooSmall,
			URL:  c.URL,
			Err:  fmt.Errorf("%d bytes, need %d", len(data), d.validator.MinBytes),
		}
	}

	img, _, err := Decode(data)
	if err != nil {
		return Accepted{}, &DownloadError{Kind: KindDecode, URL: c.URL, Err: err}
	}
	b := img.Bounds()
	if !d.validator.ResolutionOK(b.Dx(), b.Dy()) {
		return Accepted{}, &DownloadError{
			Kind: KindTooLowRes,
			URL:  c.URL,
			Err:  fmt.Errorf("%dx%d", b.Dx(), b.Dy()),
		}
	}

	out := Normalize(img, ratio, d.minDim)
	encoded, err := EncodePNG(out)
	if err != nil {
		return Accepted{}, &DownloadError{Kind: KindDecode, URL: c.URL, Err: err}
	}
	stored, err := d.store.Write(ctx, key, encoded)
	if err != nil {
		return Accepted{}, err
	}

	d.logger.Debug().
		Str("url", c.URL).
		Int("source_width", b.Dx()).
		Int("source_height", b.Dy()).
		Int("width", out.Bounds().Dx()).
		Int("height", out.Bounds().Dy()).
		Msg("media: candidate accepted")

	return Accepted{
		Key:          stored,
		Path:         d.store.Path(stored),
		Width:        out.Bounds().Dx(),
		Height:       out.Bounds().Dy(),
		Bytes:        len(encoded),
		SourceWidth:  b.Dx(),
		SourceHeight: b.Dy(),
	}, nil
}

func (d *Downloader) get(ctx context.Context, rawURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "image/avif,image/webp,image/png,image/jpeg,image/*;q=0.8,*/*;q=0.5")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
}
