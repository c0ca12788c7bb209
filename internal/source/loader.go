package source

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

// Default acquisition settings.
const (
	DefaultTimeout = 30 * time.Second
	DefaultRetries = 2
	DefaultBackoff = 250 * time.Millisecond
)

// BranchPlaceholder in a URL is replaced by the configured branch.
const BranchPlaceholder = "{branch}"

// disabledVerify are the verify settings that turn certificate checks off.
var disabledVerify = []string{"false", "no", "off", "-", "0", ""}

// Config configures a Loader.
type Config struct {
	// Verify is "true", a CA bundle path, or one of false/no/off/-/0/"".
	Verify   string
	Username string
	Password string
	// Branch replaces {branch} in URLs.
	Branch  string
	Timeout time.Duration
	Retries uint64
	// Backoff is the first retry delay; later delays grow exponentially.
	Backoff time.Duration
	// Client overrides the HTTP client built from the settings above.
	Client *http.Client
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Loader reads documents from files and URLs.
type Loader struct {
	client   *http.Client
	username string
	password string
	branch   string
	retries  uint64
	backoff  time.Duration
	logger   *slog.Logger
}

// NewLoader creates a loader. It fails when the CA bundle cannot be used.
func NewLoader(cfg Config) (*Loader, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = DefaultBackoff
	}

	client := cfg.Client
	if client == nil {
		tlsCfg, err := TLSConfig(cfg.Verify, logger)
		if err != nil {
			return nil, err
		}
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = tlsCfg
		client = &http.Client{Timeout: timeout, Transport: transport}
	}

	return &Loader{
		client:   client,
		username: cfg.Username,
		password: cfg.Password,
		branch:   cfg.Branch,
		retries:  cfg.Retries,
		backoff:  backoff,
		logger:   logger,
	}, nil
}

// TLSConfig translates a verify setting. A nil config means the system
// defaults. A path that does not exist keeps verification on.
func TLSConfig(verify string, logger *slog.Logger) (*tls.Config, error) {
	v := strings.ToLower(strings.TrimSpace(verify))
	switch {
	case slices.Contains(disabledVerify, v):
		return &tls.Config{InsecureSkipVerify: true}, nil //nolint:gosec // G402: disabled by configuration
	case v == "true" || v == "yes" || v == "on" || v == "1":
		return nil, nil
	}

	pem, err := os.ReadFile(verify) //nolint:gosec // G304: CA bundle path from configuration
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn("CA bundle not found, using system certificates", slog.String("path", verify))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CA bundle: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in CA bundle %s", verify)
	}
	return &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

// Load reads a local file or fetches a URL.
func (l *Loader) Load(ctx context.Context, location string) (*Document, error) {
	if IsURL(location) {
		return l.fetch(ctx, location)
	}
	return l.read(location)
}

func (l *Loader) read(path string) (*Document, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path from configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	doc := &Document{Location: path, Data: data}
	if doc.IsZip() {
		doc.Format = FormatWorkbench
		return doc, nil
	}
	if doc.Format, err = FormatForPath(path); err != nil {
		return nil, err
	}
	l.logger.Debug("read document", slog.String("path", path), slog.String("format", string(doc.Format)))
	return doc, nil
}

func (l *Loader) fetch(ctx context.Context, location string) (*Document, error) {
	target := strings.ReplaceAll(location, BranchPlaceholder, l.branch)

	var doc *Document
	attempt := 0
	backoff := retry.WithMaxRetries(l.retries, retry.NewExponential(l.backoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		d, retryable, err := l.get(ctx, target)
		if err != nil {
			if retryable {
				l.logger.Debug("fetch failed, retrying",
					slog.String("url", target),
					slog.Int("attempt", attempt),
					slog.String("error", err.Error()))
				return retry.RetryableError(err)
			}
			return err
		}
		doc = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Debug("fetched document",
		slog.String("url", target),
		slog.String("format", string(doc.Format)),
		slog.Int("bytes", len(doc.Data)))
	return doc, nil
}

// get performs one request. The boolean reports whether a failure is worth
// retrying.
func (l *Loader) get(ctx context.Context, target string) (*Document, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, false, &FetchError{URL: target, Err: err}
	}
	if l.username != "" {
		req.SetBasicAuth(l.username, l.password)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, &FetchError{URL: target, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, &FetchError{URL: target, Status: resp.StatusCode, Err: ErrNotFound}
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, true, &FetchError{URL: target, Status: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	case resp.StatusCode >= http.StatusMultipleChoices:
		return nil, false, &FetchError{URL: target, Status: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, &FetchError{URL: target, Err: fmt.Errorf("read body: %w", err)}
	}

	doc := &Document{Location: target, Data: data}
	if doc.IsZip() {
		doc.Format = FormatWorkbench
		return doc, false, nil
	}
	if doc.Format, err = FormatForContentType(resp.Header.Get("Content-Type"), target); err != nil {
		return nil, false, err
	}
	return doc, false, nil
}
