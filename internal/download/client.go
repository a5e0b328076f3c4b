package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const userAgent = "gw2ctl/1.0 (Guild Wars 2 addon manager)"

// Client downloads addon payloads over HTTP
type Client struct {
	http *http.Client
	log  *log.Logger
}

// New creates a download client. A nil httpClient gets a default with a generous timeout.
func New(httpClient *http.Client, logger *log.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 10 * time.Minute,
		}
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Client{http: httpClient, log: logger}
}

// Download streams url into dst, reporting progress as a fraction in 0..1.
// When the server does not announce a length, progress stays at 0 until the
// final report of 1.
func (c *Client) Download(ctx context.Context, url string, dst io.Writer, onProgress func(fraction float64)) error {
	c.log.Debug("Starting download", "url", url)

	resp, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status: %d", resp.StatusCode)
	}

	var written int64
	if onProgress != nil {
		written, err = copyWithProgress(dst, resp.Body, resp.ContentLength, onProgress)
	} else {
		written, err = io.Copy(dst, resp.Body)
	}
	if err != nil {
		return fmt.Errorf("failed to write download: %w", err)
	}

	c.log.Debug("Download complete", "url", url, "bytes_written", written)
	return nil
}

// ResolveFilename returns the file name a single-file download is saved as.
// URLs whose last segment is not a .zip or .dll are requested and the last
// segment of the final, redirected URL is used instead.
func (c *Client) ResolveFilename(ctx context.Context, url string) (string, error) {
	name := lastSegment(url)
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, ".zip") || strings.HasSuffix(lower, ".dll") {
		return name, nil
	}

	c.log.Debug("Resolving file name through redirects", "url", url)

	resp, err := c.get(ctx, url)
	if err != nil {
		return "", err
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to resolve file name, status: %d", resp.StatusCode)
	}

	resolved := lastSegment(resp.Request.URL.Path)
	if resolved == "" {
		return "", fmt.Errorf("no file name in %s", resp.Request.URL)
	}
	return resolved, nil
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download: %w", err)
	}
	return resp, nil
}

func lastSegment(raw string) string {
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	raw = strings.TrimSuffix(raw, "/")
	if raw == "" {
		return ""
	}
	return path.Base(raw)
}

// copyWithProgress copies from src to dst while reporting progress
func copyWithProgress(dst io.Writer, src io.Reader, total int64, onProgress func(float64)) (int64, error) {
	buf := make([]byte, 32*1024) // 32KB buffer
	var written int64
	var lastReport int64

	report := func() {
		if total > 0 {
			onProgress(float64(written) / float64(total))
		} else {
			onProgress(0)
		}
	}

	for {
		nr, er := src.Read(buf)
		if nr > 0 {
			nw, ew := dst.Write(buf[0:nr])
			if nw < 0 || nr < nw {
				nw = 0
				if ew == nil {
					ew = fmt.Errorf("invalid write result")
				}
			}
			written += int64(nw)

			// Report progress every 100KB
			if written-lastReport > 100*1024 {
				report()
				lastReport = written
			}

			if ew != nil {
				return written, ew
			}
			if nr != nw {
				return written, io.ErrShortWrite
			}
		}
		if er != nil {
			if er != io.EOF {
				return written, er
			}
			break
		}
	}

	onProgress(1)
	return written, nil
}
