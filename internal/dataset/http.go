package dataset

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
)

const maxDownloadBytes = 256 << 20

// HTTPSource downloads a CSV payload with a GET request. When CopyDir is set
// the payload is written to a local copy there before parsing. Payloads
// larger than MaxBytes (default 256 MiB) are rejected.
type HTTPSource struct {
	URL      string
	Client   *http.Client
	CopyDir  string
	MaxBytes int64
}

func NewHTTPSource(url string, client *http.Client, copyDir string) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{URL: url, Client: client, CopyDir: copyDir}
}

func (s *HTTPSource) Name() string { return s.URL }

func (s *HTTPSource) Open(ctx context.Context) (Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return Table{}, newLoadError(KindNetworkFailure, s.URL, err)
	}
	req.Header.Set("Accept", "text/csv, text/plain, */*")
	req.Header.Set("User-Agent", "superstore-dashboard/1.0")

	resp, err := s.Client.Do(req)
	if err != nil {
		return Table{}, newLoadError(KindNetworkFailure, s.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Table{}, newLoadError(KindNetworkFailure, s.URL, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	limit := s.MaxBytes
	if limit <= 0 {
		limit = maxDownloadBytes
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return Table{}, newLoadError(KindNetworkFailure, s.URL, fmt.Errorf("read body: %w", err))
	}
	if int64(len(data)) > limit {
		return Table{}, newLoadError(KindParseFailure, s.URL, fmt.Errorf("payload exceeds %d bytes", limit))
	}

	var body io.Reader = bytes.NewReader(data)
	if s.CopyDir != "" {
		path, err := s.writeCopy(data)
		if err != nil {
			return Table{}, newLoadError(KindNetworkFailure, s.URL, err)
		}
		defer os.Remove(path)

		f, err := os.Open(path)
		if err != nil {
			return Table{}, newLoadError(KindNotFound, path, err)
		}
		defer f.Close()
		body = f
	}

	table, err := ReadCSV(body)
	if err != nil {
		return Table{}, newLoadError(KindParseFailure, s.URL, err)
	}
	return table, nil
}

// writeCopy stores the payload in CopyDir. The copy lives only while the
// payload is parsed.
func (s *HTTPSource) writeCopy(data []byte) (string, error) {
	if err := os.MkdirAll(s.CopyDir, 0o755); err != nil {
		return "", fmt.Errorf("create copy dir: %w", err)
	}

	f, err := os.CreateTemp(s.CopyDir, "download-*.csv")
	if err != nil {
		return "", fmt.Errorf("create local copy: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write local copy: %w", err)
	}
	return f.Name(), nil
}
