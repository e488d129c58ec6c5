package dataset

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Source produces raw tabular data. Open errors are *LoadError.
type Source interface {
	Name() string
	Open(ctx context.Context) (Table, error)
}

// modTimer is implemented by sources backed by a local file, which lets the
// loader reuse a parsed snapshot.
type modTimer interface {
	ModTime() (time.Time, error)
}

// SourceOptions carries the settings each kind of source may need.
type SourceOptions struct {
	HTTPClient            *http.Client
	CopyDir               string
	SheetsRange           string
	GoogleAPIKey          string
	GoogleCredentialsFile string
	AWSRegion             string
	AWSProfile            string
}

// NewSource picks a Source for uri:
//
//	path or file://path       local CSV file
//	http(s)://...             direct download (share links are rewritten)
//	sheets://ID[/range]       Google Sheets API
//	s3://bucket/key           Amazon S3 object
//	sqlite://path             orders table of the SQLite store
func NewSource(ctx context.Context, uri string, opts SourceOptions) (Source, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, newLoadError(KindNotFound, uri, fmt.Errorf("no data source configured"))
	}

	scheme, rest, found := strings.Cut(uri, "://")
	if !found {
		return NewFileSource(uri), nil
	}

	switch strings.ToLower(scheme) {
	case "file":
		return NewFileSource(rest), nil
	case "http", "https":
		client := opts.HTTPClient
		if client == nil {
			client = &http.Client{Timeout: 30 * time.Second}
		}
		return NewHTTPSource(DirectDownloadURL(uri), client, opts.CopyDir), nil
	case "sheets":
		id, rng, _ := strings.Cut(rest, "/")
		if rng == "" {
			rng = opts.SheetsRange
		}
		if r, err := url.PathUnescape(rng); err == nil {
			rng = r
		}
		src, err := NewSheetsSource(ctx, id, rng, opts.GoogleAPIKey, opts.GoogleCredentialsFile)
		if err != nil {
			return nil, err
		}
		return src, nil
	case "s3":
		bucket, key, _ := strings.Cut(rest, "/")
		src, err := NewS3Source(ctx, bucket, key, opts.AWSRegion, opts.AWSProfile)
		if err != nil {
			return nil, err
		}
		return src, nil
	case "sqlite":
		return NewSQLiteSource(rest), nil
	default:
		return nil, newLoadError(KindNotFound, uri, fmt.Errorf("unsupported source scheme %q", scheme))
	}
}

type unavailableSource struct {
	name string
	err  error
}

// Unavailable is a Source whose Open always fails with err. It stands in for
// a source that could not be constructed, so the failure is surfaced on load.
func Unavailable(name string, err error) Source {
	return &unavailableSource{name: name, err: err}
}

func (s *unavailableSource) Name() string { return s.name }

func (s *unavailableSource) Open(ctx context.Context) (Table, error) {
	if _, ok := AsLoadError(s.err); ok {
		return Table{}, s.err
	}
	return Table{}, newLoadError(KindNotFound, s.name, s.err)
}
