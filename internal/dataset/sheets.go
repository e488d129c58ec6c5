package dataset

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// SheetsSource reads a range of a Google spreadsheet through the Sheets API.
type SheetsSource struct {
	SpreadsheetID string
	Range         string

	fetch func(ctx context.Context) ([][]interface{}, error)
}

// NewSheetsSource authenticates with an API key (public sheets) or a service
// account credentials file.
func NewSheetsSource(ctx context.Context, spreadsheetID, rng, apiKey, credentialsFile string) (*SheetsSource, error) {
	name := "sheets://" + spreadsheetID
	if spreadsheetID == "" {
		return nil, newLoadError(KindNotFound, name, errors.New("missing spreadsheet id"))
	}
	if rng == "" {
		rng = "Sheet1"
	}

	opts := []goption.ClientOption{goption.WithScopes(gsheet.SpreadsheetsReadonlyScope)}
	switch {
	case apiKey != "":
		opts = append(opts, goption.WithAPIKey(apiKey))
	case credentialsFile != "":
		opts = append(opts, goption.WithCredentialsFile(credentialsFile))
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, newLoadError(KindNetworkFailure, name, fmt.Errorf("sheets service: %w", err))
	}

	s := &SheetsSource{SpreadsheetID: spreadsheetID, Range: rng}
	s.fetch = func(ctx context.Context) ([][]interface{}, error) {
		resp, err := svc.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
		if err != nil {
			return nil, err
		}
		return resp.Values, nil
	}
	return s, nil
}

func (s *SheetsSource) Name() string {
	return "sheets://" + s.SpreadsheetID + "/" + s.Range
}

func (s *SheetsSource) Open(ctx context.Context) (Table, error) {
	values, err := s.fetch(ctx)
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
			return Table{}, newLoadError(KindNotFound, s.Name(), err)
		}
		return Table{}, newLoadError(KindNetworkFailure, s.Name(), err)
	}

	table, err := tableFromValues(values)
	if err != nil {
		return Table{}, newLoadError(KindParseFailure, s.Name(), err)
	}
	return table, nil
}

// tableFromValues converts a Sheets value range into a Table. The API omits
// trailing empty cells, so short rows are padded to the header width.
func tableFromValues(values [][]interface{}) (Table, error) {
	if len(values) == 0 {
		return Table{}, errors.New("empty sheet")
	}

	header := make([]string, len(values[0]))
	for i, v := range values[0] {
		header[i] = fmt.Sprint(v)
	}
	if missing := missingColumns(indexColumns(header)); len(missing) > 0 {
		return Table{}, fmt.Errorf("%w: %v", errMissingColumns, missing)
	}

	rows := make([][]string, 0, len(values)-1)
	for _, raw := range values[1:] {
		row := make([]string, max(len(header), len(raw)))
		for i, v := range raw {
			row[i] = fmt.Sprint(v)
		}
		rows = append(rows, row)
	}
	return Table{Header: header, Rows: rows}, nil
}
