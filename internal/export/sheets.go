package export

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"gembala/internal/stats"
)

// SnapshotWriter is the outbound port the export worker uses.
type SnapshotWriter interface {
	AppendSnapshot(ctx context.Context, snap *stats.Snapshot) error
}

// SheetsClient appends dashboard snapshots as rows to a Google Sheet, one
// row per export run. Authentication uses a service account credentials
// file; the spreadsheet must be shared with the service account.
type SheetsClient struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ SnapshotWriter = (*SheetsClient)(nil)

func NewSheetsClient(ctx context.Context, credentialsFile, spreadsheetID, sheetName string) (*SheetsClient, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "Statistik"
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsFile(credentialsFile),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &SheetsClient{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func (c *SheetsClient) AppendSnapshot(ctx context.Context, snap *stats.Snapshot) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:Z", c.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{snapshotRow(snap)}}

	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}
	return nil
}

// snapshotRow flattens a snapshot into one spreadsheet row: timestamp,
// the five totals, gender counts, then the age buckets in display order.
func snapshotRow(snap *stats.Snapshot) []any {
	row := []any{
		snap.DibuatPada.Format("2006-01-02 15:04:05"),
		snap.TotalJemaat,
		snap.TotalKeluarga,
		snap.TotalBaptis,
		snap.TotalSidi,
		snap.TotalNikah,
	}
	for _, g := range snap.JenisKelamin {
		row = append(row, g.Count)
	}
	for _, b := range snap.KelompokUmur {
		row = append(row, b.Count)
	}
	return row
}
