// Package ledger keeps one spreadsheet row per checkout. There is no index:
// every lookup and update reads the sheet again and takes the first row whose
// reference matches.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/akylbek/coworking-payments/internal/models"
	"github.com/akylbek/coworking-payments/internal/telemetry"
)

// Column layout, A to I.
const (
	colCreatedAt = iota
	colPayerName
	colPayerEmail
	colTaxID
	colKind
	colDescription
	colAmount
	colReference
	colStatus
	columnCount
)

const statusColumn = "I"

var Header = []interface{}{
	"Data", "Nome", "Email", "CPF", "Tipo", "Descrição", "Valor", "Referência", "Status",
}

// values is the subset of the Sheets values API the ledger uses.
type values interface {
	Get(ctx context.Context, rng string) ([][]interface{}, error)
	Append(ctx context.Context, rng string, row []interface{}) error
	Update(ctx context.Context, rng string, row []interface{}) error
}

type Credentials struct {
	JSON        string
	ClientEmail string
	PrivateKey  string
}

func (c Credentials) serviceAccountJSON() ([]byte, error) {
	if c.JSON != "" {
		return []byte(c.JSON), nil
	}
	return json.Marshal(map[string]string{
		"type":         "service_account",
		"client_email": c.ClientEmail,
		"private_key":  c.PrivateKey,
		"token_uri":    "https://oauth2.googleapis.com/token",
	})
}

type SheetLedger struct {
	values values
	sheet  string
	logger *zap.Logger
}

func NewSheetLedger(ctx context.Context, spreadsheetID, sheet string, creds Credentials, logger *zap.Logger) (*SheetLedger, error) {
	credJSON, err := creds.serviceAccountJSON()
	if err != nil {
		return nil, fmt.Errorf("encode service account: %w", err)
	}

	v, err := newSheetValues(ctx, spreadsheetID,
		option.WithCredentialsJSON(credJSON),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, err
	}
	return newSheetLedger(v, sheet, logger), nil
}

func newSheetLedger(v values, sheet string, logger *zap.Logger) *SheetLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SheetLedger{values: v, sheet: sheet, logger: logger}
}

// EnsureHeader writes the column titles when the sheet is empty.
func (l *SheetLedger) EnsureHeader(ctx context.Context) error {
	rows, err := l.values.Get(ctx, l.rangeAll())
	if err != nil {
		return fmt.Errorf("read ledger: %w", err)
	}
	if len(rows) > 0 {
		return nil
	}
	return l.values.Append(ctx, l.rangeAll(), Header)
}

func (l *SheetLedger) Append(ctx context.Context, row models.LedgerRow) error {
	err := l.values.Append(ctx, l.rangeAll(), encodeRow(row))
	l.observe("append", err)
	if err != nil {
		return fmt.Errorf("append ledger row %s: %w", row.ExternalReference, err)
	}
	return nil
}

func (l *SheetLedger) FindByReference(ctx context.Context, ref string) (*models.LedgerRow, error) {
	rows, err := l.values.Get(ctx, l.rangeAll())
	l.observe("find", err)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	idx, ok := matchRow(rows, ref)
	if !ok {
		return nil, models.ErrLedgerRowNotFound
	}
	row := decodeRow(rows[idx])
	return &row, nil
}

func (l *SheetLedger) UpdateStatus(ctx context.Context, ref string, status models.LedgerStatus) error {
	rows, err := l.values.Get(ctx, l.rangeAll())
	if err != nil {
		l.observe("update", err)
		return fmt.Errorf("read ledger: %w", err)
	}

	idx, ok := matchRow(rows, ref)
	if !ok {
		l.observe("update", models.ErrLedgerRowNotFound)
		return models.ErrLedgerRowNotFound
	}

	// Sheet rows are 1-based and the range starts at row 1.
	cell := fmt.Sprintf("%s!%s%d", l.sheet, statusColumn, idx+1)
	err = l.values.Update(ctx, cell, []interface{}{string(status)})
	l.observe("update", err)
	if err != nil {
		return fmt.Errorf("update ledger row %s: %w", ref, err)
	}

	l.logger.Info("Ledger row status updated",
		zap.String("external_reference", ref),
		zap.Int("row", idx+1),
		zap.String("status", string(status)),
	)
	return nil
}

func (l *SheetLedger) rangeAll() string {
	return fmt.Sprintf("%s!A:%s", l.sheet, statusColumn)
}

func (l *SheetLedger) observe(op string, err error) {
	telemetry.LedgerOperations.WithLabelValues(op, telemetry.OutcomeLabel(err == nil)).Inc()
}

// matchRow returns the index of the first row whose reference cell equals ref.
func matchRow(rows [][]interface{}, ref string) (int, bool) {
	if ref == "" {
		return 0, false
	}
	for i, row := range rows {
		if cell(row, colReference) == ref {
			return i, true
		}
	}
	return 0, false
}

func cell(row []interface{}, col int) string {
	if col >= len(row) || row[col] == nil {
		return ""
	}
	return fmt.Sprint(row[col])
}

func encodeRow(r models.LedgerRow) []interface{} {
	out := make([]interface{}, columnCount)
	out[colCreatedAt] = r.CreatedAt.Format(time.RFC3339)
	out[colPayerName] = r.PayerName
	out[colPayerEmail] = r.PayerEmail
	out[colTaxID] = r.TaxID
	out[colKind] = r.Kind
	out[colDescription] = r.Description
	out[colAmount] = r.Amount.StringFixed(2)
	out[colReference] = r.ExternalReference
	out[colStatus] = string(r.Status)
	return out
}

func decodeRow(row []interface{}) models.LedgerRow {
	r := models.LedgerRow{
		PayerName:         cell(row, colPayerName),
		PayerEmail:        cell(row, colPayerEmail),
		TaxID:             cell(row, colTaxID),
		Kind:              cell(row, colKind),
		Description:       cell(row, colDescription),
		ExternalReference: cell(row, colReference),
		Status:            models.LedgerStatus(cell(row, colStatus)),
	}
	if t, err := time.Parse(time.RFC3339, cell(row, colCreatedAt)); err == nil {
		r.CreatedAt = t
	}
	if amount, err := decimal.NewFromString(cell(row, colAmount)); err == nil {
		r.Amount = amount
	}
	return r
}

// RAW stores cells as sent: CPFs keep leading zeros and amounts and
// timestamps are not reparsed by the sheet locale.
const valueInputOption = "RAW"

type sheetValues struct {
	svc           *sheets.Service
	spreadsheetID string
}

func newSheetValues(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*sheetValues, error) {
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &sheetValues{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func (s *sheetValues) Get(ctx context.Context, rng string) ([][]interface{}, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (s *sheetValues) Append(ctx context.Context, rng string, row []interface{}) error {
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, rng, &sheets.ValueRange{
		Values: [][]interface{}{row},
	}).ValueInputOption(valueInputOption).InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	return err
}

func (s *sheetValues) Update(ctx context.Context, rng string, row []interface{}) error {
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, &sheets.ValueRange{
		Values: [][]interface{}{row},
	}).ValueInputOption(valueInputOption).Context(ctx).Do()
	return err
}
