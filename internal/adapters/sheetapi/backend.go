// Package sheetapi reaches a remote spreadsheet service over HTTP. Each trial
// maps to one sheet whose values are exchanged as a CSV document:
//
//	GET  {base}/sheets/{sheet}/values   -> 200 text/csv, 404 when the sheet is empty
//	PUT  {base}/sheets/{sheet}/values   <- text/csv, replaces every row
//
// Requests carry a bearer token obtained before the session starts.
package sheetapi

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"gopkg.in/resty.v1"

	"github.com/example/enroll/internal/models"
	"github.com/example/enroll/internal/ports/secondary"
	"github.com/example/enroll/internal/rostercodec"
)

// Config describes the remote sheet service.
type Config struct {
	BaseURL string
	Token   string
	Sheets  map[string]string // trial ID -> sheet ID; trial ID is used when absent
	Timeout time.Duration
}

// Backend implements secondary.RosterBackend against the sheet service.
type Backend struct {
	client *resty.Client
	sheets map[string]string
}

// New creates a sheet API backend.
func New(cfg Config) (*Backend, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("sheet API base URL required")
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid sheet API base URL: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	client := resty.New().
		SetHostURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", "enroll-sheetapi")
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}

	return &Backend{client: client, sheets: cfg.Sheets}, nil
}

// Name returns the driver name.
func (b *Backend) Name() string { return "sheetapi" }

// SheetID returns the remote sheet for a trial.
func (b *Backend) SheetID(trialID string) string {
	if id, ok := b.sheets[trialID]; ok && id != "" {
		return id
	}
	return trialID
}

func (b *Backend) valuesPath(trialID string) string {
	return "/sheets/" + url.PathEscape(b.SheetID(trialID)) + "/values"
}

// Load fetches the sheet values.
func (b *Backend) Load(ctx context.Context, trialID string) (models.Roster, error) {
	resp, err := b.client.R().
		SetContext(ctx).
		SetHeader("Accept", "text/csv").
		Get(b.valuesPath(trialID))
	if err != nil {
		return nil, fmt.Errorf("sheet request failed: %w", err)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, fmt.Errorf("sheet %s: %w", b.SheetID(trialID), secondary.ErrNotFound)
	case resp.IsError():
		return nil, fmt.Errorf("sheet %s: unexpected status %s", b.SheetID(trialID), resp.Status())
	}

	roster, err := rostercodec.DecodeCSV(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("malformed sheet %s: %w", b.SheetID(trialID), err)
	}
	return roster, nil
}

// Save replaces the sheet values with the full roster.
func (b *Backend) Save(ctx context.Context, trialID string, roster models.Roster) error {
	data, err := rostercodec.MarshalCSV(roster)
	if err != nil {
		return err
	}

	resp, err := b.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "text/csv; charset=utf-8").
		SetBody(data).
		Put(b.valuesPath(trialID))
	if err != nil {
		return fmt.Errorf("sheet request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("sheet %s: unexpected status %s", b.SheetID(trialID), resp.Status())
	}
	return nil
}

// Close is a no-op.
func (b *Backend) Close() error { return nil }

var _ secondary.RosterBackend = (*Backend)(nil)
