package application

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gamelink/pkg/sheets"
)

var ErrSheetsNotConfigured = errors.New("google sheets is not configured")

// SheetsService writes tabular data into a single roster spreadsheet,
// creating it on first use when no spreadsheet id is configured.
type SheetsService interface {
	Write(ctx context.Context, data [][]interface{}) (string, error)
}

type SheetsServiceImpl struct {
	client     sheets.Client
	ownerEmail string

	mu            sync.Mutex
	spreadsheetID string
}

func NewSheetsServiceImpl(client sheets.Client, spreadsheetID, ownerEmail string) *SheetsServiceImpl {
	return &SheetsServiceImpl{
		client:        client,
		ownerEmail:    ownerEmail,
		spreadsheetID: spreadsheetID,
	}
}

func (s *SheetsServiceImpl) Write(ctx context.Context, data [][]interface{}) (string, error) {
	if s.client == nil {
		return "", ErrSheetsNotConfigured
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureSpreadsheetLocked(ctx); err != nil {
		return "", err
	}

	if err := s.client.ClearRange(ctx, s.spreadsheetID, rosterClearRange); err != nil {
		return "", fmt.Errorf("failed to clear roster sheet: %w", err)
	}
	if err := s.client.UpdateValues(ctx, s.spreadsheetID, rosterStartCell, data); err != nil {
		return "", fmt.Errorf("failed to write roster sheet: %w", err)
	}

	return spreadsheetURL(s.spreadsheetID), nil
}

func (s *SheetsServiceImpl) ensureSpreadsheetLocked(ctx context.Context) error {
	if s.spreadsheetID != "" {
		return nil
	}

	id, _, err := s.client.CreateSpreadsheet(ctx, rosterSheetTitle)
	if err != nil {
		return fmt.Errorf("failed to create roster spreadsheet: %w", err)
	}

	if s.ownerEmail != "" {
		if err := s.client.Share(ctx, id, s.ownerEmail, "writer"); err != nil {
			return fmt.Errorf("failed to share roster spreadsheet: %w", err)
		}
	}

	s.spreadsheetID = id
	return nil
}

func spreadsheetURL(id string) string {
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s", id)
}
