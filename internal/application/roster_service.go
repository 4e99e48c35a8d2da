package application

import (
	"context"
	"fmt"

	"gamelink/internal/models"
	"gamelink/internal/repository"

	"github.com/xuri/excelize/v2"
)

// RosterService exports the linked identity table for operators.
type RosterService interface {
	ExportExcel(ctx context.Context) ([]byte, error)
	SyncToSheet(ctx context.Context) (string, error)
}

type RosterServiceImpl struct {
	linkedRepo repository.LinkedIdentity
	sheets     SheetsService
	logger     Logger
}

func NewRosterServiceImpl(linkedRepo repository.LinkedIdentity, sheets SheetsService, logger Logger) *RosterServiceImpl {
	return &RosterServiceImpl{
		linkedRepo: linkedRepo,
		sheets:     sheets,
		logger:     logger,
	}
}

var rosterHeaders = []string{"Entity ID", "Username", "Discord ID", "Linked At (UTC)"}

func (s *RosterServiceImpl) ExportExcel(ctx context.Context) ([]byte, error) {
	links, err := s.linkedRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list linked identities: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(excelSheetName); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	for i, h := range rosterHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(excelSheetName, cell, h)
	}

	for i, link := range links {
		row := i + 2
		f.SetCellValue(excelSheetName, fmt.Sprintf("A%d", row), link.EntityID)
		f.SetCellValue(excelSheetName, fmt.Sprintf("B%d", row), link.Username)
		f.SetCellValue(excelSheetName, fmt.Sprintf("C%d", row), link.RequesterID)
		f.SetCellValue(excelSheetName, fmt.Sprintf("D%d", row), link.LinkedAt.UTC().Format(excelTimeLayout))
	}

	f.SetColWidth(excelSheetName, "A", "A", 22)
	f.SetColWidth(excelSheetName, "B", "B", 24)
	f.SetColWidth(excelSheetName, "C", "C", 22)
	f.SetColWidth(excelSheetName, "D", "D", 20)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// SyncToSheet overwrites the roster spreadsheet and returns its URL.
func (s *RosterServiceImpl) SyncToSheet(ctx context.Context) (string, error) {
	links, err := s.linkedRepo.List(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list linked identities: %w", err)
	}

	url, err := s.sheets.Write(ctx, rosterRows(links))
	if err != nil {
		return "", err
	}

	s.logger.Info("Synced %d linked identities to %s", len(links), url)
	return url, nil
}

func rosterRows(links []models.LinkedIdentity) [][]interface{} {
	rows := make([][]interface{}, 0, len(links)+1)

	header := make([]interface{}, len(rosterHeaders))
	for i, h := range rosterHeaders {
		header[i] = h
	}
	rows = append(rows, header)

	for _, link := range links {
		rows = append(rows, []interface{}{
			link.EntityID,
			link.Username,
			link.RequesterID,
			link.LinkedAt.UTC().Format(excelTimeLayout),
		})
	}
	return rows
}
