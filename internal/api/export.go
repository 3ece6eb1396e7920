package api

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"wardbook/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// ExportService renders the monthly booking registry in CSV or Excel form.
type ExportService struct {
	logger *zerolog.Logger
}

func NewExportService(logger *zerolog.Logger) *ExportService {
	return &ExportService{logger: logger}
}

var registryHeaders = []string{
	"MRN", "Patient Name", "Ward", "Procedure", "Urgency", "Consultant",
	"Status", "Outcome", "Unit", "Room", "Requested Date", "Created At", "Created By",
}

func registryRow(b *models.Booking) []string {
	requested := ""
	if b.RequestedDate != nil {
		requested = b.RequestedDate.Format("2006-01-02")
	}
	return []string{
		b.MRN,
		b.PatientName,
		b.PatientWard,
		b.Procedure,
		b.Urgency,
		b.Consultant,
		b.Status,
		b.Outcome,
		b.Unit,
		b.Room,
		requested,
		b.CreatedAt.Format("2006-01-02 15:04"),
		b.CreatedBy.Name,
	}
}

// WriteCSV streams the registry as CSV.
func (s *ExportService) WriteCSV(w io.Writer, bookings []*models.Booking) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(registryHeaders); err != nil {
		return fmt.Errorf("error writing csv header: %w", err)
	}
	for _, b := range bookings {
		if err := writer.Write(registryRow(b)); err != nil {
			return fmt.Errorf("error writing csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteXLSX streams the registry as an Excel workbook.
func (s *ExportService) WriteXLSX(w io.Writer, kind string, year int, month time.Month, bookings []*models.Booking) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := fmt.Sprintf("%s Registry", kind)
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s registry: %s %d", kind, month.String(), year))

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, header := range registryHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, b := range bookings {
		row := i + 3
		for j, value := range registryRow(b) {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			_ = f.SetCellValue(sheetName, cell, value)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "M", 18)

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	lastCell, _ := excelize.CoordinatesToCellName(len(registryHeaders), 1)
	_ = f.MergeCell(sheetName, "A1", lastCell)
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	_ = f.DeleteSheet("Sheet1")

	if err := f.Write(w); err != nil {
		return fmt.Errorf("error writing excel file: %w", err)
	}
	s.logger.Info().Str("kind", kind).Int("year", year).Str("month", month.String()).Int("rows", len(bookings)).Msg("registry export written")
	return nil
}
