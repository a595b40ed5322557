package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/carlosgs05/proyectoNewton-sub000/internal/models"
	"github.com/xuri/excelize/v2"
)

const (
	scoresSheet  = "Scores"
	answersSheet = "Answers"
)

type ExportService interface {
	// ExportUserReport renders the score and answer reports of one month as XLSX
	ExportUserReport(ctx context.Context, query DetailReportQuery) ([]byte, error)
}

type exportService struct {
	reports ReportService
	logger  *ServiceLogger
}

func NewExportService(reports ReportService, logger *slog.Logger) ExportService {
	return &exportService{
		reports: reports,
		logger:  NewServiceLogger(logger, LogConfig{Service: "reporting", Component: "export"}),
	}
}

func (s *exportService) ExportUserReport(ctx context.Context, query DetailReportQuery) (data []byte, err error) {
	op := s.logger.WithOperation(ctx, "export_user_report", query.UserID)
	defer func() { op.LogResult("report_export", err) }()

	scores, err := s.reports.ScoresOverTime(ctx, ScoreReportQuery{
		UserID: query.UserID,
		Year:   query.Year,
		Month:  query.Month,
	})
	if err != nil {
		return nil, err
	}
	answers, err := s.reports.CourseDetail(ctx, query)
	if err != nil {
		return nil, err
	}

	return buildUserReportWorkbook(scores, answers)
}

func buildUserReportWorkbook(scores []models.ScorePoint, answers []models.AnswerBreakdown) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// NewFile starts with a default sheet; rename it instead of adding one
	if err := f.SetSheetName(f.GetSheetName(0), scoresSheet); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	if err := writeRows(f, scoresSheet, []interface{}{"Date", "Score"}, len(scores), func(i int) []interface{} {
		return []interface{}{scores[i].Date, scores[i].Score}
	}); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(answersSheet); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	if err := writeRows(f, answersSheet, []interface{}{"Date", "Blank", "Incorrect", "Correct"}, len(answers), func(i int) []interface{} {
		a := answers[i]
		return []interface{}{a.Date, a.Blank, a.Incorrect, a.Correct}
	}); err != nil {
		return nil, err
	}

	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, header []interface{}, n int, row func(i int) []interface{}) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	for i := 0; i < n; i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row(i)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}
