package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/scheduler"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/export"
)

// ExportFormat is a supported rendering.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

// ExportResult is a rendered timetable ready to be streamed.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

type projector interface {
	Project(ctx context.Context, view scheduler.View) (*dto.ProjectionResponse, bool, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, opts export.PDFOptions) ([]byte, error)
}

// ExportService renders projections as downloadable files: one row per hour
// band, one column per working day.
type ExportService struct {
	projections projector
	csv         csvRenderer
	pdf         pdfRenderer
	logger      *zap.Logger
	now         func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(projections projector, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter(export.WithBOM())
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{projections: projections, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// Export renders the projection of view in format (csv when empty).
func (s *ExportService) Export(ctx context.Context, view scheduler.View, format string) (*ExportResult, error) {
	f := ExportFormat(strings.ToLower(strings.TrimSpace(format)))
	if f == "" {
		f = ExportCSV
	}
	if f != ExportCSV && f != ExportPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	projection, _, err := s.projections.Project(ctx, view)
	if err != nil {
		return nil, err
	}
	dataset := buildTimetableDataset(projection)

	var (
		payload     []byte
		contentType string
	)
	switch f {
	case ExportPDF:
		payload, err = s.pdf.Render(dataset, export.PDFOptions{
			Title:     exportTitle(view),
			Subtitle:  "Generated " + s.now().UTC().Format("2006-01-02 15:04 MST"),
			Landscape: true,
		})
		contentType = "application/pdf"
	default:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv; charset=utf-8"
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable export")
	}

	filename := fmt.Sprintf("timetable_%s_%s.%s", sanitizeFilename(view.CacheKey()), s.now().UTC().Format("20060102_150405"), f)
	s.logger.Info("timetable exported", zap.String("view", view.CacheKey()), zap.String("format", string(f)), zap.Int("bytes", len(payload)))
	return &ExportResult{Filename: filename, ContentType: contentType, Payload: payload}, nil
}

func buildTimetableDataset(p *dto.ProjectionResponse) export.Dataset {
	dataset := export.Dataset{Headers: append([]string{"Time"}, p.Days...)}
	byCell := make(map[string]scheduler.Cell, len(p.Cells))
	for _, cell := range p.Cells {
		byCell[cell.Day+"|"+cell.Time] = cell
	}
	for _, t := range p.Times {
		row := make([]string, 0, len(p.Days)+1)
		row = append(row, t)
		for _, d := range p.Days {
			row = append(row, describeCell(byCell[d+"|"+t]))
		}
		dataset.AddRow(row...)
	}
	return dataset
}

func describeCell(cell scheduler.Cell) string {
	if cell.Course == nil {
		return ""
	}
	courses := cell.Courses
	if len(courses) == 0 {
		courses = []scheduler.CourseSummary{*cell.Course}
	}
	parts := make([]string, 0, len(courses))
	for _, c := range courses {
		var extra []string
		if c.TeacherName != "" {
			extra = append(extra, c.TeacherName)
		} else if c.TeacherID != "" {
			extra = append(extra, c.TeacherID)
		}
		if c.RoomName != "" {
			extra = append(extra, c.RoomName)
		} else if c.RoomID != "" {
			extra = append(extra, c.RoomID)
		}
		label := c.Name
		if label == "" {
			label = c.ID
		}
		if len(extra) > 0 {
			label = fmt.Sprintf("%s (%s)", label, strings.Join(extra, ", "))
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, "; ")
}

func exportTitle(view scheduler.View) string {
	if view.Kind == scheduler.ViewAll {
		return "Timetable"
	}
	return fmt.Sprintf("Timetable - %s %s", view.Kind, view.ID)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
