package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pediforte/registration-api/internal/dto"
	"github.com/pediforte/registration-api/internal/models"
	appErrors "github.com/pediforte/registration-api/pkg/errors"
	"github.com/pediforte/registration-api/pkg/export"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

// studentExportHeaders is the fixed column order of student exports.
var studentExportHeaders = []string{
	"ID", "Full Name", "Surname", "Given Name", "Other Names",
	"Email", "Phone", "Address", "DOB", "Gender",
	"Course", "Registration Date", "Resumption Date",
	"Course Price", "Amount Paid", "Payment Method", "Receipt No",
	"Created At", "Terms Agreed", "Terms Agreed At",
}

type exportStudentLister interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
	ContentType() string
}

// ExportService renders student listings as downloadable files.
type ExportService struct {
	students exportStudentLister
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(students exportStudentLister, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{students: students, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// Export renders students matching query.Type, one row per student in id order.
// Type defaults to all and format to csv.
func (s *ExportService) Export(ctx context.Context, query dto.ExportQuery) (*dto.ExportFile, error) {
	exportType := strings.ToLower(strings.TrimSpace(query.Type))
	if exportType == "" {
		exportType = models.StudentStatusAll
	}
	switch exportType {
	case models.StudentStatusAll, models.StudentStatusRegistered, models.StudentStatusPending:
	default:
		return nil, appErrors.Clone(appErrors.ErrInvalidQueryParameter, "type must be one of all, registered, pending")
	}

	format := strings.ToLower(strings.TrimSpace(query.Format))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrInvalidQueryParameter, "format must be one of csv, pdf")
	}

	students, _, err := s.students.List(ctx, models.StudentFilter{Status: exportType})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students for export")
	}
	dataset := studentDataset(students)

	var (
		data        []byte
		contentType string
	)
	switch format {
	case ExportFormatPDF:
		data, err = s.pdf.Render(dataset, fmt.Sprintf("Students (%s)", exportType))
		contentType = s.pdf.ContentType()
	default:
		data, err = s.csv.Render(dataset)
		contentType = s.csv.ContentType()
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	filename := fmt.Sprintf("students_export_%s_%s.%s", exportType, s.now().Format("20060102_150405"), format)
	s.logger.Info("students exported", zap.String("type", exportType), zap.String("format", format), zap.Int("rows", len(students)))
	return &dto.ExportFile{Filename: filename, ContentType: contentType, Data: data, Rows: len(students)}, nil
}

// studentDataset flattens students into export rows. Free-text cells that a
// spreadsheet would evaluate as a formula are prefixed with a quote.
func studentDataset(students []models.Student) export.Dataset {
	rows := make([]map[string]string, 0, len(students))
	for _, st := range students {
		row := map[string]string{
			"ID":              strconv.FormatInt(st.ID, 10),
			"Full Name":       st.FullName,
			"Surname":         st.Surname,
			"Given Name":      st.GivenName,
			"Other Names":     deref(st.OtherNames),
			"Email":           st.EmailAddress,
			"Phone":           deref(st.PhoneNumber),
			"Address":         deref(st.HomeAddress),
			"DOB":             formatDate(st.DOB),
			"Gender":          deref(st.Gender),
			"Created At":      st.CreatedAt.UTC().Format(time.RFC3339),
			"Terms Agreed":    "No",
			"Terms Agreed At": "",
		}
		if st.TermsAgreed {
			row["Terms Agreed"] = "Yes"
		}
		if st.TermsAgreedAt != nil {
			row["Terms Agreed At"] = st.TermsAgreedAt.UTC().Format(time.RFC3339)
		}
		if course := st.CourseInfo; course != nil {
			row["Course"] = course.PreferredCourse
			row["Registration Date"] = formatDate(course.RegistrationDate)
			row["Resumption Date"] = formatDate(course.ResumptionDate)
		}
		if payment := st.PaymentInfo; payment != nil {
			row["Course Price"] = formatMoney(payment.CoursePrice)
			row["Amount Paid"] = formatMoney(payment.AmountPaid)
			row["Payment Method"] = deref(payment.PaymentMethod)
			row["Receipt No"] = deref(payment.ReceiptNo)
		}
		for _, column := range freeTextColumns {
			row[column] = neutralizeFormula(row[column])
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: studentExportHeaders, Rows: rows}
}

// freeTextColumns hold values typed in by registrants or admins.
var freeTextColumns = []string{
	"Full Name", "Surname", "Given Name", "Other Names", "Email", "Phone",
	"Address", "Gender", "Course", "Payment Method", "Receipt No",
}

func neutralizeFormula(value string) string {
	if value == "" {
		return value
	}
	switch value[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + value
	}
	return value
}

func formatMoney(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64)
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func formatDate(date *models.Date) string {
	if date == nil {
		return ""
	}
	return date.String()
}
