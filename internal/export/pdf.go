package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"nonprofit-backend/internal/model"
)

const timeLayout = "2006-01-02 15:04"

// AgendaPDF 미팅 안건을 PDF로 렌더링
func AgendaPDF(meeting *model.Meeting, items []model.AgendaItem) ([]byte, error) {
	pdf := newDoc()

	writeHeader(pdf, meeting, "Agenda")

	pdf.SetFont("Helvetica", "", 11)
	for i, item := range items {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 7, fmt.Sprintf("%d. %s", i+1, item.Title), "", 1, "L", false, 0, "")

		pdf.SetFont("Helvetica", "", 10)
		meta := item.ItemType
		if item.Presenter != nil && *item.Presenter != "" {
			meta += "  ·  " + *item.Presenter
		}
		if item.TimeAllocated != nil {
			meta += fmt.Sprintf("  ·  %d min", *item.TimeAllocated)
		}
		pdf.CellFormat(0, 5, meta, "", 1, "L", false, 0, "")

		if item.Description != nil && *item.Description != "" {
			pdf.MultiCell(0, 5, *item.Description, "", "L", false)
		}
		pdf.Ln(3)
	}

	return render(pdf)
}

// MinutesPDF 승인 여부와 함께 회의록을 PDF로 렌더링
func MinutesPDF(meeting *model.Meeting, minutes *model.Minutes) ([]byte, error) {
	pdf := newDoc()

	writeHeader(pdf, meeting, "Minutes")

	pdf.SetFont("Helvetica", "I", 10)
	status := "Draft"
	if minutes.Status == model.MinutesStatusApproved.String() && minutes.ApprovedAt != nil {
		status = "Approved " + minutes.ApprovedAt.Format(timeLayout)
	}
	pdf.CellFormat(0, 6, status, "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 11)
	for _, para := range strings.Split(minutes.Content, "\n") {
		if strings.TrimSpace(para) == "" {
			pdf.Ln(3)
			continue
		}
		pdf.MultiCell(0, 6, para, "", "L", false)
	}

	return render(pdf)
}

// ObjectKey 내보낸 파일의 S3 키 생성
func ObjectKey(orgID, meetingID int64, kind string) string {
	return fmt.Sprintf("orgs/%d/exports/meeting-%d-%s-%d.pdf", orgID, meetingID, kind, time.Now().Unix())
}

func newDoc() *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(18, 18, 18)
	pdf.AddPage()
	return pdf
}

func writeHeader(pdf *fpdf.Fpdf, meeting *model.Meeting, kind string) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, meeting.Title, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	line := fmt.Sprintf("%s  ·  %s  ·  %s", kind, meeting.Type, meeting.ScheduledAt.Format(timeLayout))
	if meeting.Location != nil && *meeting.Location != "" {
		line += "  ·  " + *meeting.Location
	}
	pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
	pdf.Ln(4)
}

func render(pdf *fpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
