package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// CertificateDocument carries the fields printed on a completion certificate.
type CertificateDocument struct {
	CertificateNumber string
	StudentName       string
	CourseTitle       string
	InstructorName    string
	IssuedAt          string
}

// CertificatePDF renders completion certificates as landscape A4 documents.
type CertificatePDF struct{}

// NewCertificatePDF constructs a certificate renderer.
func NewCertificatePDF() *CertificatePDF {
	return &CertificatePDF{}
}

// Render produces the PDF bytes for a certificate.
func (e *CertificatePDF) Render(doc CertificateDocument) ([]byte, error) {
	if doc.CertificateNumber == "" {
		return nil, fmt.Errorf("pdf requires a certificate number")
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(20, 25, 20)
	pdf.AddPage()

	pdf.SetLineWidth(1.2)
	pdf.Rect(12, 12, 273, 186, "D")

	pdf.SetFont("Times", "B", 30)
	pdf.CellFormat(0, 22, "CERTIFICATE OF COMPLETION", "", 1, "C", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Times", "", 14)
	pdf.CellFormat(0, 8, "This certifies that", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Times", "B", 22)
	pdf.CellFormat(0, 12, doc.StudentName, "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Times", "", 14)
	pdf.CellFormat(0, 8, "has successfully completed", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Times", "BI", 18)
	pdf.CellFormat(0, 10, doc.CourseTitle, "", 1, "C", false, 0, "")
	pdf.Ln(10)

	pdf.SetFont("Times", "", 12)
	pdf.CellFormat(0, 7, fmt.Sprintf("Instructor: %s", doc.InstructorName), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Certificate #: %s", doc.CertificateNumber), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Date: %s", doc.IssuedAt), "", 1, "C", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render certificate pdf: %w", err)
	}
	return buf.Bytes(), nil
}
