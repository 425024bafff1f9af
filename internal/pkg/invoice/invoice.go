// Package invoice renders payment receipts for settled appointments.
package invoice

import (
	"bytes"
	"fmt"
	"time"

	"malita-clinic/internal/adapters/persistence/models"

	"github.com/jung-kurt/gofpdf"
)

// Receipt renders a PDF receipt for a paid appointment
func Receipt(appt *models.Appointment, receiptNo, currency string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 12, "Malita-Doc Clinic")
	pdf.Ln(14)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 8, "Payment Receipt")
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 10)
	rows := [][2]string{
		{"Receipt No", receiptNo},
		{"Issued", time.Now().Format("2006-01-02 15:04")},
		{"Patient", appt.Patient.Name},
		{"Doctor", appt.Doctor.Name},
		{"Speciality", appt.Doctor.Speciality},
		{"Appointment Date", appt.SlotDate},
		{"Appointment Time", appt.SlotTime},
		{"Amount Paid", fmt.Sprintf("%.2f %s", appt.Amount, currency)},
	}
	for _, row := range rows {
		pdf.CellFormat(50, 8, row[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(120, 8, row[1], "1", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "I", 9)
	pdf.Cell(0, 8, "Thank you for choosing Malita-Doc.")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
