package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/phpdave11/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"

	"github.com/demopark/parking-api/internal/core/domain"
)

const (
	dateTimeLayout = "02/01/2006 15:04"
	qrSize         = 256
)

// PDFRenderer renders parking history reports and entry tickets as PDF.
// Times are printed in loc.
type PDFRenderer struct {
	loc *time.Location
}

func NewPDFRenderer(loc *time.Location) *PDFRenderer {
	if loc == nil {
		loc = time.UTC
	}
	return &PDFRenderer{loc: loc}
}

type column struct {
	title string
	width float64
	align string
}

var historyColumns = []column{
	{"Receipt", 34, "L"},
	{"Plate", 22, "L"},
	{"Spot", 14, "C"},
	{"Entry", 32, "L"},
	{"Exit", 32, "L"},
	{"Fee", 18, "R"},
	{"Discount", 20, "R"},
	{"Due", 18, "R"},
}

// History renders the client's sessions as a table followed by totals.
func (r *PDFRenderer) History(client *domain.Client, sessions []*domain.ParkingSession, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Parking history", true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "Parking history")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 7, tr(fmt.Sprintf("Client: %s", client.Name)))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("CPF: %s", client.TaxID))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Generated at: %s", generatedAt.In(r.loc).Format(dateTimeLayout)))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, c := range historyColumns {
		pdf.CellFormat(c.width, 7, c.title, "1", 0, c.align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	totalFee, totalDiscount := decimal.Zero, decimal.Zero
	for _, s := range sessions {
		exit, fee, discount, due := "open", "-", "-", "-"
		if s.ExitTime.Valid {
			exit = s.ExitTime.Time.In(r.loc).Format(dateTimeLayout)
			fee = s.Fee.Decimal.StringFixed(2)
			discount = s.Discount.Decimal.StringFixed(2)
			due = s.AmountDue().StringFixed(2)
			totalFee = totalFee.Add(s.Fee.Decimal)
			totalDiscount = totalDiscount.Add(s.Discount.Decimal)
		}
		spot := ""
		if s.Spot != nil {
			spot = s.Spot.Code
		}
		cells := []string{
			s.Receipt,
			s.Plate,
			spot,
			s.EntryTime.In(r.loc).Format(dateTimeLayout),
			exit,
			fee,
			discount,
			due,
		}
		for i, c := range historyColumns {
			pdf.CellFormat(c.width, 6, tr(cells[i]), "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Sessions: %d", len(sessions)))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Total fees: %s", totalFee.StringFixed(2)))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Total discounts: %s", totalDiscount.StringFixed(2)))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Total paid: %s", totalFee.Sub(totalDiscount).StringFixed(2)))

	return output(pdf)
}

// Ticket renders the entry ticket of a session with a QR code of its receipt.
func (r *PDFRenderer) Ticket(session *domain.ParkingSession) ([]byte, error) {
	qrPNG, err := qrcode.Encode(ticketPayload(session), qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A5", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Parking ticket "+session.Receipt, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "Parking ticket")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	lines := []string{
		"Receipt: " + session.Receipt,
		"Plate: " + session.Plate,
		fmt.Sprintf("Vehicle: %s %s (%s)", session.Make, session.Model, session.Color),
		"Entry: " + session.EntryTime.In(r.loc).Format(dateTimeLayout),
	}
	if session.Spot != nil {
		lines = append(lines, "Spot: "+session.Spot.Code)
	}
	if session.Client != nil {
		lines = append(lines, "Client: "+session.Client.Name)
	}
	for _, l := range lines {
		pdf.Cell(0, 8, tr(l))
		pdf.Ln(8)
	}

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 44, pdf.GetY()+6, 60, 60, false, imageOpts, 0, "")

	return output(pdf)
}

// ticketPayload is the text encoded in the ticket QR code.
func ticketPayload(s *domain.ParkingSession) string {
	spot := ""
	if s.Spot != nil {
		spot = s.Spot.Code
	}
	return fmt.Sprintf("%s|%s|%s|%s", s.Receipt, s.Plate, spot, s.EntryTime.UTC().Format(time.RFC3339))
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
