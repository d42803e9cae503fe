package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	"github.com/jung-kurt/gofpdf"
	"github.com/lithammer/shortuuid/v3"
	"github.com/seatrek/toursapi/types"
	"github.com/skip2/go-qrcode"
)

const voucherHeight = 65
const left = 5

func drawVoucher(f *gofpdf.Fpdf, brand, qrname string, order *types.CheckoutOrder, tour *types.Tour, sched *types.Schedule) {
	var opt gofpdf.ImageOptions
	opt.ImageType = "png"

	_, _, mtop, _ := f.GetMargins()
	starty := f.GetY() - mtop + 10

	contact := order.ContactInfo()

	f.SetFillColor(0, 68, 102)
	f.SetDrawColor(0, 68, 102)
	f.Rect(left, starty, 205, voucherHeight, "D")
	f.SetX(left)
	f.SetFont("Courier", "B", 18)
	f.SetTextColor(255, 255, 255)
	f.CellFormat(205, 7, brand, "B", 1, "C", true, 0, "")

	f.SetTextColor(0, 0, 0)
	f.SetFont("Courier", "B", 16)
	f.SetX(left)
	f.Cell(40, 7, "Booking Voucher")

	f.Ln(-1)
	f.SetFont("Courier", "B", 14)
	f.SetX(left)
	f.Cell(40, 7, "Tour:")
	f.SetFont("Courier", "", 14)
	f.Cell(100, 7, tour.Name)

	f.Ln(-1)
	f.SetX(left)
	f.SetFont("Courier", "B", 14)
	f.Cell(40, 7, "Dates:")
	f.SetFont("Courier", "", 14)
	f.Cell(100, 7, fmt.Sprintf("%s - %s", sched.StartDate.Format("Jan 2, 2006"), sched.EndDate.Format("Jan 2, 2006")))

	f.Ln(-1)
	f.SetX(left)
	f.SetFont("Courier", "B", 14)
	f.Cell(40, 7, "Booked By:")
	f.SetFont("Courier", "", 14)
	f.Cell(50, 7, fmt.Sprintf("%s (%d participant(s))", contact.FullName, order.Participants))

	f.Ln(20)
	f.SetFont("Courier", "I", 8)
	f.Cell(40, 8, qrname)

	f.ImageOptions(qrname, 205-40, starty+18, 40, 0, false, opt, 0, "")
}

func generateVoucherPdf(brand, qrname string, order *types.CheckoutOrder, tour *types.Tour, sched *types.Schedule, w io.Writer) error {
	var opt gofpdf.ImageOptions
	opt.ImageType = "png"

	pdf := gofpdf.New("P", "mm", "Letter", ".")
	pdf.SetTitle("Booking Voucher", false)
	pdf.AddPage()

	data, err := qrcode.Encode(qrname, qrcode.High, 50)
	if err != nil {
		return err
	}
	pdf.RegisterImageOptionsReader(qrname, opt, bytes.NewReader(data))
	drawVoucher(pdf, brand, qrname, order, tour, sched)

	return pdf.Output(w)
}

// GetVoucher streams the booking voucher PDF for a captured order.
func GetVoucher(db *gorm.DB) gin.HandlerFunc {
	brand := os.Getenv("BRAND_NAME")

	return func(c *gin.Context) {
		var order types.CheckoutOrder
		if db.First(&order, "id = ?", c.Param("orderid")).RecordNotFound() {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown order"})
			return
		}
		if order.Status != types.OrderCaptured {
			c.JSON(http.StatusConflict, gin.H{"error": "order has not been captured"})
			return
		}

		if order.VoucherCode == "" {
			order.VoucherCode = shortuuid.New()
			db.Model(&order).Updates(map[string]interface{}{"voucher_code": order.VoucherCode})
		}

		var tour types.Tour
		db.Unscoped().First(&tour, "id = ?", order.TourID)
		var sched types.Schedule
		db.First(&sched, "id = ?", order.ScheduleID)

		qrname := fmt.Sprintf("%s-%s", order.ID, order.VoucherCode)

		c.Status(http.StatusOK)
		c.Header("Content-Type", "application/pdf")
		c.Header("Content-Disposition", `attachment; filename="voucher_`+order.ID+`.pdf"`)
		if err := generateVoucherPdf(brand, qrname, &order, &tour, &sched, c.Writer); err != nil {
			persistenceError(c, "failed to generate voucher", err)
		}
	}
}
