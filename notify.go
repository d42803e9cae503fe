package main

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"text/template"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/seatrek/toursapi/types"
)

const confirmationTmpl = `
Thank you for booking with {{ .Brand }}!
<br /><br />
<b>{{ .Tour.Name }}</b> — {{ .Order.Participants }} participant(s), total ${{ printf "%.2f" .Order.Amount }}
<br /><br />
You can download your booking voucher here:
<a href='https://{{ .Host }}/checkout/voucher/{{ .Order.ID }}'>Click Here</a>
<br />`

// sendBookingConfirmation emails the booking contact after a successful
// capture. A failure here never fails the capture itself.
func sendBookingConfirmation(apiKey, host string, order *types.CheckoutOrder, tour *types.Tour) error {
	domain := os.Getenv("MAILGUN_DOMAIN")
	brand := os.Getenv("BRAND_NAME")
	from := os.Getenv("EMAIL_FROM")

	contact := order.ContactInfo()
	log.Println("Send Confirmation Mail:", order.ID, contact.Email)

	t := template.Must(template.New("confirm").Parse(confirmationTmpl))
	var tpl bytes.Buffer
	if err := t.Execute(&tpl, struct {
		Brand string
		Host  string
		Order *types.CheckoutOrder
		Tour  *types.Tour
	}{brand, host, order, tour}); err != nil {
		return err
	}

	mg := mailgun.NewMailgun(domain, apiKey)
	subject := fmt.Sprintf("Booking Confirmed: %s", tour.Name)
	m := mg.NewMessage(fmt.Sprintf("%s <%s>", brand, from), subject, tpl.String(),
		fmt.Sprintf("%s <%s>", contact.FullName, contact.Email))
	m.SetHtml(tpl.String())

	resp, id, err := mg.Send(context.Background(), m)
	log.Println("Send Email:", subject, contact.Email)
	log.Println("Response:", resp, id, err)
	return err
}
