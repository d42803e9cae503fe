package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	"github.com/jinzhu/gorm/dialects/postgres"
	"github.com/lithammer/shortuuid/v3"
	"github.com/seatrek/toursapi/internal"
	"github.com/seatrek/toursapi/types"
)

// WebhookID is the constant id from PayPal for this webhook
var WebhookID = os.Getenv("WEBHOOK_ID")

func addCheckoutRoutes(router *gin.RouterGroup, db *gorm.DB, pp *internal.Client) {
	router.POST("/checkout/create-order", CreatePaypalOrder(db, pp))
	router.POST("/checkout/capture-order", CapturePaypalOrder(db, pp))
	router.POST("/checkout/resend", ResendConfirmation(db))
	router.POST("/checkout/webhook", HandlePaypalWebhook(db, pp))
	router.GET("/checkout/voucher/:orderid", GetVoucher(db))
	router.GET("/checkout/orders", checkJWT(), ListOrders(db))
}

type contactInfoReq struct {
	FullName *string `json:"fullName"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
}

type createOrderReq struct {
	TourID       *string         `json:"tourId"`
	ScheduleID   *string         `json:"scheduleId"`
	Participants *int            `json:"participants"`
	TotalPrice   *float64        `json:"totalPrice"`
	ContactInfo  *contactInfoReq `json:"contactInfo"`
}

// missingFields enumerates every absent or empty required field so clients
// get the complete list in one round trip.
func (r *createOrderReq) missingFields() []string {
	var missing []string
	if r.TourID == nil || *r.TourID == "" {
		missing = append(missing, "tourId")
	}
	if r.ScheduleID == nil || *r.ScheduleID == "" {
		missing = append(missing, "scheduleId")
	}
	if r.Participants == nil {
		missing = append(missing, "participants")
	}
	if r.TotalPrice == nil {
		missing = append(missing, "totalPrice")
	}
	if r.ContactInfo == nil {
		missing = append(missing, "contactInfo.fullName", "contactInfo.email", "contactInfo.phone")
	} else {
		if r.ContactInfo.FullName == nil || *r.ContactInfo.FullName == "" {
			missing = append(missing, "contactInfo.fullName")
		}
		if r.ContactInfo.Email == nil || *r.ContactInfo.Email == "" {
			missing = append(missing, "contactInfo.email")
		}
		if r.ContactInfo.Phone == nil || *r.ContactInfo.Phone == "" {
			missing = append(missing, "contactInfo.phone")
		}
	}
	return missing
}

// CreatePaypalOrder turns a booking request into a provider order plus a
// durable local CheckoutOrder row, replying with the approval link the
// client redirects to.
func CreatePaypalOrder(db *gorm.DB, pp *internal.Client) gin.HandlerFunc {
	publicURL := os.Getenv("PUBLIC_URL")
	brand := os.Getenv("BRAND_NAME")

	return func(c *gin.Context) {
		var req createOrderReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if missing := req.missingFields(); len(missing) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields", "missing": missing})
			return
		}

		var details []string
		if *req.Participants <= 0 {
			details = append(details, "participants must be a positive integer")
		}
		if *req.TotalPrice < 0 {
			details = append(details, "totalPrice must not be negative")
		}
		if len(details) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fields", "details": details})
			return
		}

		var tour types.Tour
		if db.First(&tour, "id = ? AND deleted = false", *req.TourID).RecordNotFound() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reference", "missing": "tourId"})
			return
		}

		var sched types.Schedule
		if db.First(&sched, "id = ? AND tour_id = ?", *req.ScheduleID, *req.TourID).RecordNotFound() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reference", "missing": "scheduleId"})
			return
		}

		if !pp.Configured() {
			log.Println("paypal credentials are not configured")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "payment provider not configured"})
			return
		}

		contact := types.ContactInfo{
			FullName: *req.ContactInfo.FullName,
			Email:    *req.ContactInfo.Email,
			Phone:    *req.ContactInfo.Phone,
		}

		// custom_id carries everything reconciliation needs if the local
		// row is ever lost.
		custom, _ := json.Marshal(gin.H{
			"tourId":       *req.TourID,
			"scheduleId":   *req.ScheduleID,
			"participants": *req.Participants,
			"contactInfo":  contact,
		})

		order := &types.OrderRequest{
			Intent: "CAPTURE",
			PurchaseUnits: []types.PurchaseUnit{{
				ReferenceID: fmt.Sprintf("tour_%s_%s", *req.TourID, *req.ScheduleID),
				Amount: types.Amount{
					CurrencyCode: "USD",
					Value:        strconv.FormatFloat(*req.TotalPrice, 'f', 2, 64),
				},
				Description: fmt.Sprintf("%s, %d participant(s)", tour.Name, *req.Participants),
				CustomID:    string(custom),
			}},
			ApplicationContext: types.ApplicationContext{
				BrandName: brand,
				ReturnURL: publicURL + "/checkout/return",
				CancelURL: publicURL + "/checkout/cancel",
			},
		}

		// A retried request reuses the client's Idempotency-Key so the
		// provider dedupes instead of creating a second order.
		requestID := c.GetHeader("Idempotency-Key")
		if requestID == "" {
			requestID = shortuuid.New()
		}

		created, err := pp.CreateOrder(order, requestID)
		if err != nil {
			log.Println("paypal order creation failed:", err)
			if apiErr, ok := err.(*internal.APIError); ok && gin.Mode() != gin.ReleaseMode {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "order creation failed", "provider": apiErr.ProviderError()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "order creation failed"})
			return
		}

		approval := created.ApproveLink()
		if approval == "" {
			log.Println("paypal order", created.ID, "returned no approve link")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "order creation failed"})
			return
		}

		row := types.CheckoutOrder{
			ID:           created.ID,
			Status:       types.OrderCreated,
			TourID:       *req.TourID,
			ScheduleID:   *req.ScheduleID,
			Participants: uint(*req.Participants),
			Amount:       *req.TotalPrice,
			Contact:      postgres.Jsonb{RawMessage: mustMarshal(contact)},
		}
		if err := db.Create(&row).Error; err != nil {
			// The provider now holds an order we have no record of. There
			// is no compensating action; reconciliation relies on the
			// custom_id payload above.
			log.Println("ORPHANED PROVIDER ORDER:", created.ID, "local persist failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record order"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"orderID": created.ID, "approvalUrl": approval})
	}
}

func mustMarshal(v interface{}) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}

// CapturePaypalOrder captures an approved provider order, records the
// outcome and sends the booking confirmation email.
func CapturePaypalOrder(db *gorm.DB, pp *internal.Client) gin.HandlerFunc {
	apiKey := os.Getenv("MAILGUN_API_KEY")

	type captureReq struct {
		OrderID string `json:"orderId"`
	}

	return func(c *gin.Context) {
		var r captureReq
		if err := c.ShouldBindJSON(&r); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var order types.CheckoutOrder
		if db.First(&order, "id = ?", r.OrderID).RecordNotFound() {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown order"})
			return
		}

		// a replayed capture of a final order is answered without touching
		// the provider or the row
		if order.Status == types.OrderCaptured {
			c.JSON(http.StatusOK, gin.H{"orderID": order.ID, "status": order.Status})
			return
		}

		resp, err := pp.CaptureOrder(r.OrderID)
		if err != nil {
			c.JSON(http.StatusFailedDependency, gin.H{"error": err.Error()})
			return
		}
		defer resp.Body.Close()

		dec := json.NewDecoder(resp.Body)
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			var pe types.ProviderError
			if err := dec.Decode(&pe); err != nil {
				c.JSON(http.StatusFailedDependency, gin.H{"error": err.Error()})
				return
			}
			advanceOrder(db, order.ID, types.OrderFailed)
			c.JSON(resp.StatusCode, pe)
			return
		}

		var captured types.ProviderOrder
		if err := dec.Decode(&captured); err != nil {
			c.JSON(http.StatusFailedDependency, gin.H{"error": err.Error()})
			return
		}

		db.Model(&order).Updates(map[string]interface{}{
			"status":       types.OrderCaptured,
			"voucher_code": shortuuid.New(),
		})

		var tour types.Tour
		db.Unscoped().First(&tour, "id = ?", order.TourID)

		if err := sendBookingConfirmation(apiKey, c.Request.Host, &order, &tour); err != nil {
			log.Println("confirmation mail failed for order", order.ID, ":", err)
		}

		c.JSON(http.StatusOK, captured)
	}
}

// ResendConfirmation re-sends the booking confirmation for a captured
// order to the supplied address.
func ResendConfirmation(db *gorm.DB) gin.HandlerFunc {
	apiKey := os.Getenv("MAILGUN_API_KEY")

	type resendReq struct {
		OrderID string `json:"orderId"`
		Email   string `json:"email"`
	}

	return func(c *gin.Context) {
		var r resendReq
		if err := c.ShouldBindJSON(&r); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var order types.CheckoutOrder
		if db.First(&order, "id = ? AND status = ?", r.OrderID, types.OrderCaptured).RecordNotFound() {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown order"})
			return
		}

		var tour types.Tour
		db.Unscoped().First(&tour, "id = ?", order.TourID)

		if r.Email != "" {
			contact := order.ContactInfo()
			contact.Email = r.Email
			order.Contact = postgres.Jsonb{RawMessage: mustMarshal(contact)}
		}

		if err := sendBookingConfirmation(apiKey, c.Request.Host, &order, &tour); err != nil {
			c.JSON(http.StatusFailedDependency, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusOK)
	}
}

// HandlePaypalWebhook verifies a provider webhook delivery, logs it, and
// folds capture/approval outcomes back into the local order rows.
func HandlePaypalWebhook(db *gorm.DB, pp *internal.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !pp.VerifyWebHookSig(c.Request, WebhookID) {
			log.Println("webhook signature didn't verify")
			c.Status(http.StatusBadRequest)
			return
		}

		defer c.Request.Body.Close()
		var we types.WebhookEvent
		if err := json.NewDecoder(c.Request.Body).Decode(&we); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}

		// the provider sets the event id, so Save would only ever issue an
		// UPDATE; replayed deliveries keep the first logged copy
		db.FirstOrCreate(&we)

		var resource struct {
			ID                string `json:"id"`
			SupplementaryData struct {
				RelatedIDs struct {
					OrderID string `json:"order_id"`
				} `json:"related_ids"`
			} `json:"supplementary_data"`
		}
		var event struct {
			Resource json.RawMessage `json:"resource"`
		}
		json.Unmarshal(we.RawMessage.RawMessage, &event)
		json.Unmarshal(event.Resource, &resource)

		switch we.EventType {
		case "CHECKOUT.ORDER.APPROVED":
			advanceOrder(db, resource.ID, types.OrderApproved)
		case "PAYMENT.CAPTURE.COMPLETED":
			advanceOrder(db, resource.SupplementaryData.RelatedIDs.OrderID, types.OrderCaptured)
		case "PAYMENT.CAPTURE.DENIED":
			advanceOrder(db, resource.SupplementaryData.RelatedIDs.OrderID, types.OrderFailed)
		}

		c.Status(http.StatusOK)
	}
}

// advanceOrder moves an order's status forward. A CAPTURED order is final:
// late or replayed webhook deliveries must not regress it.
func advanceOrder(db *gorm.DB, id, status string) {
	if id == "" {
		return
	}
	db.Model(&types.CheckoutOrder{}).
		Where("id = ? AND status != ?", id, types.OrderCaptured).
		Updates(map[string]interface{}{"status": status})
}

// ListOrders is the admin report of checkout orders, newest first.
func ListOrders(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var orders []types.CheckoutOrder
		q := db.Order("created_at desc")
		if tid := c.Query("tourId"); tid != "" {
			q = q.Where("tour_id = ?", tid)
		}
		if from := c.Query("from"); from != "" {
			if t, err := time.Parse("2006-01-02", from); err == nil {
				q = q.Where("created_at >= ?", t)
			}
		}
		if err := q.Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch orders"})
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}
