package types

import (
	"encoding/json"
	"time"

	"github.com/jinzhu/gorm/dialects/postgres"
)

// Checkout order statuses. The provider's order id is authoritative; these
// track what the provider has reported back to us.
const (
	OrderCreated  = "CREATED"
	OrderApproved = "APPROVED"
	OrderCaptured = "CAPTURED"
	OrderFailed   = "FAILED"
)

// ContactInfo is the booking contact. It is persisted as an opaque blob:
// nothing ever queries by the individual fields.
type ContactInfo struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// CheckoutOrder pairs a local booking attempt with the payment provider's
// order id. Rows are created once per checkout attempt and never deleted.
type CheckoutOrder struct {
	ID           string         `json:"orderId" gorm:"primary_key"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"-"`
	Status       string         `json:"status"`
	TourID       string         `json:"tourId" gorm:"type:varchar(36);index"`
	ScheduleID   string         `json:"scheduleId" gorm:"type:varchar(36)"`
	Participants uint           `json:"participants"`
	Amount       float64        `json:"amount"`
	Contact      postgres.Jsonb `json:"contact"`
	VoucherCode  string         `json:"-"`
}

// ContactInfo decodes the serialized contact blob.
func (o *CheckoutOrder) ContactInfo() (ci ContactInfo) {
	json.Unmarshal(o.Contact.RawMessage, &ci)
	return
}

type Link struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method,omitempty"`
}

type Amount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type PurchaseUnit struct {
	ReferenceID string `json:"reference_id"`
	Amount      Amount `json:"amount"`
	Description string `json:"description,omitempty"`
	CustomID    string `json:"custom_id,omitempty"`
}

type ApplicationContext struct {
	BrandName string `json:"brand_name,omitempty"`
	ReturnURL string `json:"return_url"`
	CancelURL string `json:"cancel_url"`
}

// OrderRequest is the body sent to the provider's order-creation endpoint.
type OrderRequest struct {
	Intent             string             `json:"intent"`
	PurchaseUnits      []PurchaseUnit     `json:"purchase_units"`
	ApplicationContext ApplicationContext `json:"application_context"`
}

// ProviderOrder is the provider's representation of an order, as returned
// by the order-creation, order-detail and capture endpoints.
type ProviderOrder struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Links  []Link `json:"links"`
}

// ApproveLink returns the hyperlink with relation "approve", or "" if the
// provider's response lacks one.
func (p *ProviderOrder) ApproveLink() string {
	for _, l := range p.Links {
		if l.Rel == "approve" {
			return l.Href
		}
	}
	return ""
}

// ProviderError is the provider's error body, surfaced for diagnostics.
type ProviderError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	DebugID string `json:"debug_id"`
	Details []struct {
		Issue string `json:"issue"`
		Desc  string `json:"description"`
	} `json:"details"`
}

// WebhookEvent logs each provider webhook delivery verbatim alongside the
// fields we dispatch on.
type WebhookEvent struct {
	ID           string         `json:"id" gorm:"primary_key"`
	CreateTime   time.Time      `json:"create_time"`
	UpdatedAt    time.Time      `json:"-"`
	ResourceType string         `json:"resource_type"`
	EventType    string         `json:"event_type"`
	Summary      string         `json:"summary"`
	RawMessage   postgres.Jsonb `json:"-"`
}

func (WebhookEvent) TableName() string {
	return "webhook_logs"
}

func (w *WebhookEvent) UnmarshalJSON(data []byte) error {
	type Alias WebhookEvent
	if err := json.Unmarshal(data, (*Alias)(w)); err != nil {
		return err
	}
	w.RawMessage = postgres.Jsonb{RawMessage: json.RawMessage(data)}
	return nil
}
