package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	"github.com/seatrek/toursapi/internal"
	"github.com/stretchr/testify/assert"
)

func checkoutRouter(db *gorm.DB, pp *internal.Client) *gin.Engine {
	router := gin.New()
	router.POST("/checkout/create-order", CreatePaypalOrder(db, pp))
	router.POST("/checkout/capture-order", CapturePaypalOrder(db, pp))
	router.POST("/checkout/webhook", HandlePaypalWebhook(db, pp))
	router.GET("/checkout/orders", ListOrders(db))
	return router
}

// fakeProvider stands in for the payments API: it hands out tokens and
// records the order-creation call so tests can inspect it.
func fakeProvider(t *testing.T, orderStatus int, orderBody string) (*internal.Client, *http.Request) {
	t.Helper()

	captured := &http.Request{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v1/oauth2/token":
			fmt.Fprint(w, `{"access_token": "test-token", "expires_in": 3600}`)
		case r.URL.Path == "/v1/notifications/verify-webhook-signature":
			fmt.Fprint(w, `{"verification_status": "SUCCESS"}`)
		case r.URL.Path == "/v2/checkout/orders" || strings.HasSuffix(r.URL.Path, "/capture"):
			*captured = *r
			w.WriteHeader(orderStatus)
			fmt.Fprint(w, orderBody)
		default:
			t.Errorf("unexpected provider call: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	return &internal.Client{
		Client:   &http.Client{},
		ClientID: "test-client",
		Secret:   "test-secret",
		APIBase:  srv.URL,
		Token:    &internal.TokenResponse{},
	}, captured
}

func validCreateBody() map[string]interface{} {
	return map[string]interface{}{
		"tourId":       "t1",
		"scheduleId":   "s1",
		"participants": 2,
		"totalPrice":   90.00,
		"contactInfo": map[string]string{
			"fullName": "Ada Mariner",
			"email":    "ada@example.com",
			"phone":    "+1 555 0100",
		},
	}
}

func postJSON(router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", path, bytes.NewReader(data))
	router.ServeHTTP(w, req)
	return w
}

func TestCreateOrderEnumeratesMissingFields(t *testing.T) {
	db, _ := newMockDB(t)
	router := checkoutRouter(db, &internal.Client{})

	w := postJSON(router, "/checkout/create-order", map[string]string{"tourId": "t1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Error   string   `json:"error"`
		Missing []string `json:"missing"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "missing required fields", resp.Error)
	assert.Equal(t, []string{
		"scheduleId",
		"participants",
		"totalPrice",
		"contactInfo.fullName",
		"contactInfo.email",
		"contactInfo.phone",
	}, resp.Missing)
}

func TestCreateOrderRejectsNonPositiveParticipants(t *testing.T) {
	db, _ := newMockDB(t)
	router := checkoutRouter(db, &internal.Client{})

	body := validCreateBody()
	body["participants"] = 0
	w := postJSON(router, "/checkout/create-order", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "participants must be a positive integer")
}

func TestCreateOrderUnknownTour(t *testing.T) {
	db, mock := newMockDB(t)
	router := checkoutRouter(db, &internal.Client{})

	mock.ExpectQuery(`SELECT \* FROM "tours"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	w := postJSON(router, "/checkout/create-order", validCreateBody())

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"missing":"tourId"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderUnknownSchedule(t *testing.T) {
	db, mock := newMockDB(t)
	router := checkoutRouter(db, &internal.Client{})

	mock.ExpectQuery(`SELECT \* FROM "tours"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("t1", "Seal Kayak"))
	mock.ExpectQuery(`SELECT \* FROM "schedules"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	w := postJSON(router, "/checkout/create-order", validCreateBody())

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"missing":"scheduleId"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderSuccess(t *testing.T) {
	db, mock := newMockDB(t)
	pp, providerReq := fakeProvider(t, http.StatusCreated, `{
		"id": "PP-ORDER-1",
		"status": "CREATED",
		"links": [
			{"href": "https://provider.example/self", "rel": "self"},
			{"href": "https://provider.example/approve/PP-ORDER-1", "rel": "approve"}
		]
	}`)
	router := checkoutRouter(db, pp)

	mock.ExpectQuery(`SELECT \* FROM "tours"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("t1", "Seal Kayak"))
	mock.ExpectQuery(`SELECT \* FROM "schedules"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tour_id"}).AddRow("s1", "t1"))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "checkout_orders"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("PP-ORDER-1"))
	mock.ExpectCommit()

	w := postJSON(router, "/checkout/create-order", validCreateBody())

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		OrderID     string `json:"orderID"`
		ApprovalURL string `json:"approvalUrl"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "PP-ORDER-1", resp.OrderID)
	assert.Equal(t, "https://provider.example/approve/PP-ORDER-1", resp.ApprovalURL)

	// every create carries an idempotency key for the provider
	assert.NotEmpty(t, providerReq.Header.Get("PayPal-Request-Id"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderForwardsIdempotencyKey(t *testing.T) {
	db, mock := newMockDB(t)
	pp, providerReq := fakeProvider(t, http.StatusCreated, `{
		"id": "PP-ORDER-2",
		"status": "CREATED",
		"links": [{"href": "https://provider.example/approve/PP-ORDER-2", "rel": "approve"}]
	}`)
	router := checkoutRouter(db, pp)

	mock.ExpectQuery(`SELECT \* FROM "tours"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("t1", "Seal Kayak"))
	mock.ExpectQuery(`SELECT \* FROM "schedules"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tour_id"}).AddRow("s1", "t1"))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "checkout_orders"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("PP-ORDER-2"))
	mock.ExpectCommit()

	data, _ := json.Marshal(validCreateBody())
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/checkout/create-order", bytes.NewReader(data))
	req.Header.Set("Idempotency-Key", "client-key-123")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "client-key-123", providerReq.Header.Get("PayPal-Request-Id"))
}

func TestCreateOrderMissingApproveLink(t *testing.T) {
	db, mock := newMockDB(t)
	pp, _ := fakeProvider(t, http.StatusCreated, `{
		"id": "PP-ORDER-3",
		"status": "CREATED",
		"links": [{"href": "https://provider.example/self", "rel": "self"}]
	}`)
	router := checkoutRouter(db, pp)

	mock.ExpectQuery(`SELECT \* FROM "tours"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("t1", "Seal Kayak"))
	mock.ExpectQuery(`SELECT \* FROM "schedules"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tour_id"}).AddRow("s1", "t1"))

	w := postJSON(router, "/checkout/create-order", validCreateBody())

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	// no local row is written for an unusable provider order
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderProviderFailure(t *testing.T) {
	db, mock := newMockDB(t)
	pp, _ := fakeProvider(t, http.StatusUnprocessableEntity, `{
		"name": "UNPROCESSABLE_ENTITY",
		"message": "The requested action could not be performed.",
		"debug_id": "d1"
	}`)
	router := checkoutRouter(db, pp)

	mock.ExpectQuery(`SELECT \* FROM "tours"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("t1", "Seal Kayak"))
	mock.ExpectQuery(`SELECT \* FROM "schedules"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tour_id"}).AddRow("s1", "t1"))

	w := postJSON(router, "/checkout/create-order", validCreateBody())

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "order creation failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCaptureReplayedOrderStaysFinal(t *testing.T) {
	db, mock := newMockDB(t)
	router := checkoutRouter(db, &internal.Client{})

	mock.ExpectQuery(`SELECT \* FROM "checkout_orders"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).
			AddRow("PP-ORDER-1", "CAPTURED"))

	w := postJSON(router, "/checkout/capture-order", map[string]string{"orderId": "PP-ORDER-1"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"CAPTURED"`)
	// neither the provider nor the row was touched
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCaptureFailureNeverRegressesCaptured(t *testing.T) {
	db, mock := newMockDB(t)
	pp, _ := fakeProvider(t, http.StatusUnprocessableEntity, `{
		"name": "UNPROCESSABLE_ENTITY",
		"message": "Order already captured.",
		"debug_id": "d2"
	}`)
	router := checkoutRouter(db, pp)

	mock.ExpectQuery(`SELECT \* FROM "checkout_orders"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).
			AddRow("PP-ORDER-1", "APPROVED"))
	mock.ExpectBegin()
	// the downgrade carries the same status guard as the webhook path
	mock.ExpectExec(`UPDATE "checkout_orders" SET .+ WHERE \(id = \$\d+ AND status != \$\d+\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w := postJSON(router, "/checkout/capture-order", map[string]string{"orderId": "PP-ORDER-1"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "UNPROCESSABLE_ENTITY")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookLogsFirstDelivery(t *testing.T) {
	db, mock := newMockDB(t)
	pp, _ := fakeProvider(t, http.StatusOK, ``)
	router := checkoutRouter(db, pp)

	mock.ExpectQuery(`SELECT \* FROM "webhook_logs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "webhook_logs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("WH-1"))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "checkout_orders" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	body := `{"id": "WH-1", "event_type": "CHECKOUT.ORDER.APPROVED", "resource_type": "checkout-order", "resource": {"id": "PP-ORDER-1"}}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/checkout/webhook", strings.NewReader(body))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdvanceOrderGuardsCapturedState(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "checkout_orders" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	advanceOrder(db, "PP-ORDER-1", "APPROVED")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdvanceOrderIgnoresEmptyID(t *testing.T) {
	db, mock := newMockDB(t)

	advanceOrder(db, "", "APPROVED")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListOrdersFiltersByTour(t *testing.T) {
	db, mock := newMockDB(t)
	router := checkoutRouter(db, &internal.Client{})

	mock.ExpectQuery(`SELECT \* FROM "checkout_orders".+tour_id = `).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "tour_id"}).
			AddRow("PP-ORDER-1", "CAPTURED", "t1"))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/checkout/orders?tourId=t1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var orders []map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &orders))
	assert.Len(t, orders, 1)
	assert.Equal(t, "CAPTURED", orders[0]["status"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
