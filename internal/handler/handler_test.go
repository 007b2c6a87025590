package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/tinghir/car-rental-connect/internal/config"
	"github.com/tinghir/car-rental-connect/internal/gateway"
	"github.com/tinghir/car-rental-connect/internal/repository"
)

func testConfig() config.Config {
	return config.Config{
		JWTSecret:      "test-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
		BcryptCost:     4,
	}
}

// newMockDB returns a sqlmock-backed database for handler tests. The
// default matcher treats expectations as regexp fragments, so tests
// match on stable query substrings.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func newJSONContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

const reservationColumns = "id, car_id, user_id, start_date, end_date, total_price, status, payment_status, " +
	"guest_first_name, guest_last_name, guest_email, guest_phone, created_at, updated_at"

func reservationRow(status, payment string) *sqlmock.Rows {
	now := time.Now().UTC()
	start := time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2030, 6, 3, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(strings.Split(reservationColumns, ", ")).
		AddRow(uint64(7), uint64(3), int64(5), start, end, int64(900), status, payment,
			nil, nil, nil, nil, now, now)
}

// stubGateway records whether Charge was called and returns a canned
// result, so payment tests run without the real gateway logic.
type stubGateway struct {
	result gateway.ChargeResult
	err    error
	called bool
}

func (s *stubGateway) Charge(ctx context.Context, req gateway.ChargeRequest) (gateway.ChargeResult, error) {
	s.called = true
	return s.result, s.err
}

func TestAvailabilityReportsOverlapMessage(t *testing.T) {
	db, mock := newMockDB(t)
	h := NewCarHandler(repository.NewCarRepo(db), repository.NewReservationRepo(db))

	now := time.Now().UTC()
	carRows := sqlmock.NewRows([]string{
		"id", "brand", "model", "year", "registration_number", "type", "agency",
		"status", "price_per_day", "image_url", "created_at", "updated_at",
	}).AddRow(uint64(3), "Dacia", "Logan", 2022, "A-12345", "Berline", "Casablanca",
		"AVAILABLE", int64(300), nil, now, now)
	mock.ExpectQuery("FROM cars WHERE id =").WillReturnRows(carRows)
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	c, rec := newJSONContext(t, http.MethodGet, "/?start_date=2030-06-01&end_date=2030-06-03", "")
	c.SetParamNames("id")
	c.SetParamValues("3")
	if err := h.Availability(c); err != nil {
		t.Fatalf("Availability: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"available":false`) {
		t.Errorf("body %s missing available:false", body)
	}
	if !strings.Contains(body, `"message":"Car is already reserved for the selected dates"`) {
		t.Errorf("body %s missing message field", body)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestAvailabilityReportsCarStatusMessage(t *testing.T) {
	db, mock := newMockDB(t)
	h := NewCarHandler(repository.NewCarRepo(db), repository.NewReservationRepo(db))

	now := time.Now().UTC()
	carRows := sqlmock.NewRows([]string{
		"id", "brand", "model", "year", "registration_number", "type", "agency",
		"status", "price_per_day", "image_url", "created_at", "updated_at",
	}).AddRow(uint64(3), "Dacia", "Logan", 2022, "A-12345", "Berline", "Casablanca",
		"MAINTENANCE", int64(300), nil, now, now)
	mock.ExpectQuery("FROM cars WHERE id =").WillReturnRows(carRows)

	c, rec := newJSONContext(t, http.MethodGet, "/?start_date=2030-06-01&end_date=2030-06-03", "")
	c.SetParamNames("id")
	c.SetParamValues("3")
	if err := h.Availability(c); err != nil {
		t.Fatalf("Availability: %v", err)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"message":"Car is not available for reservation"`) {
		t.Errorf("body %s missing message field", body)
	}
	// No overlap query may run for an unavailable car.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCancelLeavesPaymentStateUntouched(t *testing.T) {
	db, mock := newMockDB(t)
	h := NewReservationHandler(testConfig(), repository.NewCarRepo(db), repository.NewReservationRepo(db))

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(reservationRow("PENDING", "PENDING"))
	mock.ExpectExec("UPDATE reservations SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, rec := newJSONContext(t, http.MethodPatch, "/", `{"status":"CANCELLED"}`)
	c.SetParamNames("id")
	c.SetParamValues("7")
	c.Set("user_id", uint64(5))
	c.Set("role", "USER")
	if err := h.Update(c); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"status":"CANCELLED"`) {
		t.Errorf("body %s missing cancelled status", body)
	}
	if !strings.Contains(body, `"payment_status":"PENDING"`) {
		t.Errorf("cancellation changed payment_status: %s", body)
	}
	// Any UPDATE of payment_status would be an unexpected call here.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPaymentCaptureMarksPaidAndConfirmed(t *testing.T) {
	db, mock := newMockDB(t)
	gw := &stubGateway{result: gateway.ChargeResult{State: gateway.StateCaptured, TransactionID: "txn_test"}}
	h := NewPaymentHandler(repository.NewReservationRepo(db), repository.NewPaymentRepo(db), gw)

	mock.ExpectQuery("FROM reservations WHERE id =").WillReturnRows(reservationRow("PENDING", "PENDING"))
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(reservationRow("PENDING", "PENDING"))
	mock.ExpectExec("INSERT INTO payments").WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery("SELECT created_at FROM payments").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now().UTC()))
	mock.ExpectExec("UPDATE reservations SET payment_status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE reservations SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, rec := newJSONContext(t, http.MethodPost, "/",
		`{"reservation_id":7,"amount":900,"method":"TRANSFER"}`)
	if err := h.Create(c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (%s)", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"payment_status":"PAID"`) {
		t.Errorf("body %s missing PAID", body)
	}
	if !strings.Contains(body, `"status":"CONFIRMED"`) {
		t.Errorf("body %s missing CONFIRMED", body)
	}
	if !gw.called {
		t.Error("gateway was never charged")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPaymentAmountMismatchNeverReachesGateway(t *testing.T) {
	db, mock := newMockDB(t)
	gw := &stubGateway{result: gateway.ChargeResult{State: gateway.StateCaptured}}
	h := NewPaymentHandler(repository.NewReservationRepo(db), repository.NewPaymentRepo(db), gw)

	mock.ExpectQuery("FROM reservations WHERE id =").WillReturnRows(reservationRow("PENDING", "PENDING"))

	c, rec := newJSONContext(t, http.MethodPost, "/",
		`{"reservation_id":7,"amount":800,"method":"TRANSFER"}`)
	if err := h.Create(c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if gw.called {
		t.Error("gateway charged despite amount mismatch")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPaymentDeclinedIsNotRecorded(t *testing.T) {
	db, mock := newMockDB(t)
	gw := &stubGateway{result: gateway.ChargeResult{State: gateway.StateDeclined, Reason: "card expired"}}
	h := NewPaymentHandler(repository.NewReservationRepo(db), repository.NewPaymentRepo(db), gw)

	mock.ExpectQuery("FROM reservations WHERE id =").WillReturnRows(reservationRow("PENDING", "PENDING"))

	c, rec := newJSONContext(t, http.MethodPost, "/",
		`{"reservation_id":7,"amount":900,"method":"TRANSFER"}`)
	if err := h.Create(c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d, want 402", rec.Code)
	}
	// A declined charge must not open a transaction or touch the tables.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPaymentAlreadyPaidConflicts(t *testing.T) {
	db, mock := newMockDB(t)
	gw := &stubGateway{result: gateway.ChargeResult{State: gateway.StateCaptured}}
	h := NewPaymentHandler(repository.NewReservationRepo(db), repository.NewPaymentRepo(db), gw)

	mock.ExpectQuery("FROM reservations WHERE id =").WillReturnRows(reservationRow("CONFIRMED", "PAID"))

	c, rec := newJSONContext(t, http.MethodPost, "/",
		`{"reservation_id":7,"amount":900,"method":"TRANSFER"}`)
	if err := h.Create(c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if gw.called {
		t.Error("gateway charged an already paid reservation")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestMeReturnsFullProfile(t *testing.T) {
	db, mock := newMockDB(t)
	h := NewAuthHandler(testConfig(), repository.NewUserRepo(db), repository.NewTokenRepo(db))

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "first_name", "last_name", "email", "password_hash",
		"phone", "role", "is_active", "created_at", "updated_at",
	}).AddRow(uint64(5), "Yassine", "Amrani", "yassine@example.com", "x",
		"0600000000", "USER", true, now, now)
	mock.ExpectQuery("FROM users WHERE id=").WillReturnRows(rows)

	c, rec := newJSONContext(t, http.MethodGet, "/", "")
	c.Set("user_id", uint64(5))
	c.Set("role", "USER")
	if err := h.Me(c); err != nil {
		t.Fatalf("Me: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`"email":"yassine@example.com"`, `"first_name":"Yassine"`, `"phone":"0600000000"`, `"role":"USER"`} {
		if !strings.Contains(body, want) {
			t.Errorf("body %s missing %s", body, want)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpdateMe(t *testing.T) {
	db, mock := newMockDB(t)
	h := NewAuthHandler(testConfig(), repository.NewUserRepo(db), repository.NewTokenRepo(db))

	mock.ExpectExec("UPDATE users SET first_name").
		WithArgs("Sara", "Benali", "0611111111", uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "first_name", "last_name", "email", "password_hash",
		"phone", "role", "is_active", "created_at", "updated_at",
	}).AddRow(uint64(5), "Sara", "Benali", "sara@example.com", "x",
		"0611111111", "USER", true, now, now)
	mock.ExpectQuery("FROM users WHERE id=").WillReturnRows(rows)

	c, rec := newJSONContext(t, http.MethodPut, "/",
		`{"first_name":"Sara","last_name":"Benali","phone":"0611111111"}`)
	c.Set("user_id", uint64(5))
	c.Set("role", "USER")
	if err := h.UpdateMe(c); err != nil {
		t.Fatalf("UpdateMe: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"first_name":"Sara"`) {
		t.Errorf("body %s missing updated name", rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpdateMeRequiresNames(t *testing.T) {
	db, _ := newMockDB(t)
	h := NewAuthHandler(testConfig(), repository.NewUserRepo(db), repository.NewTokenRepo(db))

	c, rec := newJSONContext(t, http.MethodPut, "/", `{"first_name":"  ","last_name":""}`)
	c.Set("user_id", uint64(5))
	if err := h.UpdateMe(c); err != nil {
		t.Fatalf("UpdateMe: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
