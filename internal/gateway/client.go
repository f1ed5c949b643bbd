package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"

	"driverhire/internal/models"
	"driverhire/pkg/logger"
)

// Legacy operation names.
const (
	OpSendOTP        = "sendOTP"
	OpVerifyOTP      = "verifyOTP"
	OpGetFareAmount  = "GetFareAmount"
	OpInsertBooking  = "insertbookingnew"
	OpBookingHistory = "BookingHistory"
)

const maxResponseBytes = 1 << 20

// Client is the typed view of the legacy API used by internal components.
type Client struct {
	forwarder *Forwarder
	logger    *logger.Logger
}

func NewClient(forwarder *Forwarder, log *logger.Logger) *Client {
	return &Client{
		forwarder: forwarder,
		logger:    log,
	}
}

type FareQuoteRequest struct {
	ClassID     int     `json:"classid"`
	Hours       int     `json:"Hours"`
	TripType    int     `json:"triptype"`
	PickupType  string  `json:"pickuptype"`
	PickupPlace string  `json:"pickupplace"`
	DropPlace   string  `json:"dropplace"`
	RequestDate string  `json:"requestdt"`  // DD/MM/YYYY
	PickupTime  string  `json:"pickuptime"` // HH:mm
	TripKms     float64 `json:"tripkms"`
}

type FareQuote struct {
	BaseFare    float64
	NightCharge float64
	Total       float64
}

type BookingPayload struct {
	TripType       string `json:"tripType"`
	ReqType        string `json:"reqType"`
	PickupLocation string `json:"pickupLocation"`
	PickupLatLong  string `json:"pickupLatLong"`
	DropLocation   string `json:"dropLocation"`
	DropLatLong    string `json:"dropLatLong"`
	PickupTime     string `json:"pickupTime"` // YYYY-MM-DD HH:mm:ss
	ReturnTime     string `json:"returnTime"`
	Price          int64  `json:"price"`
	CarType        string `json:"carType"`
	PackageHours   int    `json:"packageHours"`
	MobileNumber   string `json:"mobileNumber"`
}

type BookingConfirmation struct {
	BookingNo   string
	Reference   string
	PaymentType string
}

// Call posts body to operation and normalizes the reply.
func (c *Client) Call(ctx context.Context, operation string, body interface{}) (*Result, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", operation, err)
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("Accept", "application/json")

	resp, err := c.forwarder.Forward(ctx, &Request{
		Method: http.MethodPost,
		Path:   operation,
		Header: header,
		Body:   bytes.NewReader(payload),
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: read %s response: %v", ErrRemoteUnavailable, operation, err)
	}

	result, err := ParseResult(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	if resp.StatusCode >= http.StatusInternalServerError && !result.OK {
		return nil, fmt.Errorf("%w: %s returned status %d", ErrRemoteUnavailable, operation, resp.StatusCode)
	}
	return result, nil
}

func (c *Client) SendOTP(ctx context.Context, mobile string) (*Result, error) {
	result, err := c.Call(ctx, OpSendOTP, map[string]string{"mobileno": mobile})
	if err != nil {
		return nil, err
	}
	if !result.OK {
		return result, &RemoteRejection{Operation: OpSendOTP, Message: result.Message}
	}
	return result, nil
}

func (c *Client) VerifyOTP(ctx context.Context, mobile, otp string) (*Result, error) {
	result, err := c.Call(ctx, OpVerifyOTP, map[string]string{
		"mobile":   mobile,
		"mobileno": mobile,
		"otp":      otp,
	})
	if err != nil {
		return nil, err
	}
	if !result.OK {
		return result, &RemoteRejection{Operation: OpVerifyOTP, Message: result.Message}
	}
	return result, nil
}

// GetFareAmount returns ErrRemoteUnavailable when TOTALFARE is missing or
// unparseable so callers fall back to a local estimate.
func (c *Client) GetFareAmount(ctx context.Context, req *FareQuoteRequest) (*FareQuote, error) {
	result, err := c.Call(ctx, OpGetFareAmount, req)
	if err != nil {
		return nil, err
	}

	totalRaw, _ := result.Field("TOTALFARE")
	total, ok := ParseAmount(totalRaw)
	if !ok || total <= 0 {
		return nil, fmt.Errorf("%w: %s response has no usable TOTALFARE", ErrRemoteUnavailable, OpGetFareAmount)
	}

	quote := &FareQuote{Total: total}
	if raw, ok := result.Field("BASEFARE"); ok {
		quote.BaseFare, _ = ParseAmount(raw)
	}
	if raw, ok := result.Field("NIGHTCHARGES"); ok {
		quote.NightCharge, _ = ParseAmount(raw)
	}
	return quote, nil
}

func (c *Client) InsertBooking(ctx context.Context, payload *BookingPayload) (*BookingConfirmation, error) {
	result, err := c.Call(ctx, OpInsertBooking, payload)
	if err != nil {
		return nil, err
	}
	if !result.OK {
		return nil, &RemoteRejection{Operation: OpInsertBooking, Message: result.Message}
	}

	confirmation := &BookingConfirmation{}
	if raw, ok := result.Field("BookingNo"); ok {
		confirmation.BookingNo, _ = rawString(raw)
	}
	if raw, ok := result.Field("PaymentType"); ok {
		confirmation.PaymentType, _ = rawString(raw)
	}
	confirmation.Reference = TrimReference(confirmation.BookingNo)
	if confirmation.Reference == "" {
		return nil, fmt.Errorf("%w: %s response has no booking number", ErrRemoteUnavailable, OpInsertBooking)
	}
	return confirmation, nil
}

// TrimReference drops any label before the last colon ("Booking No : DH123" -> "DH123").
func TrimReference(bookingNo string) string {
	if i := strings.LastIndex(bookingNo, ":"); i >= 0 {
		bookingNo = bookingNo[i+1:]
	}
	return strings.TrimSpace(bookingNo)
}

func (c *Client) BookingHistory(ctx context.Context, mobile string, skip, total int) (*models.BookingHistory, error) {
	result, err := c.Call(ctx, OpBookingHistory, map[string]interface{}{
		"mobileno":   mobile,
		"skipCount":  skip,
		"totalCount": total,
	})
	if err != nil {
		return nil, err
	}
	if !result.OK {
		return nil, &RemoteRejection{Operation: OpBookingHistory, Message: result.Message}
	}

	history := &models.BookingHistory{
		Upcoming: []models.BookingSummary{},
		Past:     []models.BookingSummary{},
	}
	if raw, ok := result.Field("UpcomingTrip"); ok {
		history.Upcoming = parseSummaries(raw)
	}
	if raw, ok := result.Field("PastTrip"); ok {
		history.Past = parseSummaries(raw)
	}
	return history, nil
}

func parseSummaries(raw json.RawMessage) []models.BookingSummary {
	var rows []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return []models.BookingSummary{}
	}

	summaries := make([]models.BookingSummary, 0, len(rows))
	for _, row := range rows {
		s := models.BookingSummary{
			Reference:  TrimReference(firstString(row, "BookingNo", "BookingId", "bookingReference")),
			RawStatus:  firstString(row, "Status", "BookingStatus", "TripStatus"),
			TripType:   firstString(row, "TripType", "triptype"),
			Pickup:     firstString(row, "PickupLocation", "PickupPlace", "pickupplace"),
			Drop:       firstString(row, "DropLocation", "DropPlace", "dropplace"),
			PickupTime: firstString(row, "PickupTime", "PickupDate", "BookingDate"),
		}
		if status, err := models.ParseBookingStatus(s.RawStatus); err == nil {
			s.Status = status
		}
		for _, key := range []string{"TotalFare", "FinalAmount", "Amount", "Price"} {
			if v, ok := lookup(row, key); ok {
				if amount, ok := ParseAmount(v); ok {
					s.FinalAmount = int64(math.Round(amount))
					break
				}
			}
		}
		summaries = append(summaries, s)
	}
	return summaries
}

func firstString(row map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		if s, ok := lookupString(row, key); ok && s != "" {
			return s
		}
	}
	return ""
}

func rawString(raw json.RawMessage) (string, bool) {
	return lookupString(map[string]json.RawMessage{"v": raw}, "v")
}

// IsCanceled reports whether err came from a deliberately canceled context.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
