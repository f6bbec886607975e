package payment

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// LogType classifies payment activity log entries
type LogType string

const (
	LogOrderCreated      LogType = "ORDER_CREATED"
	LogPaymentSuccess    LogType = "PAYMENT_SUCCESS"
	LogPaymentFailed     LogType = "PAYMENT_FAILED"
	LogCoinsCredited     LogType = "COINS_CREDITED"
	LogFeaturePurchased  LogType = "FEATURE_PURCHASED"
	LogRedemptionRequest LogType = "REDEMPTION_REQUEST"
	LogWebhookReceived   LogType = "WEBHOOK_RECEIVED"
	LogError             LogType = "ERROR"
)

// LogEntry is one payment activity record. Monetary values in Request
// and Response must already be JSON-safe (two-decimal strings, not
// arbitrary-precision types).
type LogEntry struct {
	UserID        *uuid.UUID
	Type          LogType
	Message       string
	OrderID       *uuid.UUID
	TransactionID *uuid.UUID
	IPAddress     string
	UserAgent     string
	Request       map[string]interface{}
	Response      map[string]interface{}
}

// ActivityLogger appends diagnostic payment logs. It is strictly
// best-effort: failures are written to the operational log and
// discarded, never returned to the caller.
type ActivityLogger struct {
	db *sqlx.DB
}

func NewActivityLogger(db *sqlx.DB) *ActivityLogger {
	return &ActivityLogger{db: db}
}

// Record appends a log entry. Never returns an error.
func (l *ActivityLogger) Record(ctx context.Context, entry LogEntry) {
	requestData, err := marshalOrEmpty(entry.Request)
	if err != nil {
		log.Warn().Err(err).Str("log_type", string(entry.Type)).Msg("payment log request data not serializable")
		requestData = []byte("{}")
	}
	responseData, err := marshalOrEmpty(entry.Response)
	if err != nil {
		log.Warn().Err(err).Str("log_type", string(entry.Type)).Msg("payment log response data not serializable")
		responseData = []byte("{}")
	}

	_, err = l.db.ExecContext(ctx, `
		INSERT INTO payment_logs
			(id, user_id, log_type, message, order_id, transaction_id, ip_address, user_agent, request_data, response_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, uuid.New(), entry.UserID, string(entry.Type), entry.Message, entry.OrderID, entry.TransactionID,
		nullableString(entry.IPAddress), nullableString(entry.UserAgent), requestData, responseData)
	if err != nil {
		log.Warn().Err(err).Str("log_type", string(entry.Type)).Msg("payment log write failed")
	}
}

func marshalOrEmpty(data map[string]interface{}) ([]byte, error) {
	if len(data) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(data)
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
