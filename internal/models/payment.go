package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Payment statuses.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusPartial   = "partial"
	PaymentStatusCompleted = "completed"
)

// Payment tracks the fee owed and paid for a student's course. Only admins see it.
type Payment struct {
	ID            int64          `db:"id" json:"id"`
	StudentID     int64          `db:"student_id" json:"-"`
	CoursePrice   float64        `db:"course_price" json:"course_price"`
	AmountPaid    float64        `db:"amount_paid" json:"amount_paid"`
	Balance       float64        `db:"balance" json:"balance"`
	PaymentMethod *string        `db:"payment_method" json:"payment_method"`
	ReceiptNo     *string        `db:"receipt_no" json:"receipt_no"`
	PaymentStatus string         `db:"payment_status" json:"payment_status"`
	Payments      types.JSONText `db:"payments" json:"payments"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// PaymentEntry is one change of amount_paid kept in the payment history.
type PaymentEntry struct {
	Amount     float64   `json:"amount"`
	Method     *string   `json:"method"`
	ReceiptNo  *string   `json:"receipt_no"`
	RecordedAt time.Time `json:"recorded_at"`
}

// PaymentMethodTotal aggregates payments by method.
type PaymentMethodTotal struct {
	Method      string  `db:"method" json:"-"`
	Count       int     `db:"count" json:"count"`
	TotalAmount float64 `db:"total_amount" json:"total_amount"`
}
