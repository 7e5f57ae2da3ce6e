package order

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"
)

var ErrNotFound = errors.New("order not found")

// Statuses the shop understands. The admin path may store other strings;
// these are the ones with tailored customer notices.
const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusCompleted = "COMPLETED"
	StatusCancelled = "CANCELLED"
	StatusRefunded  = "REFUNDED"
)

// Order is a single purchase. Orders are created PENDING, have their
// recipient and payment numbers filled by later dialogue steps, and are
// never deleted.
type Order struct {
	OrderID       string    `json:"order_id"`
	Customer      string    `json:"customer"`
	Package       string    `json:"package"`
	Amount        int64     `json:"amount"`
	Recipient     string    `json:"recipient,omitempty"`
	Payment       string    `json:"payment,omitempty"`
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	Remark        string    `json:"remark,omitempty"`
	BonusCredited bool      `json:"bonus_credited,omitempty"`
}

// Ledger owns every order. Both the dialogue engine and the admin
// interpreter mutate orders through it.
type Ledger interface {
	Create(customer, pkg string, amount int64) (Order, error)
	Get(orderID string) (Order, error)
	SetRecipient(orderID, phone string) error
	SetPayment(orderID, phone string) error
	// UpdateStatus sets status and remark and returns the updated order.
	UpdateStatus(orderID, status, remark string) (Order, error)
	// MarkBonusCredited flips the referral-bonus flag; it reports false if
	// the bonus was already credited for this order.
	MarkBonusCredited(orderID string) (bool, error)
	// LatestPending returns the customer's most recent PENDING order.
	LatestPending(customer string) (Order, error)
	ByCustomer(customer string) ([]Order, error)
	All() ([]Order, error)
}

// NewID generates an order identifier like FY'S-483920.
func NewID() string {
	return "FY'S-" + randomDigits(6)
}

func randomDigits(n int) string {
	max := big.NewInt(10)
	out := make([]byte, n)
	for i := range out {
		d, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails if the OS entropy source is broken
			panic(fmt.Sprintf("rand: %v", err))
		}
		out[i] = byte('0' + d.Int64())
	}
	return string(out)
}
