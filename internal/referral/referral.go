package referral

import (
	"crypto/rand"
	"errors"
	"regexp"
	"sync"
	"time"
)

var (
	ErrNotFound             = errors.New("referral record not found")
	ErrCodeNotFound         = errors.New("referral code not found")
	ErrWithdrawalNotFound   = errors.New("withdrawal not found")
	ErrInsufficientEarnings = errors.New("amount exceeds current earnings")
	ErrBadPIN               = errors.New("PIN must be exactly 4 digits")
	ErrWeakPIN              = errors.New("PIN is too easy to guess")
	ErrBadBounds            = errors.New("bounds must satisfy 0 < min < max")
)

const (
	WithdrawalPending  = "PENDING"
	WithdrawalApproved = "APPROVED"
	WithdrawalRejected = "REJECTED"
	WithdrawalReversed = "REVERSED"
)

// Withdrawal is a PIN-confirmed claim against referral earnings. The
// amount is debited when the request is created, not when an admin
// approves it, and is never credited back automatically.
type Withdrawal struct {
	ID          string    `json:"id"`
	Amount      int64     `json:"amount"`
	MpesaNumber string    `json:"mpesa_number"`
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Remarks     string    `json:"remarks,omitempty"`
}

// Record is one referrer's ledger entry. The code is unique and immutable
// once assigned; the referred list is insertion-ordered and deduplicated.
type Record struct {
	Owner       string       `json:"owner"`
	Code        string       `json:"code"`
	Referred    []string     `json:"referred"`
	Earnings    int64        `json:"earnings"`
	PIN         string       `json:"-"`
	PINSet      bool         `json:"pin_set"`
	Withdrawals []Withdrawal `json:"withdrawals"`
}

// Ledger owns every referral record.
type Ledger interface {
	// Ensure returns the owner's record, lazily creating it (and its
	// unique code) on first touch.
	Ensure(owner string) (Record, error)
	Get(owner string) (Record, error)
	ByCode(code string) (Record, error)
	// RecordReferral attributes user to the owner of code. Self-referral
	// and re-redemption by an already-attributed user are no-ops; it
	// reports whether a new attribution was made.
	RecordReferral(user, code string) (bool, error)
	// ReferrerOf returns the owner that referred user, if any.
	ReferrerOf(user string) (string, bool)
	SetPIN(owner, pin string) error
	Credit(owner string, amount int64) error
	// RequestWithdrawal creates a PENDING withdrawal and debits earnings
	// in the same step; it fails without debiting if amount exceeds the
	// current earnings.
	RequestWithdrawal(owner string, amount int64, mpesaNumber string) (Withdrawal, error)
	UpdateWithdrawal(code, withdrawalID, status, remarks string) (Record, Withdrawal, error)
	// ReverseWithdrawal is the explicit manual-credit path: it re-credits
	// the amount and marks the withdrawal REVERSED.
	ReverseWithdrawal(code, withdrawalID string) (Record, Withdrawal, error)
	All() ([]Record, error)
}

var pinPattern = regexp.MustCompile(`^\d{4}$`)

// ValidatePIN enforces the PIN rules: exactly 4 digits, not 1234 or 0000.
func ValidatePIN(pin string) error {
	if !pinPattern.MatchString(pin) {
		return ErrBadPIN
	}
	if pin == "1234" || pin == "0000" {
		return ErrWeakPIN
	}
	return nil
}

// Settings holds the process-wide withdrawal bounds. Admins may change
// them at runtime; changes only affect requests created afterwards.
type Settings struct {
	mu  sync.Mutex
	min int64
	max int64
}

func NewSettings(min, max int64) *Settings {
	return &Settings{min: min, max: max}
}

func (s *Settings) Bounds() (min, max int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.min, s.max
}

func (s *Settings) SetBounds(min, max int64) error {
	if min <= 0 || min >= max {
		return ErrBadBounds
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.min, s.max = min, max
	return nil
}

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewCode generates a referral code like FY-7KQ2M9.
func NewCode() string {
	b := make([]byte, 6)
	rand.Read(b)
	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return "FY-" + string(b)
}

// NewWithdrawalID generates a withdrawal identifier like WD-204817.
func NewWithdrawalID() string {
	b := make([]byte, 6)
	rand.Read(b)
	for i := range b {
		b[i] = '0' + b[i]%10
	}
	return "WD-" + string(b)
}
