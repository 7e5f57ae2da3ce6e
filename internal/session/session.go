package session

import "sync"

// Step is a user's position within a multi-message dialogue.
type Step int

const (
	StepMain Step = iota
	StepDataSubcat
	StepDataBundle
	StepSMSSubcat
	StepSMSBundle
	StepAirtimeAmount
	StepOrderRecipient
	StepOrderPayment
	StepReferralsMenu
	StepWithdrawAmount
	StepWithdrawPIN
	StepSetPIN
)

var stepNames = map[Step]string{
	StepMain:           "main",
	StepDataSubcat:     "data_subcat",
	StepDataBundle:     "data_bundle",
	StepSMSSubcat:      "sms_subcat",
	StepSMSBundle:      "sms_bundle",
	StepAirtimeAmount:  "airtime_amount",
	StepOrderRecipient: "order_recipient",
	StepOrderPayment:   "order_payment",
	StepReferralsMenu:  "my_referrals_menu",
	StepWithdrawAmount: "withdraw_request",
	StepWithdrawPIN:    "withdraw_pin",
	StepSetPIN:         "set_pin",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return "unknown"
}

// Session is the ephemeral per-user dialogue state. It is overwritten
// wholesale on every step transition and never expired.
type Session struct {
	Step    Step
	Prev    Step
	HasPrev bool

	// In-flight purchase
	Family         string
	Subcategory    string
	PendingOrderID string

	// In-flight withdrawal, held until the PIN check passes
	WithdrawAmount int64
	WithdrawNumber string
}

// Enter moves to a new step, remembering the current one for "0".
func (s *Session) Enter(next Step) {
	s.Prev = s.Step
	s.HasPrev = true
	s.Step = next
}

// Reset returns the session to the main menu and clears transient state.
func (s *Session) Reset() {
	*s = Session{}
}

// Store holds one session per active user.
type Store struct {
	mu       sync.Mutex
	sessions map[string]Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]Session)}
}

// Get returns a copy of the user's session, zero-valued (main menu, no
// previous step) if none exists yet.
func (st *Store) Get(user string) Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sessions[user]
}

// Put overwrites the user's session.
func (st *Store) Put(user string, s Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[user] = s
}
