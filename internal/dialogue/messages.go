package dialogue

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/GK-FY/buybot/internal/session"
)

const helpText = "🤖 Sorry, I didn't understand that. Send *menu* to see what I can do, *0* to go back or *00* for the main menu."

const airtimePrompt = "📲 How much airtime do you want to buy? Enter an amount in KSh (e.g. 50)."

const referralsMenu = `🎁 *My Referrals*
1. View earnings & withdrawals
2. Withdraw earnings
3. Get my referral code
4. Set/update withdrawal PIN
5. My referred friends

Reply with a number, 0 to go back, 00 for main menu.`

// Safaricom format: 07XXXXXXXX or 01XXXXXXXX.
var phonePattern = regexp.MustCompile(`^0[17]\d{8}$`)

func validPhone(s string) bool {
	return phonePattern.MatchString(s)
}

// maskID hides the middle of a user identifier for display to referrers.
func maskID(id string) string {
	if len(id) <= 6 {
		return id
	}
	return id[:4] + strings.Repeat("*", len(id)-6) + id[len(id)-2:]
}

func (e *Engine) mainMenu() string {
	return fmt.Sprintf(`👋 *Welcome to FY'S Bundle Shop!*
1. Data bundles
2. SMS bundles
3. Airtime
4. My referrals

Reply with a number. Payment till: %s`, e.deps.Payment.Get())
}

func (e *Engine) subcatMenu(sess session.Session) string {
	subcats, err := e.deps.Catalog.Subcategories(sess.Family)
	if err != nil || len(subcats) == 0 {
		return "❌ Nothing on sale in that category right now. Send 00 for the main menu."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📦 *%s bundles* — choose a category:\n", strings.ToUpper(sess.Family))
	for i, sc := range subcats {
		fmt.Fprintf(&b, "%d. %s\n", i+1, sc)
	}
	b.WriteString("\nReply with a number, 0 to go back.")
	return b.String()
}

func (e *Engine) bundleMenu(sess session.Session) string {
	items, err := e.deps.Catalog.Items(sess.Family, sess.Subcategory)
	if err != nil || len(items) == 0 {
		return "❌ That category is empty right now. Send 0 to go back."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🛒 *%s bundles (%s)*:\n", strings.ToUpper(sess.Family), sess.Subcategory)
	for _, it := range items {
		fmt.Fprintf(&b, "%d. %s — KSh %d (%s)\n", it.ID, it.Name, it.Price, it.Validity)
	}
	b.WriteString("\nReply with the bundle number, 0 to go back.")
	return b.String()
}

func (e *Engine) promptFor(sess session.Session) string {
	switch sess.Step {
	case session.StepMain:
		return e.mainMenu()
	case session.StepDataSubcat, session.StepSMSSubcat:
		return e.subcatMenu(sess)
	case session.StepDataBundle, session.StepSMSBundle:
		return e.bundleMenu(sess)
	case session.StepAirtimeAmount:
		return airtimePrompt
	case session.StepOrderRecipient:
		return recipientPrompt
	case session.StepOrderPayment:
		return e.paymentPrompt()
	case session.StepReferralsMenu:
		return referralsMenu
	case session.StepWithdrawAmount:
		return e.withdrawPrompt()
	case session.StepWithdrawPIN:
		return withdrawPINPrompt
	case session.StepSetPIN:
		return setPINPrompt
	}
	return e.mainMenu()
}

const recipientPrompt = "📱 Which number should receive the bundle? (format 07XXXXXXXX or 01XXXXXXXX)"

const withdrawPINPrompt = "🔐 Enter your 4-digit PIN to confirm the withdrawal."

const setPINPrompt = "🔐 Choose a 4-digit withdrawal PIN (not 1234 or 0000)."

func (e *Engine) paymentPrompt() string {
	return fmt.Sprintf("💳 Pay to %s, then tell me the M-Pesa number you paid from (07XXXXXXXX or 01XXXXXXXX).", e.deps.Payment.Get())
}

func (e *Engine) withdrawPrompt() string {
	min, max := e.deps.Withdraw.Bounds()
	return fmt.Sprintf("💸 Send: <amount> <mpesaNumber>\nExample: 50 0712345678\n(min KSh %d, max KSh %d)", min, max)
}

// PaymentInfo is the global payment-instructions display string; admins
// replace it with `set payment`.
type PaymentInfo struct {
	mu   sync.Mutex
	info string
}

func NewPaymentInfo(info string) *PaymentInfo {
	return &PaymentInfo{info: info}
}

func (p *PaymentInfo) Get() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.info
}

func (p *PaymentInfo) Set(info string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.info = info
}
