package dialogue

import (
	"fmt"
	"strings"

	"github.com/GK-FY/buybot/internal/catalog"
	"github.com/GK-FY/buybot/internal/order"
	"github.com/GK-FY/buybot/internal/referral"
	"github.com/GK-FY/buybot/internal/session"
)

// Message is one outbound text addressed to a single recipient.
type Message struct {
	Recipient string
	Text      string
}

// Deps are the stores and settings the engine reads and writes.
type Deps struct {
	Catalog   *catalog.Store
	Orders    order.Ledger
	Referrals referral.Ledger
	Sessions  *session.Store
	Withdraw  *referral.Settings
	Payment   *PaymentInfo
	AdminIDs  []string
}

// Engine is the user-facing state machine: it interprets each inbound
// message against the sender's session and emits the replies.
type Engine struct {
	deps Deps
}

func New(deps Deps) *Engine {
	return &Engine{deps: deps}
}

// Handle processes one inbound message. It always returns at least one
// reply and never leaves the session in a half-written state.
func (e *Engine) Handle(sender, raw string) []Message {
	text := strings.TrimSpace(raw)
	lower := strings.ToLower(text)
	sess := e.deps.Sessions.Get(sender)

	// Global overrides run before any step logic.
	switch {
	case lower == "menu" || lower == "start" || text == "00":
		sess.Reset()
		e.deps.Sessions.Put(sender, sess)
		return e.reply(sender, e.mainMenu())
	case text == "0":
		if sess.HasPrev {
			prev := sess.Prev
			sess.Step = prev
			sess.HasPrev = false
		} else {
			sess.Reset()
		}
		e.deps.Sessions.Put(sender, sess)
		return e.reply(sender, e.promptFor(sess))
	case strings.HasPrefix(lower, "ref "):
		// Attribution works at any step and does not move the session.
		return e.reply(sender, e.redeemReferral(sender, strings.TrimSpace(text[4:])))
	case lower == "paid":
		return e.confirmPaid(sender)
	}

	switch sess.Step {
	case session.StepMain:
		return e.handleMain(sender, sess, text)
	case session.StepDataSubcat, session.StepSMSSubcat:
		return e.handleSubcat(sender, sess, text)
	case session.StepDataBundle, session.StepSMSBundle:
		return e.handleBundle(sender, sess, text)
	case session.StepAirtimeAmount:
		return e.handleAirtime(sender, sess, text)
	case session.StepOrderRecipient:
		return e.handleRecipient(sender, sess, text)
	case session.StepOrderPayment:
		return e.handlePayment(sender, sess, text)
	case session.StepReferralsMenu:
		return e.handleReferralsMenu(sender, sess, text)
	case session.StepWithdrawAmount:
		return e.handleWithdrawAmount(sender, sess, text)
	case session.StepWithdrawPIN:
		return e.handleWithdrawPIN(sender, sess, text)
	case session.StepSetPIN:
		return e.handleSetPIN(sender, sess, text)
	}

	return e.reply(sender, helpText)
}

func (e *Engine) handleMain(sender string, sess session.Session, text string) []Message {
	switch text {
	case "1":
		sess.Family = "data"
		sess.Enter(session.StepDataSubcat)
		e.deps.Sessions.Put(sender, sess)
		return e.reply(sender, e.subcatMenu(sess))
	case "2":
		sess.Family = "sms"
		sess.Enter(session.StepSMSSubcat)
		e.deps.Sessions.Put(sender, sess)
		return e.reply(sender, e.subcatMenu(sess))
	case "3":
		sess.Enter(session.StepAirtimeAmount)
		e.deps.Sessions.Put(sender, sess)
		return e.reply(sender, airtimePrompt)
	case "4":
		sess.Enter(session.StepReferralsMenu)
		e.deps.Sessions.Put(sender, sess)
		return e.reply(sender, referralsMenu)
	}
	return e.reply(sender, helpText+"\n\n"+e.mainMenu())
}

func (e *Engine) redeemReferral(sender, code string) string {
	if code == "" {
		return "❌ Usage: ref <code>"
	}
	recorded, err := e.deps.Referrals.RecordReferral(sender, strings.ToUpper(code))
	if err != nil {
		return fmt.Sprintf("❌ Referral code %s was not found.", strings.ToUpper(code))
	}
	if !recorded {
		// Self-referral or already attributed: a quiet no-op.
		return "ℹ️ That referral was already counted."
	}
	return "🎉 Referral recorded! Your friend will earn a bonus on your completed orders."
}

func (e *Engine) confirmPaid(sender string) []Message {
	o, err := e.deps.Orders.LatestPending(sender)
	if err != nil {
		return e.reply(sender, "❌ You have no pending order. Send *menu* to start shopping.")
	}
	updated, err := e.deps.Orders.UpdateStatus(o.OrderID, order.StatusConfirmed, "customer reported payment")
	if err != nil {
		return e.reply(sender, "❌ You have no pending order. Send *menu* to start shopping.")
	}
	msgs := e.reply(sender, fmt.Sprintf(
		"✅ Thanks! Order %s is now CONFIRMED. You will be notified once it is processed.", updated.OrderID))
	return append(msgs, e.notifyAdmins(fmt.Sprintf(
		"💰 Customer %s reports payment for %s (%s, KSh %d).\nWhen done, send: update %s COMPLETED \"delivered\"",
		updated.Customer, updated.OrderID, updated.Package, updated.Amount, updated.OrderID))...)
}

func (e *Engine) reply(recipient, text string) []Message {
	return []Message{{Recipient: recipient, Text: text}}
}

func (e *Engine) notifyAdmins(text string) []Message {
	msgs := make([]Message, 0, len(e.deps.AdminIDs))
	for _, id := range e.deps.AdminIDs {
		msgs = append(msgs, Message{Recipient: id, Text: text})
	}
	return msgs
}
