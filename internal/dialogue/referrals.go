package dialogue

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/GK-FY/buybot/internal/order"
	"github.com/GK-FY/buybot/internal/referral"
	"github.com/GK-FY/buybot/internal/session"
)

func (e *Engine) handleReferralsMenu(sender string, sess session.Session, text string) []Message {
	switch text {
	case "1":
		return e.reply(sender, e.earningsSummary(sender))
	case "2":
		rec, err := e.deps.Referrals.Get(sender)
		min, _ := e.deps.Withdraw.Bounds()
		if err != nil || rec.Earnings < min {
			return e.reply(sender, fmt.Sprintf("❌ You need at least KSh %d in earnings to withdraw. Share your referral code (option 3) to earn more!", min))
		}
		if !rec.PINSet {
			return e.reply(sender, "❌ Set a withdrawal PIN first (option 4).")
		}
		sess.Enter(session.StepWithdrawAmount)
		e.deps.Sessions.Put(sender, sess)
		return e.reply(sender, e.withdrawPrompt())
	case "3":
		rec, err := e.deps.Referrals.Ensure(sender)
		if err != nil {
			return e.reply(sender, "❌ Something went wrong, please try again.")
		}
		return e.reply(sender, fmt.Sprintf(
			"🔗 Your referral code is *%s*.\nAsk friends to send me: ref %s\nYou earn a bonus every time a referred friend's order is completed.",
			rec.Code, rec.Code))
	case "4":
		sess.Enter(session.StepSetPIN)
		e.deps.Sessions.Put(sender, sess)
		return e.reply(sender, setPINPrompt)
	case "5":
		return e.reply(sender, e.referredList(sender))
	}
	// Anything else re-prompts without moving the session.
	return e.reply(sender, referralsMenu)
}

func (e *Engine) earningsSummary(sender string) string {
	rec, err := e.deps.Referrals.Get(sender)
	if err != nil {
		return "📊 You have no referral earnings yet. Share your referral code (option 3) to start earning!"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📊 *Earnings*: KSh %d\n👥 Referred friends: %d\n", rec.Earnings, len(rec.Referred))
	if len(rec.Withdrawals) == 0 {
		b.WriteString("No withdrawals yet.")
	} else {
		b.WriteString("\n*Withdrawals:*\n")
		for _, w := range rec.Withdrawals {
			fmt.Fprintf(&b, "%s — KSh %d to %s — %s", w.ID, w.Amount, w.MpesaNumber, w.Status)
			if w.Remarks != "" {
				fmt.Fprintf(&b, " (%s)", w.Remarks)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (e *Engine) referredList(sender string) string {
	rec, err := e.deps.Referrals.Get(sender)
	if err != nil || len(rec.Referred) == 0 {
		return "👥 You haven't referred anyone yet. Share your referral code (option 3)!"
	}
	var b strings.Builder
	b.WriteString("👥 *Your referred friends:*\n")
	for i, user := range rec.Referred {
		orders, _ := e.deps.Orders.ByCustomer(user)
		cancelled := 0
		for _, o := range orders {
			if o.Status == order.StatusCancelled {
				cancelled++
			}
		}
		fmt.Fprintf(&b, "%d. %s — %d order(s), %d cancelled\n", i+1, maskID(user), len(orders), cancelled)
	}
	return b.String()
}

func (e *Engine) handleWithdrawAmount(sender string, sess session.Session, text string) []Message {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return e.reply(sender, "❌ Send the amount and your M-Pesa number together, e.g. 50 0712345678")
	}
	amount, convErr := strconv.ParseInt(fields[0], 10, 64)
	if convErr != nil || amount <= 0 {
		return e.reply(sender, "❌ The amount must be a positive number.")
	}
	if !validPhone(fields[1]) {
		return e.reply(sender, "❌ That doesn't look like a Safaricom number. Use 07XXXXXXXX or 01XXXXXXXX.")
	}
	rec, err := e.deps.Referrals.Get(sender)
	if err != nil {
		return e.reply(sender, "❌ You have no referral earnings yet.")
	}
	if amount > rec.Earnings {
		return e.reply(sender, fmt.Sprintf("❌ You only have KSh %d available.", rec.Earnings))
	}
	min, max := e.deps.Withdraw.Bounds()
	if amount > max {
		return e.reply(sender, fmt.Sprintf("❌ The maximum withdrawal is KSh %d.", max))
	}
	if amount < min {
		return e.reply(sender, fmt.Sprintf("❌ The minimum withdrawal is KSh %d.", min))
	}
	sess.WithdrawAmount = amount
	sess.WithdrawNumber = fields[1]
	sess.Enter(session.StepWithdrawPIN)
	e.deps.Sessions.Put(sender, sess)
	return e.reply(sender, withdrawPINPrompt)
}

func (e *Engine) handleWithdrawPIN(sender string, sess session.Session, text string) []Message {
	rec, err := e.deps.Referrals.Get(sender)
	if err != nil || text != rec.PIN {
		// A wrong PIN cancels the whole withdrawal, it does not re-prompt.
		sess.WithdrawAmount = 0
		sess.WithdrawNumber = ""
		sess.Step = session.StepReferralsMenu
		sess.HasPrev = false
		e.deps.Sessions.Put(sender, sess)
		return e.reply(sender, "❌ Incorrect PIN. The withdrawal was cancelled.\n\n"+referralsMenu)
	}
	amount, number := sess.WithdrawAmount, sess.WithdrawNumber
	sess.WithdrawAmount = 0
	sess.WithdrawNumber = ""
	sess.Step = session.StepReferralsMenu
	sess.HasPrev = false
	e.deps.Sessions.Put(sender, sess)

	w, err := e.deps.Referrals.RequestWithdrawal(sender, amount, number)
	if err != nil {
		if err == referral.ErrInsufficientEarnings {
			return e.reply(sender, "❌ Your earnings are no longer enough for that amount.\n\n"+referralsMenu)
		}
		return e.reply(sender, "❌ Something went wrong, please try again.\n\n"+referralsMenu)
	}
	msgs := e.reply(sender, fmt.Sprintf(
		"✅ Withdrawal *%s* requested: KSh %d to %s. You will be paid once it is approved.\n\n%s",
		w.ID, w.Amount, w.MpesaNumber, referralsMenu))
	return append(msgs, e.notifyAdmins(fmt.Sprintf(
		"💸 Withdrawal request %s\nReferrer: %s (code %s)\nAmount: KSh %d to %s\n\nManage it with:\nwithdraw update %s %s APPROVED \"sent\"\nwithdraw update %s %s REJECTED \"<reason>\"",
		w.ID, sender, rec.Code, w.Amount, w.MpesaNumber, rec.Code, w.ID, rec.Code, w.ID))...)
}

func (e *Engine) handleSetPIN(sender string, sess session.Session, text string) []Message {
	if err := e.deps.Referrals.SetPIN(sender, text); err != nil {
		switch err {
		case referral.ErrBadPIN:
			return e.reply(sender, "❌ The PIN must be exactly 4 digits.")
		case referral.ErrWeakPIN:
			return e.reply(sender, "❌ That PIN is too easy to guess, pick another one.")
		}
		return e.reply(sender, "❌ Something went wrong, please try again.")
	}
	sess.Step = session.StepReferralsMenu
	sess.HasPrev = false
	e.deps.Sessions.Put(sender, sess)
	return e.reply(sender, "✅ Your withdrawal PIN is set.\n\n"+referralsMenu)
}
