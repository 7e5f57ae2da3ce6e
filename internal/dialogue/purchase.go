package dialogue

import (
	"fmt"
	"strconv"

	"github.com/GK-FY/buybot/internal/session"
)

func (e *Engine) handleSubcat(sender string, sess session.Session, text string) []Message {
	subcats, err := e.deps.Catalog.Subcategories(sess.Family)
	if err != nil {
		return e.reply(sender, "❌ Nothing on sale in that category right now. Send 00 for the main menu.")
	}
	n, convErr := strconv.Atoi(text)
	if convErr != nil || n < 1 || n > len(subcats) {
		return e.reply(sender, "❌ Pick one of the listed categories.\n\n"+e.subcatMenu(sess))
	}
	sess.Subcategory = subcats[n-1]
	if sess.Family == "sms" {
		sess.Enter(session.StepSMSBundle)
	} else {
		sess.Enter(session.StepDataBundle)
	}
	e.deps.Sessions.Put(sender, sess)
	return e.reply(sender, e.bundleMenu(sess))
}

func (e *Engine) handleBundle(sender string, sess session.Session, text string) []Message {
	id, convErr := strconv.Atoi(text)
	if convErr != nil {
		return e.reply(sender, "❌ Reply with the bundle number shown.\n\n"+e.bundleMenu(sess))
	}
	item, err := e.deps.Catalog.Get(sess.Family, sess.Subcategory, id)
	if err != nil {
		return e.reply(sender, "❌ There is no bundle with that number.\n\n"+e.bundleMenu(sess))
	}
	pkg := fmt.Sprintf("%s (%s %s, %s)", item.Name, sess.Subcategory, sess.Family, item.Validity)
	o, err := e.deps.Orders.Create(sender, pkg, item.Price)
	if err != nil {
		return e.reply(sender, "❌ Could not create your order, please try again.")
	}
	sess.PendingOrderID = o.OrderID
	sess.Enter(session.StepOrderRecipient)
	e.deps.Sessions.Put(sender, sess)
	return e.reply(sender, fmt.Sprintf("🛍 Order *%s*: %s — KSh %d.\n\n%s", o.OrderID, pkg, item.Price, recipientPrompt))
}

func (e *Engine) handleAirtime(sender string, sess session.Session, text string) []Message {
	amount, convErr := strconv.ParseInt(text, 10, 64)
	if convErr != nil || amount <= 0 {
		return e.reply(sender, "❌ Enter a positive amount in KSh, e.g. 50.")
	}
	pkg := fmt.Sprintf("Airtime worth KSh %d", amount)
	o, err := e.deps.Orders.Create(sender, pkg, amount)
	if err != nil {
		return e.reply(sender, "❌ Could not create your order, please try again.")
	}
	sess.PendingOrderID = o.OrderID
	sess.Enter(session.StepOrderRecipient)
	e.deps.Sessions.Put(sender, sess)
	return e.reply(sender, fmt.Sprintf("🛍 Order *%s*: %s.\n\n%s", o.OrderID, pkg, recipientPrompt))
}

func (e *Engine) handleRecipient(sender string, sess session.Session, text string) []Message {
	if !validPhone(text) {
		return e.reply(sender, "❌ That doesn't look like a Safaricom number. Use 07XXXXXXXX or 01XXXXXXXX.")
	}
	if err := e.deps.Orders.SetRecipient(sess.PendingOrderID, text); err != nil {
		sess.Reset()
		e.deps.Sessions.Put(sender, sess)
		return e.reply(sender, "❌ Your order expired, let's start over.\n\n"+e.mainMenu())
	}
	sess.Enter(session.StepOrderPayment)
	e.deps.Sessions.Put(sender, sess)
	return e.reply(sender, e.paymentPrompt())
}

func (e *Engine) handlePayment(sender string, sess session.Session, text string) []Message {
	if !validPhone(text) {
		return e.reply(sender, "❌ That doesn't look like a Safaricom number. Use 07XXXXXXXX or 01XXXXXXXX.")
	}
	orderID := sess.PendingOrderID
	if err := e.deps.Orders.SetPayment(orderID, text); err != nil {
		sess.Reset()
		e.deps.Sessions.Put(sender, sess)
		return e.reply(sender, "❌ Your order expired, let's start over.\n\n"+e.mainMenu())
	}
	o, err := e.deps.Orders.Get(orderID)
	if err != nil {
		sess.Reset()
		e.deps.Sessions.Put(sender, sess)
		return e.reply(sender, "❌ Your order expired, let's start over.\n\n"+e.mainMenu())
	}
	sess.Reset()
	e.deps.Sessions.Put(sender, sess)

	summary := fmt.Sprintf(`✅ *Order placed!*
🆔 %s
📦 %s
💰 KSh %d
📱 To: %s
💳 From: %s
Status: %s

Send *paid* once you have paid. Send *menu* to buy more.`,
		o.OrderID, o.Package, o.Amount, o.Recipient, o.Payment, o.Status)

	notice := fmt.Sprintf(`🔔 New order %s
Customer: %s
Package: %s
Amount: KSh %d
Recipient: %s
Paid from: %s

Manage it with:
update %s CONFIRMED "payment received"
update %s COMPLETED "delivered"
update %s CANCELLED "<reason>"`,
		o.OrderID, o.Customer, o.Package, o.Amount, o.Recipient, o.Payment,
		o.OrderID, o.OrderID, o.OrderID)

	return append(e.reply(sender, summary), e.notifyAdmins(notice)...)
}
