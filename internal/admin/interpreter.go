package admin

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/GK-FY/buybot/internal/catalog"
	"github.com/GK-FY/buybot/internal/dialogue"
	"github.com/GK-FY/buybot/internal/order"
	"github.com/GK-FY/buybot/internal/referral"
)

const usageText = `🛠 *Admin commands*
update <orderID> <STATUS> <remark...>
set payment <mpesaNumber> "<Name>"
set withdrawal <min> <max>
add data|sms <subcat> "<name>" <price> "<validity>"
remove data|sms <subcat> <id>
edit data|sms <subcat> <id> "<name>" <price> "<validity>"
referrals all
withdraw update <refCode> <withdrawalID> <STATUS> <remarks...>
withdraw reverse <refCode> <withdrawalID>`

// Deps are the shared stores the interpreter mutates.
type Deps struct {
	Catalog      *catalog.Store
	Orders       order.Ledger
	Referrals    referral.Ledger
	Withdraw     *referral.Settings
	Payment      *dialogue.PaymentInfo
	BonusPercent int64
}

// Interpreter executes the privileged single-message command language.
// Callers must gate it on the configured admin identities; it assumes the
// sender is privileged.
type Interpreter struct {
	deps     Deps
	commands map[string]command
}

type command struct {
	minArgs int
	usage   string
	run     func(sender string, args []string) []dialogue.Message
}

func New(deps Deps) *Interpreter {
	in := &Interpreter{deps: deps}
	in.commands = map[string]command{
		"update": {
			minArgs: 2,
			usage:   `Usage: update <orderID> <STATUS> <remark...>`,
			run:     in.runUpdate,
		},
		"set": {
			minArgs: 2,
			usage:   "Usage: set payment <mpesaNumber> \"<Name>\" | set withdrawal <min> <max>",
			run:     in.runSet,
		},
		"add": {
			minArgs: 4,
			usage:   "Usage: add data|sms <subcat> \"<name>\" <price> \"<validity>\"",
			run:     in.runAdd,
		},
		"remove": {
			minArgs: 3,
			usage:   "Usage: remove data|sms <subcat> <id>",
			run:     in.runRemove,
		},
		"edit": {
			minArgs: 5,
			usage:   "Usage: edit data|sms <subcat> <id> \"<name>\" <price> \"<validity>\"",
			run:     in.runEdit,
		},
		"referrals": {
			minArgs: 1,
			usage:   "Usage: referrals all",
			run:     in.runReferrals,
		},
		"withdraw": {
			minArgs: 3,
			usage:   "Usage: withdraw update <refCode> <withdrawalID> <STATUS> <remarks...> | withdraw reverse <refCode> <withdrawalID>",
			run:     in.runWithdraw,
		},
	}
	return in
}

// Handle runs one admin command and returns the confirmation plus any
// customer notifications. It never silently no-ops.
func (in *Interpreter) Handle(sender, text string) []dialogue.Message {
	tokens := Tokenize(strings.TrimSpace(text))
	if len(tokens) == 0 {
		return reply(sender, usageText)
	}
	verb := strings.ToLower(tokens[0])
	if verb == "help" {
		return reply(sender, usageText)
	}
	cmd, ok := in.commands[verb]
	if !ok {
		return reply(sender, "❌ Unknown command.\n\n"+usageText)
	}
	args := tokens[1:]
	if len(args) < cmd.minArgs {
		return reply(sender, "❌ "+cmd.usage)
	}
	return cmd.run(sender, args)
}

func (in *Interpreter) runUpdate(sender string, args []string) []dialogue.Message {
	orderID := args[0]
	status := strings.ToUpper(args[1])
	remark := strings.Join(args[2:], " ")

	o, err := in.deps.Orders.UpdateStatus(orderID, status, remark)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return reply(sender, fmt.Sprintf("❌ Order %s was not found.", orderID))
		}
		return reply(sender, fmt.Sprintf("❌ Could not update %s: %v", orderID, err))
	}

	msgs := reply(sender, fmt.Sprintf("✅ Order %s is now %s.", o.OrderID, o.Status))
	msgs = append(msgs, dialogue.Message{Recipient: o.Customer, Text: statusNotice(o)})

	if status == order.StatusCompleted {
		msgs = append(msgs, in.creditReferrer(sender, o)...)
	}
	return msgs
}

// creditReferrer pays the customer's referrer the configured percentage of
// the order amount, once per order.
func (in *Interpreter) creditReferrer(sender string, o order.Order) []dialogue.Message {
	referrer, ok := in.deps.Referrals.ReferrerOf(o.Customer)
	if !ok {
		return nil
	}
	bonus := o.Amount * in.deps.BonusPercent / 100
	if bonus <= 0 {
		return nil
	}
	first, err := in.deps.Orders.MarkBonusCredited(o.OrderID)
	if err != nil || !first {
		return nil
	}
	if err := in.deps.Referrals.Credit(referrer, bonus); err != nil {
		return reply(sender, fmt.Sprintf("⚠️ Could not credit referral bonus for %s: %v", o.OrderID, err))
	}
	return []dialogue.Message{{
		Recipient: referrer,
		Text:      fmt.Sprintf("🎉 You earned KSh %d! A friend you referred completed order %s.", bonus, o.OrderID),
	}}
}

func statusNotice(o order.Order) string {
	switch o.Status {
	case order.StatusConfirmed:
		return fmt.Sprintf("✅ Payment received! Your order %s (%s) is confirmed and being processed.", o.OrderID, o.Package)
	case order.StatusCompleted:
		return fmt.Sprintf("🎉 Your order %s (%s) is complete. Enjoy! Send *menu* to buy again.", o.OrderID, o.Package)
	case order.StatusCancelled:
		return fmt.Sprintf("🚫 Your order %s (%s) was cancelled.\nReason: %s", o.OrderID, o.Package, o.Remark)
	case order.StatusRefunded:
		return fmt.Sprintf("💵 Your order %s (%s) was refunded.\nNote: %s", o.OrderID, o.Package, o.Remark)
	}
	return fmt.Sprintf("ℹ️ Update on your order %s (%s): %s.\n%s", o.OrderID, o.Package, o.Status, o.Remark)
}

func (in *Interpreter) runSet(sender string, args []string) []dialogue.Message {
	switch strings.ToLower(args[0]) {
	case "payment":
		if len(args) < 3 {
			return reply(sender, `❌ Usage: set payment <mpesaNumber> "<Name>"`)
		}
		in.deps.Payment.Set(fmt.Sprintf("%s (%s)", args[1], args[2]))
		return reply(sender, fmt.Sprintf("✅ Payment info is now: %s (%s)", args[1], args[2]))
	case "withdrawal":
		if len(args) < 3 {
			return reply(sender, "❌ Usage: set withdrawal <min> <max>")
		}
		min, errMin := strconv.ParseInt(args[1], 10, 64)
		max, errMax := strconv.ParseInt(args[2], 10, 64)
		if errMin != nil || errMax != nil {
			return reply(sender, "❌ Both bounds must be numbers.")
		}
		if err := in.deps.Withdraw.SetBounds(min, max); err != nil {
			return reply(sender, "❌ Bounds must satisfy 0 < min < max.")
		}
		return reply(sender, fmt.Sprintf("✅ Withdrawal bounds are now KSh %d – KSh %d.", min, max))
	}
	return reply(sender, "❌ Usage: set payment <mpesaNumber> \"<Name>\" | set withdrawal <min> <max>")
}

func (in *Interpreter) runAdd(sender string, args []string) []dialogue.Message {
	fam, subcat, name := strings.ToLower(args[0]), args[1], args[2]
	price, err := strconv.ParseInt(args[3], 10, 64)
	if err != nil || price < 0 {
		return reply(sender, fmt.Sprintf("❌ Price %q must be a non-negative number.", args[3]))
	}
	validity := ""
	if len(args) > 4 {
		validity = args[4]
	}
	item, err := in.deps.Catalog.Add(fam, subcat, name, price, validity)
	if err != nil {
		return reply(sender, catalogError(fam, subcat, err))
	}
	return reply(sender, fmt.Sprintf("✅ Added %s %s item %d: %s — KSh %d (%s)", fam, subcat, item.ID, item.Name, item.Price, item.Validity))
}

func (in *Interpreter) runRemove(sender string, args []string) []dialogue.Message {
	fam, subcat := strings.ToLower(args[0]), args[1]
	id, err := strconv.Atoi(args[2])
	if err != nil {
		return reply(sender, fmt.Sprintf("❌ Item id %q must be a number.", args[2]))
	}
	if err := in.deps.Catalog.Remove(fam, subcat, id); err != nil {
		return reply(sender, catalogError(fam, subcat, err))
	}
	return reply(sender, fmt.Sprintf("✅ Removed %s %s item %d.", fam, subcat, id))
}

func (in *Interpreter) runEdit(sender string, args []string) []dialogue.Message {
	fam, subcat := strings.ToLower(args[0]), args[1]
	id, err := strconv.Atoi(args[2])
	if err != nil {
		return reply(sender, fmt.Sprintf("❌ Item id %q must be a number.", args[2]))
	}
	name := args[3]
	price, err := strconv.ParseInt(args[4], 10, 64)
	if err != nil || price < 0 {
		return reply(sender, fmt.Sprintf("❌ Price %q must be a non-negative number.", args[4]))
	}
	validity := ""
	if len(args) > 5 {
		validity = args[5]
	}
	if err := in.deps.Catalog.Edit(fam, subcat, id, name, price, validity); err != nil {
		return reply(sender, catalogError(fam, subcat, err))
	}
	return reply(sender, fmt.Sprintf("✅ Updated %s %s item %d: %s — KSh %d (%s)", fam, subcat, id, name, price, validity))
}

func catalogError(fam, subcat string, err error) string {
	switch {
	case errors.Is(err, catalog.ErrUnknownFamily):
		return fmt.Sprintf("❌ Unknown product family %q (use data or sms).", fam)
	case errors.Is(err, catalog.ErrUnknownSubcategory):
		return fmt.Sprintf("❌ %s has no subcategory %q.", fam, subcat)
	case errors.Is(err, catalog.ErrItemNotFound):
		return fmt.Sprintf("❌ %s %s has no item with that id.", fam, subcat)
	}
	return fmt.Sprintf("❌ %v", err)
}

func (in *Interpreter) runReferrals(sender string, args []string) []dialogue.Message {
	if strings.ToLower(args[0]) != "all" {
		return reply(sender, "❌ Usage: referrals all")
	}
	records, err := in.deps.Referrals.All()
	if err != nil {
		return reply(sender, fmt.Sprintf("❌ Could not list referrals: %v", err))
	}
	min, max := in.deps.Withdraw.Bounds()
	var b strings.Builder
	fmt.Fprintf(&b, "📋 *Referrals* (withdrawal bounds KSh %d – KSh %d)\n", min, max)
	if len(records) == 0 {
		b.WriteString("No referral records yet.")
	}
	for _, r := range records {
		pending := 0
		for _, w := range r.Withdrawals {
			if w.Status == referral.WithdrawalPending {
				pending++
			}
		}
		fmt.Fprintf(&b, "%s — owner %s — %d referred — KSh %d — %d withdrawal(s), %d pending\n",
			r.Code, r.Owner, len(r.Referred), r.Earnings, len(r.Withdrawals), pending)
	}
	return reply(sender, b.String())
}

func (in *Interpreter) runWithdraw(sender string, args []string) []dialogue.Message {
	sub := strings.ToLower(args[0])
	switch sub {
	case "update":
		if len(args) < 4 {
			return reply(sender, "❌ Usage: withdraw update <refCode> <withdrawalID> <STATUS> <remarks...>")
		}
		code, wid := strings.ToUpper(args[1]), args[2]
		status := strings.ToUpper(args[3])
		remarks := strings.Join(args[4:], " ")
		rec, w, err := in.deps.Referrals.UpdateWithdrawal(code, wid, status, remarks)
		if err != nil {
			return withdrawError(sender, code, wid, err)
		}
		msgs := reply(sender, fmt.Sprintf("✅ Withdrawal %s for %s is now %s.", w.ID, rec.Code, w.Status))
		text := fmt.Sprintf("ℹ️ Update on your withdrawal %s (KSh %d to %s): %s.", w.ID, w.Amount, w.MpesaNumber, w.Status)
		if remarks != "" {
			text += "\nRemarks: " + remarks
		}
		return append(msgs, dialogue.Message{Recipient: rec.Owner, Text: text})
	case "reverse":
		code, wid := strings.ToUpper(args[1]), args[2]
		rec, w, err := in.deps.Referrals.ReverseWithdrawal(code, wid)
		if err != nil {
			return withdrawError(sender, code, wid, err)
		}
		msgs := reply(sender, fmt.Sprintf("✅ Withdrawal %s reversed; KSh %d returned to %s (balance KSh %d).", w.ID, w.Amount, rec.Code, rec.Earnings))
		return append(msgs, dialogue.Message{
			Recipient: rec.Owner,
			Text:      fmt.Sprintf("💵 Your withdrawal %s was reversed and KSh %d returned to your earnings.", w.ID, w.Amount),
		})
	}
	return reply(sender, "❌ Usage: withdraw update <refCode> <withdrawalID> <STATUS> <remarks...> | withdraw reverse <refCode> <withdrawalID>")
}

func withdrawError(sender, code, wid string, err error) []dialogue.Message {
	switch {
	case errors.Is(err, referral.ErrCodeNotFound):
		return reply(sender, fmt.Sprintf("❌ Referral code %s was not found.", code))
	case errors.Is(err, referral.ErrWithdrawalNotFound):
		return reply(sender, fmt.Sprintf("❌ %s has no withdrawal %s.", code, wid))
	}
	return reply(sender, fmt.Sprintf("❌ %v", err))
}

func reply(recipient, text string) []dialogue.Message {
	return []dialogue.Message{{Recipient: recipient, Text: text}}
}
