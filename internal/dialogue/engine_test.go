package dialogue

import (
	"strings"
	"testing"

	"github.com/GK-FY/buybot/internal/catalog"
	"github.com/GK-FY/buybot/internal/order"
	"github.com/GK-FY/buybot/internal/referral"
	"github.com/GK-FY/buybot/internal/session"
)

const (
	admin = "admin-1"
	user  = "user-1"
)

type fixture struct {
	engine    *Engine
	orders    *order.MemoryLedger
	referrals *referral.MemoryLedger
	sessions  *session.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cat := catalog.NewStore()
	cat.AddSubcategory("data", "weekly")
	cat.Add("data", "weekly", "1.5GB", 150, "7 days")
	cat.AddSubcategory("sms", "daily")
	cat.Add("sms", "daily", "200 SMS", 10, "24 hours")

	f := &fixture{
		orders:    order.NewMemoryLedger(),
		referrals: referral.NewMemoryLedger(),
		sessions:  session.NewStore(),
	}
	f.engine = New(Deps{
		Catalog:   cat,
		Orders:    f.orders,
		Referrals: f.referrals,
		Sessions:  f.sessions,
		Withdraw:  referral.NewSettings(20, 1000),
		Payment:   NewPaymentInfo("0701339573 (Camlus Okoth)"),
		AdminIDs:  []string{admin},
	})
	return f
}

// say sends one message and returns the reply texts per recipient.
func (f *fixture) say(t *testing.T, sender, text string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	for _, m := range f.engine.Handle(sender, text) {
		out[m.Recipient] += m.Text + "\n"
	}
	if out[sender] == "" {
		t.Fatalf("Handle(%q, %q) produced no reply to the sender", sender, text)
	}
	return out
}

func TestPurchaseFlow(t *testing.T) {
	f := newFixture(t)

	f.say(t, user, "menu")
	reply := f.say(t, user, "1")
	if !strings.Contains(reply[user], "weekly") {
		t.Fatalf("subcategory menu missing weekly: %q", reply[user])
	}
	reply = f.say(t, user, "1") // weekly
	if !strings.Contains(reply[user], "1.5GB") {
		t.Fatalf("bundle menu missing item: %q", reply[user])
	}
	reply = f.say(t, user, "1") // the 1.5GB bundle
	if !strings.Contains(reply[user], "FY'S-") {
		t.Fatalf("order confirmation missing id: %q", reply[user])
	}
	f.say(t, user, "0712345678") // recipient
	reply = f.say(t, user, "0798765432")

	if !strings.Contains(reply[user], "Order placed") {
		t.Fatalf("missing summary: %q", reply[user])
	}
	if reply[admin] == "" || !strings.Contains(reply[admin], "update FY'S-") {
		t.Fatalf("admin notification missing command hints: %q", reply[admin])
	}

	orders, _ := f.orders.ByCustomer(user)
	if len(orders) != 1 {
		t.Fatalf("got %d orders, want 1", len(orders))
	}
	o := orders[0]
	if o.Status != order.StatusPending || o.Amount != 150 ||
		o.Recipient != "0712345678" || o.Payment != "0798765432" {
		t.Errorf("order = %+v", o)
	}
}

func TestBadPhoneReprompts(t *testing.T) {
	f := newFixture(t)
	f.say(t, user, "menu")
	f.say(t, user, "1")
	f.say(t, user, "1")
	f.say(t, user, "1")

	reply := f.say(t, user, "0812345678") // not Safaricom
	if !strings.Contains(reply[user], "Safaricom") {
		t.Fatalf("bad phone not rejected: %q", reply[user])
	}
	if f.sessions.Get(user).Step != session.StepOrderRecipient {
		t.Errorf("step = %v, want order_recipient", f.sessions.Get(user).Step)
	}
	// 01-prefixed numbers are accepted
	f.say(t, user, "0112345678")
	if f.sessions.Get(user).Step != session.StepOrderPayment {
		t.Errorf("step = %v, want order_payment", f.sessions.Get(user).Step)
	}
}

func TestAirtimeFlow(t *testing.T) {
	f := newFixture(t)
	f.say(t, user, "menu")
	f.say(t, user, "3")
	reply := f.say(t, user, "abc")
	if !strings.Contains(reply[user], "positive amount") {
		t.Fatalf("bad amount not rejected: %q", reply[user])
	}
	f.say(t, user, "50")
	f.say(t, user, "0712345678")
	f.say(t, user, "0712345678")

	orders, _ := f.orders.ByCustomer(user)
	if len(orders) != 1 || orders[0].Amount != 50 {
		t.Fatalf("orders = %+v", orders)
	}
}

func TestWithdrawRejectedBelowMinimum(t *testing.T) {
	// Scenario: fresh user with no referral record tries to withdraw.
	f := newFixture(t)
	f.say(t, user, "menu")
	f.say(t, user, "4")
	reply := f.say(t, user, "2")

	if !strings.Contains(reply[user], "at least KSh 20") {
		t.Fatalf("expected minimum-withdrawal rejection, got %q", reply[user])
	}
	if rec, err := f.referrals.Get(user); err == nil && len(rec.Withdrawals) > 0 {
		t.Errorf("withdrawal was created: %+v", rec.Withdrawals)
	}
	if f.sessions.Get(user).Step != session.StepReferralsMenu {
		t.Errorf("step = %v, want my_referrals_menu", f.sessions.Get(user).Step)
	}
}

func TestWithdrawHappyPath(t *testing.T) {
	f := newFixture(t)
	f.referrals.Ensure(user)
	f.referrals.SetPIN(user, "2468")
	f.referrals.Credit(user, 100)

	f.say(t, user, "menu")
	f.say(t, user, "4")
	f.say(t, user, "2")
	f.say(t, user, "50 0712345678")
	reply := f.say(t, user, "2468")

	if !strings.Contains(reply[user], "Withdrawal") {
		t.Fatalf("missing confirmation: %q", reply[user])
	}
	if reply[admin] == "" || !strings.Contains(reply[admin], "withdraw update") {
		t.Fatalf("admin notification missing: %q", reply[admin])
	}

	rec, _ := f.referrals.Get(user)
	if len(rec.Withdrawals) != 1 {
		t.Fatalf("got %d withdrawals, want 1", len(rec.Withdrawals))
	}
	w := rec.Withdrawals[0]
	if w.Amount != 50 || w.Status != referral.WithdrawalPending {
		t.Errorf("withdrawal = %+v", w)
	}
	if rec.Earnings != 50 {
		t.Errorf("earnings = %d, want 50", rec.Earnings)
	}
}

func TestWithdrawValidationMessages(t *testing.T) {
	f := newFixture(t)
	f.referrals.Ensure(user)
	f.referrals.SetPIN(user, "2468")
	f.referrals.Credit(user, 5000)

	f.say(t, user, "menu")
	f.say(t, user, "4")
	f.say(t, user, "2")

	tests := []struct {
		input string
		want  string
	}{
		{"50", "together"},
		{"abc 0712345678", "positive number"},
		{"50 12345", "Safaricom"},
		{"2000 0712345678", "maximum withdrawal is KSh 1000"},
		{"5 0712345678", "minimum withdrawal is KSh 20"},
	}
	for _, tt := range tests {
		reply := f.say(t, user, tt.input)
		if !strings.Contains(reply[user], tt.want) {
			t.Errorf("input %q: reply %q does not mention %q", tt.input, reply[user], tt.want)
		}
		if f.sessions.Get(user).Step != session.StepWithdrawAmount {
			t.Errorf("input %q moved the session to %v", tt.input, f.sessions.Get(user).Step)
		}
	}
}

func TestWrongPINCancelsWithdrawal(t *testing.T) {
	f := newFixture(t)
	f.referrals.Ensure(user)
	f.referrals.SetPIN(user, "2468")
	f.referrals.Credit(user, 100)

	f.say(t, user, "menu")
	f.say(t, user, "4")
	f.say(t, user, "2")
	f.say(t, user, "50 0712345678")
	reply := f.say(t, user, "9999")

	if !strings.Contains(reply[user], "cancelled") {
		t.Fatalf("wrong PIN reply = %q", reply[user])
	}
	rec, _ := f.referrals.Get(user)
	if len(rec.Withdrawals) != 0 {
		t.Errorf("withdrawal persisted after wrong PIN: %+v", rec.Withdrawals)
	}
	if rec.Earnings != 100 {
		t.Errorf("earnings = %d, want 100", rec.Earnings)
	}
	if f.sessions.Get(user).Step != session.StepReferralsMenu {
		t.Errorf("step = %v, want my_referrals_menu", f.sessions.Get(user).Step)
	}
}

func TestSetPIN(t *testing.T) {
	f := newFixture(t)
	f.say(t, user, "menu")
	f.say(t, user, "4")
	f.say(t, user, "4")

	reply := f.say(t, user, "12")
	if !strings.Contains(reply[user], "4 digits") {
		t.Fatalf("short PIN reply = %q", reply[user])
	}
	reply = f.say(t, user, "1234")
	if !strings.Contains(reply[user], "easy to guess") {
		t.Fatalf("weak PIN reply = %q", reply[user])
	}
	f.say(t, user, "2468")

	rec, err := f.referrals.Get(user)
	if err != nil {
		t.Fatalf("record not created: %v", err)
	}
	if !rec.PINSet || rec.PIN != "2468" {
		t.Errorf("record = %+v", rec)
	}
	if rec.Code == "" {
		t.Errorf("record has no code")
	}
}

func TestReferralRedemption(t *testing.T) {
	f := newFixture(t)
	owner, _ := f.referrals.Ensure("owner-1")

	reply := f.say(t, user, "ref "+owner.Code)
	if !strings.Contains(reply[user], "Referral recorded") {
		t.Fatalf("redeem reply = %q", reply[user])
	}
	reply = f.say(t, user, "ref "+owner.Code)
	if !strings.Contains(reply[user], "already") {
		t.Fatalf("repeat redeem reply = %q", reply[user])
	}
	reply = f.say(t, user, "ref FY-NOPE42")
	if !strings.Contains(reply[user], "not found") {
		t.Fatalf("unknown code reply = %q", reply[user])
	}

	// Redemption mid-flow must not move the session.
	f.say(t, user, "menu")
	f.say(t, user, "4")
	f.say(t, user, "ref "+owner.Code)
	if f.sessions.Get(user).Step != session.StepReferralsMenu {
		t.Errorf("redeem moved session to %v", f.sessions.Get(user).Step)
	}
}

func TestReferredListMasksIdentifiers(t *testing.T) {
	f := newFixture(t)
	owner, _ := f.referrals.Ensure(user)
	f.referrals.RecordReferral("254712345678", owner.Code)

	f.say(t, user, "menu")
	f.say(t, user, "4")
	reply := f.say(t, user, "5")
	if strings.Contains(reply[user], "254712345678") {
		t.Fatalf("referred list leaks the full identifier: %q", reply[user])
	}
	if !strings.Contains(reply[user], "2547") {
		t.Fatalf("referred list missing masked identifier: %q", reply[user])
	}
}

func TestNavigationOverrides(t *testing.T) {
	f := newFixture(t)
	f.say(t, user, "menu")
	f.say(t, user, "4") // referrals menu, prev = main

	reply := f.say(t, user, "0")
	if !strings.Contains(reply[user], "Welcome") {
		t.Fatalf("0 did not pop to main: %q", reply[user])
	}

	f.say(t, user, "1") // data subcats
	f.say(t, user, "1") // bundle list
	reply = f.say(t, user, "00")
	if !strings.Contains(reply[user], "Welcome") {
		t.Fatalf("00 did not reset: %q", reply[user])
	}
	if f.sessions.Get(user).Step != session.StepMain {
		t.Errorf("step after 00 = %v, want main", f.sessions.Get(user).Step)
	}
}

func TestPaidConfirmsLatestPending(t *testing.T) {
	f := newFixture(t)
	reply := f.say(t, user, "paid")
	if !strings.Contains(reply[user], "no pending order") {
		t.Fatalf("paid with no order reply = %q", reply[user])
	}

	o, _ := f.orders.Create(user, "1.5GB (weekly data)", 150)
	reply = f.say(t, user, "paid")
	if !strings.Contains(reply[user], "CONFIRMED") {
		t.Fatalf("paid reply = %q", reply[user])
	}
	if reply[admin] == "" {
		t.Fatalf("admin was not notified")
	}
	got, _ := f.orders.Get(o.OrderID)
	if got.Status != order.StatusConfirmed {
		t.Errorf("status = %s, want CONFIRMED", got.Status)
	}
}

func TestFallbackNeverPanics(t *testing.T) {
	f := newFixture(t)
	for _, input := range []string{"hello", "???", "99", "ref", "update X Y"} {
		reply := f.say(t, user, input)
		if reply[user] == "" {
			t.Errorf("input %q produced no reply", input)
		}
	}
}
