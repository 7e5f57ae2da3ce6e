package session

import "testing"

func TestEnterRemembersPrevious(t *testing.T) {
	var s Session
	s.Enter(StepDataSubcat)
	s.Enter(StepDataBundle)

	if s.Step != StepDataBundle {
		t.Errorf("Step = %v, want %v", s.Step, StepDataBundle)
	}
	if !s.HasPrev || s.Prev != StepDataSubcat {
		t.Errorf("Prev = %v (HasPrev=%v), want %v", s.Prev, s.HasPrev, StepDataSubcat)
	}
}

func TestResetClearsEverything(t *testing.T) {
	s := Session{
		Step:           StepWithdrawPIN,
		Prev:           StepWithdrawAmount,
		HasPrev:        true,
		Family:         "data",
		Subcategory:    "weekly",
		PendingOrderID: "FY'S-123456",
		WithdrawAmount: 500,
		WithdrawNumber: "0712345678",
	}
	s.Reset()
	if s != (Session{}) {
		t.Errorf("after Reset: %+v", s)
	}
}

func TestStoreDefaultsToMainMenu(t *testing.T) {
	st := NewStore()
	s := st.Get("user-1")
	if s.Step != StepMain || s.HasPrev {
		t.Errorf("fresh session = %+v", s)
	}
}

func TestStorePutGetRoundTrip(t *testing.T) {
	st := NewStore()
	s := st.Get("user-1")
	s.Enter(StepReferralsMenu)
	st.Put("user-1", s)

	got := st.Get("user-1")
	if got.Step != StepReferralsMenu {
		t.Errorf("Step = %v, want %v", got.Step, StepReferralsMenu)
	}

	// Mutating the returned copy must not touch the stored session.
	got.Step = StepSetPIN
	if again := st.Get("user-1"); again.Step != StepReferralsMenu {
		t.Errorf("stored session mutated: %v", again.Step)
	}
}

func TestStepString(t *testing.T) {
	if got := StepWithdrawAmount.String(); got != "withdraw_request" {
		t.Errorf("String() = %q", got)
	}
	if got := Step(99).String(); got != "unknown" {
		t.Errorf("String() = %q", got)
	}
}
