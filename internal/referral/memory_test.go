package referral

import (
	"errors"
	"testing"
)

func TestCodesAreDistinct(t *testing.T) {
	l := NewMemoryLedger()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		rec, err := l.Ensure(string(rune('a' + i%26)) + string(rune('0'+i/26)))
		if err != nil {
			t.Fatalf("Ensure() error = %v", err)
		}
		if seen[rec.Code] {
			t.Fatalf("Ensure() duplicated code %s", rec.Code)
		}
		seen[rec.Code] = true
	}
}

func TestEnsureIsIdempotent(t *testing.T) {
	l := NewMemoryLedger()
	first, _ := l.Ensure("user-1")
	second, _ := l.Ensure("user-1")
	if first.Code != second.Code {
		t.Errorf("Ensure() changed code: %s then %s", first.Code, second.Code)
	}
}

func TestRecordReferral(t *testing.T) {
	l := NewMemoryLedger()
	owner, _ := l.Ensure("owner")

	if _, err := l.RecordReferral("friend", "FY-NOPE42"); !errors.Is(err, ErrCodeNotFound) {
		t.Fatalf("RecordReferral() unknown code error = %v, want ErrCodeNotFound", err)
	}

	recorded, err := l.RecordReferral("friend", owner.Code)
	if err != nil || !recorded {
		t.Fatalf("RecordReferral() = %v, %v; want true, nil", recorded, err)
	}

	// Re-redemption by the same user is a no-op
	recorded, err = l.RecordReferral("friend", owner.Code)
	if err != nil || recorded {
		t.Fatalf("RecordReferral() repeat = %v, %v; want false, nil", recorded, err)
	}

	// Self-referral is a no-op
	recorded, err = l.RecordReferral("owner", owner.Code)
	if err != nil || recorded {
		t.Fatalf("RecordReferral() self = %v, %v; want false, nil", recorded, err)
	}

	rec, _ := l.Get("owner")
	if len(rec.Referred) != 1 || rec.Referred[0] != "friend" {
		t.Errorf("Referred = %v, want [friend]", rec.Referred)
	}

	if referrer, ok := l.ReferrerOf("friend"); !ok || referrer != "owner" {
		t.Errorf("ReferrerOf(friend) = %q, %v", referrer, ok)
	}
}

func TestValidatePIN(t *testing.T) {
	tests := []struct {
		pin     string
		wantErr error
	}{
		{"2468", nil},
		{"0001", nil},
		{"123", ErrBadPIN},
		{"12345", ErrBadPIN},
		{"12a4", ErrBadPIN},
		{"", ErrBadPIN},
		{"1234", ErrWeakPIN},
		{"0000", ErrWeakPIN},
	}
	for _, tt := range tests {
		t.Run(tt.pin, func(t *testing.T) {
			if err := ValidatePIN(tt.pin); !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidatePIN(%q) = %v, want %v", tt.pin, err, tt.wantErr)
			}
		})
	}
}

func TestRequestWithdrawalDebitsAtomically(t *testing.T) {
	l := NewMemoryLedger()
	l.Ensure("owner")
	l.Credit("owner", 100)

	if _, err := l.RequestWithdrawal("owner", 150, "0712345678"); !errors.Is(err, ErrInsufficientEarnings) {
		t.Fatalf("RequestWithdrawal() over balance error = %v, want ErrInsufficientEarnings", err)
	}
	rec, _ := l.Get("owner")
	if rec.Earnings != 100 {
		t.Fatalf("rejected request debited earnings: %d", rec.Earnings)
	}

	w, err := l.RequestWithdrawal("owner", 60, "0712345678")
	if err != nil {
		t.Fatalf("RequestWithdrawal() error = %v", err)
	}
	if w.Status != WithdrawalPending || w.Amount != 60 {
		t.Errorf("withdrawal = %+v", w)
	}
	rec, _ = l.Get("owner")
	if rec.Earnings != 40 {
		t.Errorf("earnings after debit = %d, want 40", rec.Earnings)
	}
	if rec.Earnings < 0 {
		t.Errorf("earnings went negative: %d", rec.Earnings)
	}
}

func TestUpdateWithdrawalDoesNotRecredit(t *testing.T) {
	l := NewMemoryLedger()
	rec, _ := l.Ensure("owner")
	l.Credit("owner", 100)
	w, _ := l.RequestWithdrawal("owner", 60, "0712345678")

	_, updated, err := l.UpdateWithdrawal(rec.Code, w.ID, WithdrawalRejected, "suspicious")
	if err != nil {
		t.Fatalf("UpdateWithdrawal() error = %v", err)
	}
	if updated.Status != WithdrawalRejected || updated.Remarks != "suspicious" {
		t.Errorf("withdrawal = %+v", updated)
	}

	// Rejection must not credit the amount back on its own.
	after, _ := l.Get("owner")
	if after.Earnings != 40 {
		t.Errorf("earnings after rejection = %d, want 40", after.Earnings)
	}

	if _, _, err := l.UpdateWithdrawal(rec.Code, "WD-000000", "APPROVED", ""); !errors.Is(err, ErrWithdrawalNotFound) {
		t.Errorf("UpdateWithdrawal() missing id error = %v, want ErrWithdrawalNotFound", err)
	}
	if _, _, err := l.UpdateWithdrawal("FY-NOPE42", w.ID, "APPROVED", ""); !errors.Is(err, ErrCodeNotFound) {
		t.Errorf("UpdateWithdrawal() missing code error = %v, want ErrCodeNotFound", err)
	}
}

func TestReverseWithdrawal(t *testing.T) {
	l := NewMemoryLedger()
	rec, _ := l.Ensure("owner")
	l.Credit("owner", 100)
	w, _ := l.RequestWithdrawal("owner", 60, "0712345678")

	after, reversed, err := l.ReverseWithdrawal(rec.Code, w.ID)
	if err != nil {
		t.Fatalf("ReverseWithdrawal() error = %v", err)
	}
	if reversed.Status != WithdrawalReversed {
		t.Errorf("status = %s, want REVERSED", reversed.Status)
	}
	if after.Earnings != 100 {
		t.Errorf("earnings after reverse = %d, want 100", after.Earnings)
	}

	// Reversing twice must not double-credit.
	after, _, err = l.ReverseWithdrawal(rec.Code, w.ID)
	if err != nil {
		t.Fatalf("ReverseWithdrawal() repeat error = %v", err)
	}
	if after.Earnings != 100 {
		t.Errorf("earnings after double reverse = %d, want 100", after.Earnings)
	}
}

func TestSettingsBounds(t *testing.T) {
	s := NewSettings(20, 1000)

	tests := []struct {
		name     string
		min, max int64
		wantErr  bool
	}{
		{"valid", 10, 500, false},
		{"zero min", 0, 500, true},
		{"negative min", -5, 500, true},
		{"min equals max", 100, 100, true},
		{"min above max", 200, 100, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.SetBounds(tt.min, tt.max)
			if (err != nil) != tt.wantErr {
				t.Errorf("SetBounds(%d, %d) error = %v, wantErr %v", tt.min, tt.max, err, tt.wantErr)
			}
		})
	}

	min, max := s.Bounds()
	if min != 10 || max != 500 {
		t.Errorf("Bounds() = %d, %d; want 10, 500", min, max)
	}
}
