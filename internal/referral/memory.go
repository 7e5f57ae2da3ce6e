package referral

import (
	"sort"
	"sync"
	"time"
)

// MemoryLedger keeps all referral records in process memory.
type MemoryLedger struct {
	mu         sync.Mutex
	records    map[string]*Record // keyed by owner
	byCode     map[string]string  // code -> owner
	referredBy map[string]string  // referred user -> owner
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		records:    make(map[string]*Record),
		byCode:     make(map[string]string),
		referredBy: make(map[string]string),
	}
}

func (l *MemoryLedger) Ensure(owner string) (Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return copyRecord(l.ensure(owner)), nil
}

func (l *MemoryLedger) ensure(owner string) *Record {
	if r, ok := l.records[owner]; ok {
		return r
	}
	code := NewCode()
	for {
		if _, taken := l.byCode[code]; !taken {
			break
		}
		code = NewCode()
	}
	r := &Record{Owner: owner, Code: code}
	l.records[owner] = r
	l.byCode[code] = owner
	return r
}

func (l *MemoryLedger) Get(owner string) (Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.records[owner]
	if !ok {
		return Record{}, ErrNotFound
	}
	return copyRecord(r), nil
}

func (l *MemoryLedger) ByCode(code string) (Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	owner, ok := l.byCode[code]
	if !ok {
		return Record{}, ErrCodeNotFound
	}
	return copyRecord(l.records[owner]), nil
}

func (l *MemoryLedger) RecordReferral(user, code string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	owner, ok := l.byCode[code]
	if !ok {
		return false, ErrCodeNotFound
	}
	if owner == user {
		return false, nil
	}
	if _, attributed := l.referredBy[user]; attributed {
		return false, nil
	}
	r := l.records[owner]
	r.Referred = append(r.Referred, user)
	l.referredBy[user] = owner
	return true, nil
}

func (l *MemoryLedger) ReferrerOf(user string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	owner, ok := l.referredBy[user]
	return owner, ok
}

func (l *MemoryLedger) SetPIN(owner, pin string) error {
	if err := ValidatePIN(pin); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	r := l.ensure(owner)
	r.PIN = pin
	r.PINSet = true
	return nil
}

func (l *MemoryLedger) Credit(owner string, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensure(owner).Earnings += amount
	return nil
}

func (l *MemoryLedger) RequestWithdrawal(owner string, amount int64, mpesaNumber string) (Withdrawal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.records[owner]
	if !ok {
		return Withdrawal{}, ErrNotFound
	}
	if amount > r.Earnings {
		return Withdrawal{}, ErrInsufficientEarnings
	}
	w := Withdrawal{
		ID:          NewWithdrawalID(),
		Amount:      amount,
		MpesaNumber: mpesaNumber,
		Status:      WithdrawalPending,
		Timestamp:   time.Now(),
	}
	r.Earnings -= amount
	r.Withdrawals = append(r.Withdrawals, w)
	return w, nil
}

func (l *MemoryLedger) UpdateWithdrawal(code, withdrawalID, status, remarks string) (Record, Withdrawal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	owner, ok := l.byCode[code]
	if !ok {
		return Record{}, Withdrawal{}, ErrCodeNotFound
	}
	r := l.records[owner]
	for i := range r.Withdrawals {
		if r.Withdrawals[i].ID == withdrawalID {
			r.Withdrawals[i].Status = status
			r.Withdrawals[i].Remarks = remarks
			return copyRecord(r), r.Withdrawals[i], nil
		}
	}
	return Record{}, Withdrawal{}, ErrWithdrawalNotFound
}

func (l *MemoryLedger) ReverseWithdrawal(code, withdrawalID string) (Record, Withdrawal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	owner, ok := l.byCode[code]
	if !ok {
		return Record{}, Withdrawal{}, ErrCodeNotFound
	}
	r := l.records[owner]
	for i := range r.Withdrawals {
		if r.Withdrawals[i].ID == withdrawalID {
			if r.Withdrawals[i].Status != WithdrawalReversed {
				r.Withdrawals[i].Status = WithdrawalReversed
				r.Earnings += r.Withdrawals[i].Amount
			}
			return copyRecord(r), r.Withdrawals[i], nil
		}
	}
	return Record{}, Withdrawal{}, ErrWithdrawalNotFound
}

func (l *MemoryLedger) All() ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, 0, len(l.records))
	for _, r := range l.records {
		out = append(out, copyRecord(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func copyRecord(r *Record) Record {
	cp := *r
	cp.Referred = append([]string(nil), r.Referred...)
	cp.Withdrawals = append([]Withdrawal(nil), r.Withdrawals...)
	return cp
}
