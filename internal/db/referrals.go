package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/GK-FY/buybot/internal/referral"
)

// ReferralLedger is the Postgres-backed referral.Ledger.
type ReferralLedger struct {
	db *DB
}

func NewReferralLedger(db *DB) *ReferralLedger {
	return &ReferralLedger{db: db}
}

func (l *ReferralLedger) Ensure(owner string) (referral.Record, error) {
	ctx := context.Background()
	for {
		_, err := l.db.pool.Exec(ctx,
			"INSERT INTO referrals (owner, code) VALUES ($1, $2) ON CONFLICT (owner) DO NOTHING",
			owner, referral.NewCode(),
		)
		if err != nil {
			// Retry on a code collision, fail on anything else
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				continue
			}
			return referral.Record{}, err
		}
		return l.Get(owner)
	}
}

func (l *ReferralLedger) Get(owner string) (referral.Record, error) {
	ctx := context.Background()
	var rec referral.Record
	var pin string
	err := l.db.pool.QueryRow(ctx,
		"SELECT owner, code, earnings, pin FROM referrals WHERE owner = $1", owner,
	).Scan(&rec.Owner, &rec.Code, &rec.Earnings, &pin)
	if err != nil {
		if err == pgx.ErrNoRows {
			return referral.Record{}, referral.ErrNotFound
		}
		return referral.Record{}, err
	}
	rec.PIN = pin
	rec.PINSet = pin != ""
	if rec.Referred, err = l.referredOf(ctx, owner); err != nil {
		return referral.Record{}, err
	}
	if rec.Withdrawals, err = l.withdrawalsOf(ctx, owner); err != nil {
		return referral.Record{}, err
	}
	return rec, nil
}

func (l *ReferralLedger) ByCode(code string) (referral.Record, error) {
	var owner string
	err := l.db.pool.QueryRow(context.Background(),
		"SELECT owner FROM referrals WHERE code = $1", code).Scan(&owner)
	if err != nil {
		if err == pgx.ErrNoRows {
			return referral.Record{}, referral.ErrCodeNotFound
		}
		return referral.Record{}, err
	}
	return l.Get(owner)
}

func (l *ReferralLedger) RecordReferral(user, code string) (bool, error) {
	ctx := context.Background()
	var owner string
	err := l.db.pool.QueryRow(ctx,
		"SELECT owner FROM referrals WHERE code = $1", code).Scan(&owner)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, referral.ErrCodeNotFound
		}
		return false, err
	}
	if owner == user {
		return false, nil
	}
	result, err := l.db.pool.Exec(ctx,
		"INSERT INTO referred_users (referred, owner) VALUES ($1, $2) ON CONFLICT (referred) DO NOTHING",
		user, owner,
	)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (l *ReferralLedger) ReferrerOf(user string) (string, bool) {
	var owner string
	err := l.db.pool.QueryRow(context.Background(),
		"SELECT owner FROM referred_users WHERE referred = $1", user).Scan(&owner)
	if err != nil {
		return "", false
	}
	return owner, true
}

func (l *ReferralLedger) SetPIN(owner, pin string) error {
	if err := referral.ValidatePIN(pin); err != nil {
		return err
	}
	if _, err := l.Ensure(owner); err != nil {
		return err
	}
	_, err := l.db.pool.Exec(context.Background(),
		"UPDATE referrals SET pin = $2 WHERE owner = $1", owner, pin)
	return err
}

func (l *ReferralLedger) Credit(owner string, amount int64) error {
	if _, err := l.Ensure(owner); err != nil {
		return err
	}
	_, err := l.db.pool.Exec(context.Background(),
		"UPDATE referrals SET earnings = earnings + $2 WHERE owner = $1", owner, amount)
	return err
}

func (l *ReferralLedger) RequestWithdrawal(owner string, amount int64, mpesaNumber string) (referral.Withdrawal, error) {
	ctx := context.Background()
	tx, err := l.db.pool.Begin(ctx)
	if err != nil {
		return referral.Withdrawal{}, err
	}
	defer tx.Rollback(ctx)

	// The debit and the guard run as one statement so the balance can
	// never go negative.
	result, err := tx.Exec(ctx,
		"UPDATE referrals SET earnings = earnings - $2 WHERE owner = $1 AND earnings >= $2",
		owner, amount,
	)
	if err != nil {
		return referral.Withdrawal{}, err
	}
	if result.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM referrals WHERE owner = $1)", owner).Scan(&exists); err != nil {
			return referral.Withdrawal{}, err
		}
		if !exists {
			return referral.Withdrawal{}, referral.ErrNotFound
		}
		return referral.Withdrawal{}, referral.ErrInsufficientEarnings
	}

	w := referral.Withdrawal{
		ID:          referral.NewWithdrawalID(),
		Amount:      amount,
		MpesaNumber: mpesaNumber,
		Status:      referral.WithdrawalPending,
		Timestamp:   time.Now(),
	}
	if _, err := tx.Exec(ctx,
		"INSERT INTO withdrawals (id, owner, amount, mpesa_number, status, created_at) VALUES ($1, $2, $3, $4, $5, $6)",
		w.ID, owner, w.Amount, w.MpesaNumber, w.Status, w.Timestamp,
	); err != nil {
		return referral.Withdrawal{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return referral.Withdrawal{}, err
	}
	return w, nil
}

func (l *ReferralLedger) UpdateWithdrawal(code, withdrawalID, status, remarks string) (referral.Record, referral.Withdrawal, error) {
	ctx := context.Background()
	rec, err := l.ByCode(code)
	if err != nil {
		return referral.Record{}, referral.Withdrawal{}, err
	}
	var w referral.Withdrawal
	err = l.db.pool.QueryRow(ctx,
		"UPDATE withdrawals SET status = $3, remarks = $4 WHERE id = $1 AND owner = $2 RETURNING id, amount, mpesa_number, status, created_at, remarks",
		withdrawalID, rec.Owner, status, remarks,
	).Scan(&w.ID, &w.Amount, &w.MpesaNumber, &w.Status, &w.Timestamp, &w.Remarks)
	if err != nil {
		if err == pgx.ErrNoRows {
			return referral.Record{}, referral.Withdrawal{}, referral.ErrWithdrawalNotFound
		}
		return referral.Record{}, referral.Withdrawal{}, err
	}
	return rec, w, nil
}

func (l *ReferralLedger) ReverseWithdrawal(code, withdrawalID string) (referral.Record, referral.Withdrawal, error) {
	ctx := context.Background()
	rec, err := l.ByCode(code)
	if err != nil {
		return referral.Record{}, referral.Withdrawal{}, err
	}

	tx, err := l.db.pool.Begin(ctx)
	if err != nil {
		return referral.Record{}, referral.Withdrawal{}, err
	}
	defer tx.Rollback(ctx)

	var w referral.Withdrawal
	err = tx.QueryRow(ctx,
		"UPDATE withdrawals SET status = $3 WHERE id = $1 AND owner = $2 AND status <> $3 RETURNING id, amount, mpesa_number, status, created_at, remarks",
		withdrawalID, rec.Owner, referral.WithdrawalReversed,
	).Scan(&w.ID, &w.Amount, &w.MpesaNumber, &w.Status, &w.Timestamp, &w.Remarks)
	if err != nil {
		if err == pgx.ErrNoRows {
			// Already reversed, or missing entirely
			for _, existing := range rec.Withdrawals {
				if existing.ID == withdrawalID {
					return rec, existing, nil
				}
			}
			return referral.Record{}, referral.Withdrawal{}, referral.ErrWithdrawalNotFound
		}
		return referral.Record{}, referral.Withdrawal{}, err
	}
	if _, err := tx.Exec(ctx,
		"UPDATE referrals SET earnings = earnings + $2 WHERE owner = $1", rec.Owner, w.Amount,
	); err != nil {
		return referral.Record{}, referral.Withdrawal{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return referral.Record{}, referral.Withdrawal{}, err
	}
	rec, err = l.ByCode(code)
	if err != nil {
		return referral.Record{}, referral.Withdrawal{}, err
	}
	return rec, w, nil
}

func (l *ReferralLedger) All() ([]referral.Record, error) {
	rows, err := l.db.pool.Query(context.Background(),
		"SELECT owner FROM referrals ORDER BY code")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var owners []string
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, err
		}
		owners = append(owners, owner)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	records := make([]referral.Record, 0, len(owners))
	for _, owner := range owners {
		rec, err := l.Get(owner)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (l *ReferralLedger) referredOf(ctx context.Context, owner string) ([]string, error) {
	rows, err := l.db.pool.Query(ctx,
		"SELECT referred FROM referred_users WHERE owner = $1 ORDER BY created_at", owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var referred []string
	for rows.Next() {
		var user string
		if err := rows.Scan(&user); err != nil {
			return nil, err
		}
		referred = append(referred, user)
	}
	return referred, rows.Err()
}

func (l *ReferralLedger) withdrawalsOf(ctx context.Context, owner string) ([]referral.Withdrawal, error) {
	rows, err := l.db.pool.Query(ctx,
		"SELECT id, amount, mpesa_number, status, created_at, remarks FROM withdrawals WHERE owner = $1 ORDER BY created_at", owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var withdrawals []referral.Withdrawal
	for rows.Next() {
		var w referral.Withdrawal
		if err := rows.Scan(&w.ID, &w.Amount, &w.MpesaNumber, &w.Status, &w.Timestamp, &w.Remarks); err != nil {
			return nil, err
		}
		withdrawals = append(withdrawals, w)
	}
	return withdrawals, rows.Err()
}
