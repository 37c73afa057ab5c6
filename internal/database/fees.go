package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

const selectFees = `
	SELECT f.fee_id, f.student_id, s.name, f.total_fee, f.paid_fee, f.due_fee, f.last_payment_date
	FROM fees f
	JOIN students s ON f.student_id = s.student_id
`

// CreateFee opens a fee account for a student. Due is derived from total and
// paid; an initial payment dates the account today.
func (r *Repository) CreateFee(ctx context.Context, f NewFee) (int64, error) {
	const op = "create fee"
	if err := checkID(op, "student", f.StudentID); err != nil {
		return 0, err
	}
	if f.Total < 0 || f.Paid < 0 {
		return 0, invalidf(op, "fee amounts must not be negative (total %d, paid %d)", f.Total, f.Paid)
	}

	var paidOn Date
	if f.Paid > 0 {
		paidOn = r.today()
	}

	var id int64
	err := r.withConn(ctx, op, func(conn *sql.Conn) error {
		var err error
		id, err = insert(ctx, conn, `
			INSERT INTO fees (student_id, total_fee, paid_fee, due_fee, last_payment_date)
			VALUES (?, ?, ?, ?, ?)
		`, f.StudentID, f.Total, f.Paid, f.Total-f.Paid, paidOn)
		if err != nil {
			return fmt.Errorf("failed to create fee: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Debug().Int64("fee_id", id).Int64("student_id", f.StudentID).Msg("Fee created")
	return id, nil
}

// GetFee returns one fee row.
func (r *Repository) GetFee(ctx context.Context, feeID int64) (*Fee, error) {
	const op = "get fee"
	if err := checkID(op, "fee", feeID); err != nil {
		return nil, err
	}

	var fee *Fee
	err := r.withConn(ctx, op, func(conn *sql.Conn) error {
		var err error
		fee, err = getFee(ctx, conn, op, feeID)
		return err
	})
	return fee, err
}

// ListFees returns every fee row with the student's name, ordered by id.
func (r *Repository) ListFees(ctx context.Context) ([]Fee, error) {
	var fees []Fee
	err := r.withConn(ctx, "list fees", func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, selectFees+" ORDER BY f.fee_id")
		if err != nil {
			return fmt.Errorf("failed to list fees: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			fee, err := scanFee(rows)
			if err != nil {
				return err
			}
			fees = append(fees, *fee)
		}
		return rows.Err()
	})
	return fees, err
}

// RecordPayment adds amount to a fee's paid total and recomputes due.
// The arithmetic happens inside a single UPDATE, so concurrent payments on
// the same row serialize on the row lock and none is lost.
func (r *Repository) RecordPayment(ctx context.Context, feeID, amount int64) (*Fee, error) {
	const op = "record payment"
	if err := checkID(op, "fee", feeID); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, invalidf(op, "payment amount must be positive, got %d", amount)
	}

	paidOn := r.today()

	var fee *Fee
	err := r.transaction(ctx, op, func(tx *sql.Tx) error {
		// due_fee is assigned first: MySQL evaluates assignments left to
		// right, SQLite against the old row, and both then see the old paid_fee.
		result, err := tx.ExecContext(ctx, `
			UPDATE fees
			SET due_fee = COALESCE(total_fee, 0) - COALESCE(paid_fee, 0) - ?,
				paid_fee = COALESCE(paid_fee, 0) + ?,
				last_payment_date = ?
			WHERE fee_id = ?
		`, amount, amount, paidOn, feeID)
		if err != nil {
			return fmt.Errorf("failed to update fee: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to count updated fees: %w", err)
		}
		if n == 0 {
			return notFoundf(op, "fee %d does not exist", feeID)
		}

		fee, err = getFee(ctx, tx, op, feeID)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Debug().
		Int64("fee_id", feeID).
		Int64("amount", amount).
		Int64("paid", fee.Paid).
		Int64("due", fee.Due).
		Msg("Payment recorded")
	return fee, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func getFee(ctx context.Context, q execer, op string, feeID int64) (*Fee, error) {
	fee, err := scanFee(q.QueryRowContext(ctx, selectFees+" WHERE f.fee_id = ?", feeID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFoundf(op, "fee %d does not exist", feeID)
	}
	return fee, err
}

func scanFee(row rowScanner) (*Fee, error) {
	var f Fee
	var total, paid, due sql.NullInt64
	if err := row.Scan(&f.ID, &f.StudentID, &f.StudentName, &total, &paid, &due, &f.LastPaymentDate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan fee: %w", err)
	}
	f.Total = total.Int64
	f.Paid = paid.Int64
	f.Due = due.Int64
	return &f, nil
}
