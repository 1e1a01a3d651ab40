package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

func (s *Store) GetCredits(ctx context.Context, userID string) (int64, error) {
	var v int64
	err := s.db.QueryRowContext(ctx, `SELECT credits FROM users WHERE id=?`, userID).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, sql.ErrNoRows
		}
		return 0, fmt.Errorf("查询积分失败: %w", err)
	}
	return v, nil
}

// DebitCredits 在事务内按最新余额扣减积分并返回扣减后的余额。
// 余额不足时拒绝扣减（ErrInsufficientCredits），永远不会把余额扣成负数。
// 结算读取的余额必须是结算时刻的新值，不能复用鉴权阶段的快照。
func (s *Store) DebitCredits(ctx context.Context, userID string, amount int64) (int64, error) {
	if userID == "" {
		return 0, errors.New("user_id 不能为空")
	}
	if amount <= 0 {
		return 0, errors.New("扣减数额必须大于 0")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("开始事务失败: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var balance int64
	q := `SELECT credits FROM users WHERE id=?` + forUpdateClause(s.dialect)
	if err := tx.QueryRowContext(ctx, q, userID).Scan(&balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, sql.ErrNoRows
		}
		return 0, fmt.Errorf("查询积分失败: %w", err)
	}
	if balance < amount {
		return balance, ErrInsufficientCredits
	}
	if _, err := tx.ExecContext(ctx, `
UPDATE users
SET credits=credits-?
WHERE id=?
`, amount, userID); err != nil {
		return 0, fmt.Errorf("扣减积分失败: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("提交事务失败: %w", err)
	}
	return balance - amount, nil
}

// AddCredits 为账号增加积分（运营赠送等场景），返回增加后的余额。
func (s *Store) AddCredits(ctx context.Context, userID string, amount int64) (int64, error) {
	if userID == "" {
		return 0, errors.New("user_id 不能为空")
	}
	if amount <= 0 {
		return 0, errors.New("增加数额必须大于 0")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("开始事务失败: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var balance int64
	q := `SELECT credits FROM users WHERE id=?` + forUpdateClause(s.dialect)
	if err := tx.QueryRowContext(ctx, q, userID).Scan(&balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, sql.ErrNoRows
		}
		return 0, fmt.Errorf("查询积分失败: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
UPDATE users
SET credits=credits+?
WHERE id=?
`, amount, userID); err != nil {
		return 0, fmt.Errorf("增加积分失败: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("提交事务失败: %w", err)
	}
	return balance + amount, nil
}
