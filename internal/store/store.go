package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Store struct {
	db      *sql.DB
	dialect Dialect
}

func New(db *sql.DB) *Store {
	return &Store{
		db:      db,
		dialect: DialectSQLite,
	}
}

func (s *Store) SetDialect(d Dialect) {
	if strings.TrimSpace(string(d)) == "" {
		return
	}
	s.dialect = d
}

type User struct {
	ID        string
	Email     string
	Credits   int64
	CreatedAt time.Time
	LastLogin time.Time
}

// NormalizeEmail 统一邮箱匹配口径：去空格并转小写。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateOrGetUserByEmail 按邮箱幂等登记账号：已存在时仅刷新 last_login 并返回原账号，
// 不存在时以初始积分创建。同一邮箱（大小写不敏感）永远只对应一个账号。
func (s *Store) CreateOrGetUserByEmail(ctx context.Context, email string, initialCredits int64) (User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return User{}, errors.New("email 不能为空")
	}
	if initialCredits < 0 {
		return User{}, errors.New("初始积分不能为负数")
	}

	u, err := s.GetUserByEmail(ctx, email)
	if err == nil {
		if _, err := s.db.ExecContext(ctx, `
UPDATE users
SET last_login=CURRENT_TIMESTAMP
WHERE id=?
`, u.ID); err != nil {
			return User{}, fmt.Errorf("刷新 last_login 失败: %w", err)
		}
		u.LastLogin = time.Now().UTC()
		return u, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return User{}, err
	}

	id := uuid.NewString()
	if _, err := s.db.ExecContext(ctx, `
INSERT INTO users(id, email, credits, created_at, last_login)
VALUES(?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
`, id, email, initialCredits); err != nil {
		// 并发注册同一邮箱时唯一索引兜底：回读已落库的账号。
		if u2, err2 := s.GetUserByEmail(ctx, email); err2 == nil {
			return u2, nil
		}
		return User{}, fmt.Errorf("创建账号失败: %w", err)
	}
	return s.GetUserByID(ctx, id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `
SELECT id, email, credits, created_at, last_login
FROM users
WHERE email=?
`, NormalizeEmail(email)).Scan(&u.ID, &u.Email, &u.Credits, &u.CreatedAt, &u.LastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, sql.ErrNoRows
		}
		return User{}, fmt.Errorf("查询账号失败: %w", err)
	}
	return u, nil
}

func (s *Store) GetUserByID(ctx context.Context, userID string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `
SELECT id, email, credits, created_at, last_login
FROM users
WHERE id=?
`, userID).Scan(&u.ID, &u.Email, &u.Credits, &u.CreatedAt, &u.LastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, sql.ErrNoRows
		}
		return User{}, fmt.Errorf("查询账号失败: %w", err)
	}
	return u, nil
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("统计账号失败: %w", err)
	}
	return n, nil
}
