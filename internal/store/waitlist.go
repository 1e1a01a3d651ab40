package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type WaitlistEntry struct {
	ID        string
	Email     string
	Name      string
	JoinedAt  time.Time
	EmailSent bool
	IPAddress string
}

type WaitlistStats struct {
	Total         int64
	EmailsSent    int64
	EmailsPending int64
}

// AddWaitlistEntry 幂等登记候补邮箱：已存在时返回原条目且 isNew=false。
func (s *Store) AddWaitlistEntry(ctx context.Context, email string, name string, ipAddress string) (WaitlistEntry, bool, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return WaitlistEntry{}, false, errors.New("email 不能为空")
	}

	if e, err := s.GetWaitlistEntry(ctx, email); err == nil {
		return e, false, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return WaitlistEntry{}, false, err
	}

	id := "WL-" + uuid.NewString()
	stmt := fmt.Sprintf(`
%s INTO waitlist(id, email, name, joined_at, email_sent, ip_address)
VALUES(?, ?, ?, CURRENT_TIMESTAMP, 0, ?)
`, insertIgnoreVerb(s.dialect))
	if _, err := s.db.ExecContext(ctx, stmt, id, email, name, ipAddress); err != nil {
		return WaitlistEntry{}, false, fmt.Errorf("写入候补名单失败: %w", err)
	}

	e, err := s.GetWaitlistEntry(ctx, email)
	if err != nil {
		return WaitlistEntry{}, false, err
	}
	// 并发登记同一邮箱时 INSERT 被忽略，以落库的 id 判定是否新增。
	return e, e.ID == id, nil
}

func (s *Store) GetWaitlistEntry(ctx context.Context, email string) (WaitlistEntry, error) {
	var e WaitlistEntry
	var sent int64
	err := s.db.QueryRowContext(ctx, `
SELECT id, email, name, joined_at, email_sent, ip_address
FROM waitlist
WHERE email=?
`, NormalizeEmail(email)).Scan(&e.ID, &e.Email, &e.Name, &e.JoinedAt, &sent, &e.IPAddress)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return WaitlistEntry{}, sql.ErrNoRows
		}
		return WaitlistEntry{}, fmt.Errorf("查询候补名单失败: %w", err)
	}
	e.EmailSent = sent != 0
	return e, nil
}

func (s *Store) MarkWaitlistEmailSent(ctx context.Context, email string, sent bool) error {
	v := 0
	if sent {
		v = 1
	}
	res, err := s.db.ExecContext(ctx, `
UPDATE waitlist
SET email_sent=?
WHERE email=?
`, v, NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("更新候补名单失败: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *Store) GetWaitlistStats(ctx context.Context) (WaitlistStats, error) {
	var st WaitlistStats
	err := s.db.QueryRowContext(ctx, `
SELECT COUNT(1), COALESCE(SUM(email_sent), 0)
FROM waitlist
`).Scan(&st.Total, &st.EmailsSent)
	if err != nil {
		return WaitlistStats{}, fmt.Errorf("统计候补名单失败: %w", err)
	}
	st.EmailsPending = st.Total - st.EmailsSent
	return st, nil
}
