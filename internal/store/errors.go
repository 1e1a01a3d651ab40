package store

import "errors"

var (
	// ErrInsufficientCredits 表示扣减时余额不足；余额永远不会被扣成负数。
	ErrInsufficientCredits = errors.New("积分不足")
)
