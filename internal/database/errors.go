package database

import "errors"

// 存储层哨兵错误，服务层用 errors.Is 判定
var (
	ErrNotFound          = errors.New("document not found")
	ErrInsufficientCoins = errors.New("insufficient coins")
)
