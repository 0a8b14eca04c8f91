package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// 一意制約違反（ユーザー名重複、同じ商品×必要数量の割引など）
	ErrDuplicate = errors.New("duplicate")
)
