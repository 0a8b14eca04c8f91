package usecase

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"inventory/internal/domain/model"
)

// 商品単位の排他。releaseは必ず呼ぶ。
type Locker interface {
	Acquire(ctx context.Context, keys ...string) (release func(), err error)
}

// 平文パスワードからハッシュへ。
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// 入力パスワードと保存したハッシュを比べる約束
type PasswordVerifier interface {
	Verify(plain string, hashed string) bool
}

// JWTを発行する約束
type AccessTokenIssuer interface {
	Issue(userID int64, role model.Role, tokenVersion int, now time.Time) (token string, expiresAt time.Time, err error)
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func productLockKey(productID int64) string {
	return "product:" + strconv.FormatInt(productID, 10)
}

// 監査ログ用のJSON文字列
func toJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
