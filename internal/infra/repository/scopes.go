package repository

import "gorm.io/gorm"

const (
	defaultLimit = 50
	maxLimit     = 200
)

// limit/offset（範囲外はデフォルトに寄せる）
func paginate(limit, offset int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if limit <= 0 || limit > maxLimit {
			limit = defaultLimit
		}
		if offset < 0 {
			offset = 0
		}
		return db.Limit(limit).Offset(offset)
	}
}

// 値があるときだけ col = ? を足す
func whereIf[T any](col string, v *T) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if v == nil {
			return db
		}
		return db.Where(col+" = ?", *v)
	}
}
