package model

// AutoMigrate対象（sqlite / 開発用）
func All() []any {
	return []any{
		&User{},
		&Product{},
		&Discount{},
		&Purchase{},
		&ReturnRequest{},
		&InventoryAdjustment{},
		&AuditLog{},
	}
}
