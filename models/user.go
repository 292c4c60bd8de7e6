package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User 代表拍賣系統中的使用者
// 結標通知需要 Email，競標事件只會帶出 Username
type User struct {
	gorm.Model

	ID       uuid.UUID `gorm:"type:uuid;default:public.uuid_generate_v7();primaryKey;<-:create"`
	Username string    `gorm:"type:varchar(255);not null;<-:create"`
	Email    string    `gorm:"type:varchar(255);not null;default:''"`
}
