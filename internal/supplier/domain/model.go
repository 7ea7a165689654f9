package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Supplier struct {
	ID        snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name      string       `gorm:"not null" json:"name"`
	Email     string       `json:"email,omitempty"`
	Phone     string       `json:"phone,omitempty"`
	Address   string       `json:"address,omitempty"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null" json:"updated_at"`
}

func (Supplier) TableName() string { return "suppliers" }
