package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Client struct {
	ID        snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name      string       `gorm:"not null" json:"name"`
	Email     string       `gorm:"not null;uniqueIndex:ux_clients_email" json:"email"`
	Phone     string       `json:"phone,omitempty"`
	Address   string       `json:"address,omitempty"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null" json:"updated_at"`
}

func (Client) TableName() string { return "clients" }
