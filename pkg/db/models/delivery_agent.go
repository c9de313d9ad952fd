package models

import "time"

// DeliveryAgent holds the operational record for a delivery account. The
// row shares its key with users.uid and is deactivated rather than deleted.
type DeliveryAgent struct {
	UID                string    `gorm:"column:uid;type:text;primaryKey"`
	Name               string    `gorm:"column:name;not null"`
	Email              string    `gorm:"column:email;not null"`
	Phone              string    `gorm:"column:phone;not null;default:''"`
	IsActive           bool      `gorm:"column:is_active;not null;default:true"`
	DeliveriesThisWeek int       `gorm:"column:deliveries_this_week;not null;default:0"`
	RemainingToday     int       `gorm:"column:remaining_today;not null;default:0"`
	TotalAllotted      int       `gorm:"column:total_allotted;not null;default:0"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
