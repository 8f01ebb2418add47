package models

import (
	"time"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

const (
	CategoryLaptop    = "LAPTOP"
	CategorySparepart = "SPAREPART"
)

// Order.Status is the single source of truth for "is this a cart".
const (
	OrderStatusDraft  = "DRAFT"
	OrderStatusPlaced = "PLACED"
)

const (
	ShippingPacked    = "DIKEMAS"
	ShippingShipped   = "DIKIRIM"
	ShippingCompleted = "SELESAI"
)

const (
	PaymentPending   = "PENDING"
	PaymentCompleted = "COMPLETED"
)

const (
	NegotiationPending  = "PENDING"
	NegotiationAccepted = "ACCEPTED"
	NegotiationRejected = "REJECTED"
)

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string `gorm:"not null"                 json:"name"`
	Email        string `gorm:"unique;not null"          json:"email"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null;default:USER"    json:"role"`
	PhoneNumber  string `json:"phone_number"`
	Address      string `json:"address"`
	Image        string `json:"image"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"          json:"id"`
	Token     string `gorm:"unique;not null"     json:"token"`
	UserID    uint   `gorm:"index;not null"      json:"user_id"`
	Role      string `gorm:"not null"            json:"role"`
	ExpiresAt int64  `gorm:"not null"            json:"expires_at"`
	Revoked   bool   `gorm:"default:false"       json:"revoked"`
}

// Price is stored as decimal text and parsed when a line is captured.
// Stock == nil means the stock of this product is not tracked and it cannot
// be bought through the cart.
type Product struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"not null"                 json:"name"`
	Description string `json:"description"`
	Price       string `gorm:"not null"                 json:"price"`
	Stock       *int   `json:"stock"`
	Category    string `gorm:"not null;index"           json:"category"`
	Image       string `json:"image"`
}

type Negotiation struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	ProductID  uint      `gorm:"index;not null"            json:"product_id"`
	UserID     uint      `gorm:"index;not null"            json:"user_id"`
	OfferPrice float64   `gorm:"not null"                  json:"offer_price"`
	Status     string    `gorm:"not null;default:PENDING"  json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

type Order struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         uint      `gorm:"index;not null"           json:"user_id"`
	Status         string    `gorm:"not null;index"           json:"status"`
	ShippingStatus string    `gorm:"not null"                 json:"shipping_status"`
	PaymentStatus  string    `gorm:"not null"                 json:"payment_status"`
	TrackingNumber *string   `json:"tracking_number,omitempty"`
	TotalPrice     float64   `json:"total_price"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Price is the unit price captured when the line was added, so later catalog
// or negotiation changes never rewrite history. IsDeleted hides paid lines
// from cart views while keeping them for order history.
type OrderItem struct {
	ID        uint    `gorm:"primaryKey;autoIncrement"    json:"id"`
	OrderID   uint    `gorm:"index;not null"              json:"order_id"`
	ProductID uint    `gorm:"not null"                    json:"product_id"`
	Quantity  int     `gorm:"not null;check:quantity>0"   json:"quantity"`
	Price     float64 `gorm:"not null"                    json:"price"`
	IsDeleted bool    `gorm:"default:false"               json:"is_deleted"`
}
