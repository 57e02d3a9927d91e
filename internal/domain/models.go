package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"utok/internal/orderitems"
)

// Service is a tile on the home screen (Laundry, Drying, ...).
type Service struct {
	Name      string `db:"name" json:"name"`
	Icon      string `db:"icon" json:"icon"`
	Available bool   `db:"available" json:"available"`
	Position  int    `db:"position" json:"-"`
}

// Item is catalog reference data. The cart never owns it.
type Item struct {
	ID    string          `db:"id" json:"id"`
	Name  string          `db:"name" json:"name"`
	Image string          `db:"image" json:"image"`
	Price decimal.Decimal `db:"price" json:"price"`
}

type Order struct {
	ID            string           `db:"id" json:"id"`
	Email         string           `db:"email" json:"email"`
	Area          string           `db:"area" json:"area"`
	Location      string           `db:"location" json:"location"`
	PaymentMethod string           `db:"payment_method" json:"paymentMethod"`
	Phone         string           `db:"phone" json:"phoneNumber"`
	UserName      string           `db:"user_name" json:"userName"`
	Comments      string           `db:"comments" json:"comments"`
	Items         orderitems.Items `db:"items" json:"items"`
	TotalPrice    decimal.Decimal  `db:"total_price" json:"totalPrice"`
	CreatedAt     time.Time        `db:"created_at" json:"createdAt"`
}

// OrderFields are the free-text attributes a customer may edit after placing.
type OrderFields struct {
	Area          string `json:"area"`
	Location      string `json:"location"`
	PaymentMethod string `json:"paymentMethod"`
	Phone         string `json:"phoneNumber"`
	UserName      string `json:"userName"`
	Comments      string `json:"comments"`
}

func (o Order) Fields() OrderFields {
	return OrderFields{
		Area:          o.Area,
		Location:      o.Location,
		PaymentMethod: o.PaymentMethod,
		Phone:         o.Phone,
		UserName:      o.UserName,
		Comments:      o.Comments,
	}
}

type Money struct {
	Amount   decimal.Decimal
	Currency currency.Unit
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Currency, m.Amount.StringFixed(2))
}
