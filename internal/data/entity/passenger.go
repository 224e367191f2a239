package entity

import "github.com/google/uuid"

type Passenger struct {
	Base
	UserID       uuid.UUID `db:"user_id"`
	Name         string    `db:"name"`
	IDCardType   string    `db:"id_card_type"`
	IDCardNumber string    `db:"id_card_number"`
	Phone        string    `db:"phone"`
	Points       int       `db:"points"`
}
