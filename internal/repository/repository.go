package repository

import (
	"tamasya/internal/database"
)

type Repositories struct {
	Activities *ActivityRepository
	Slots      *SlotRepository
	Bookings   *BookingRepository
	Payments   *PaymentRepository
	Reviews    *ReviewRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Activities: NewActivityRepository(db),
		Slots:      NewSlotRepository(db),
		Bookings:   NewBookingRepository(db),
		Payments:   NewPaymentRepository(db),
		Reviews:    NewReviewRepository(db),
	}
}
