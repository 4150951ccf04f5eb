package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createActivitiesTable,
		createAvailabilitySlotsTable,
		createBookingsTable,
		createPaymentsTable,
		createReviewsTable,
		createBookingIndexes,
	}

	for i, migration := range migrations {
		slog.Info("Running migration", "step", i+1)
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createActivitiesTable = `
CREATE TABLE IF NOT EXISTS activities (
    id SERIAL PRIMARY KEY,
    supplier_id INTEGER NOT NULL,
    title VARCHAR(500) NOT NULL,
    description TEXT,
    location VARCHAR(255),
    price_adult BIGINT NOT NULL,
    price_child BIGINT,
    min_group_size INTEGER NOT NULL DEFAULT 1,
    max_group_size INTEGER NOT NULL DEFAULT 10,
    currency VARCHAR(3) NOT NULL DEFAULT 'IDR',
    rating_average NUMERIC(2,1) NOT NULL DEFAULT 0,
    review_count INTEGER NOT NULL DEFAULT 0,
    status VARCHAR(20) NOT NULL DEFAULT 'active',
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (price_adult >= 0),
    CHECK (min_group_size >= 1 AND max_group_size >= min_group_size)
);`

const createAvailabilitySlotsTable = `
CREATE TABLE IF NOT EXISTS availability_slots (
    id SERIAL PRIMARY KEY,
    activity_id INTEGER NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
    slot_date DATE NOT NULL,
    start_time TIME NOT NULL,
    total_spots INTEGER NOT NULL,
    available_spots INTEGER NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'open',
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    UNIQUE(activity_id, slot_date, start_time),
    CHECK (available_spots >= 0),
    CHECK (available_spots <= total_spots),
    CHECK (status IN ('open', 'full', 'cancelled'))
);`

const createBookingsTable = `
CREATE TABLE IF NOT EXISTS bookings (
    id SERIAL PRIMARY KEY,
    reference VARCHAR(20) UNIQUE NOT NULL,
    user_id INTEGER,
    activity_id INTEGER NOT NULL REFERENCES activities(id),
    availability_slot_id INTEGER NOT NULL REFERENCES availability_slots(id),
    adults INTEGER NOT NULL,
    children INTEGER NOT NULL DEFAULT 0,
    contact_name VARCHAR(255) NOT NULL,
    contact_email VARCHAR(255) NOT NULL,
    contact_phone VARCHAR(50) NOT NULL,
    special_requests TEXT,
    booking_date DATE NOT NULL,
    booking_time TIME NOT NULL,
    price_adult BIGINT NOT NULL,
    price_child BIGINT NOT NULL,
    subtotal BIGINT NOT NULL,
    service_fee BIGINT NOT NULL,
    total_amount BIGINT NOT NULL,
    currency VARCHAR(3) NOT NULL DEFAULT 'IDR',
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    confirmed_at TIMESTAMP,
    cancelled_at TIMESTAMP,
    cancellation_reason TEXT,
    cancelled_by_customer BOOLEAN,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (adults >= 1),
    CHECK (children >= 0),
    CHECK (total_amount = subtotal + service_fee),
    CHECK (status IN ('pending', 'confirmed', 'cancelled', 'completed', 'refunded', 'no_show'))
);`

const createPaymentsTable = `
CREATE TABLE IF NOT EXISTS payments (
    id SERIAL PRIMARY KEY,
    booking_id INTEGER NOT NULL REFERENCES bookings(id) ON DELETE CASCADE,
    intent_id VARCHAR(255) UNIQUE NOT NULL,
    charge_id VARCHAR(255),
    refund_id VARCHAR(255),
    amount BIGINT NOT NULL,
    currency VARCHAR(3) NOT NULL DEFAULT 'IDR',
    processor_amount BIGINT NOT NULL,
    processor_currency VARCHAR(3) NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    paid_at TIMESTAMP,
    refunded_at TIMESTAMP,
    refund_amount BIGINT NOT NULL DEFAULT 0,
    failure_reason TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (status IN ('pending', 'processing', 'completed', 'failed', 'refunded', 'cancelled')),
    CHECK (refund_amount >= 0 AND refund_amount <= amount)
);`

const createReviewsTable = `
CREATE TABLE IF NOT EXISTS reviews (
    id SERIAL PRIMARY KEY,
    activity_id INTEGER NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
    user_id INTEGER NOT NULL,
    booking_id INTEGER UNIQUE REFERENCES bookings(id),
    rating INTEGER NOT NULL,
    content TEXT,
    supplier_response TEXT,
    published BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (rating BETWEEN 1 AND 5)
);`

const createBookingIndexes = `
CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status);
CREATE INDEX IF NOT EXISTS idx_bookings_slot ON bookings(availability_slot_id);
CREATE INDEX IF NOT EXISTS idx_slots_activity_date ON availability_slots(activity_id, slot_date);
CREATE INDEX IF NOT EXISTS idx_payments_booking ON payments(booking_id);
CREATE INDEX IF NOT EXISTS idx_reviews_activity ON reviews(activity_id) WHERE published;`
