package booking

import (
	"context"
	"time"
)

// BookingRecord is the durable result of a confirmed booking. Records are
// append-only once written.
type BookingRecord struct {
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Service   string    `json:"service"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"created_at"`
	IPAddress string    `json:"ip_address,omitempty"`
}

// CancellationRecord snapshots whatever was collected when the user
// cancelled mid-flow, with their stated reason.
type CancellationRecord struct {
	Name      string    `json:"name,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Service   string    `json:"service,omitempty"`
	Date      string    `json:"date,omitempty"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
	IPAddress string    `json:"ip_address,omitempty"`
}

// Sink durably records completed bookings and cancellations.
type Sink interface {
	SaveBooking(ctx context.Context, rec BookingRecord) error
	SaveCancellation(ctx context.Context, rec CancellationRecord) error
}
