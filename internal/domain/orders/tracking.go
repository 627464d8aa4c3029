package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrStatusRequired    = errors.New("status is required")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrStaleOrder        = errors.New("order status changed concurrently")
)

var statusRank = map[Status]int{
	StatusPending:        0,
	StatusConfirmed:      1,
	StatusShipped:        2,
	StatusInTransit:      3,
	StatusOutForDelivery: 4,
	StatusDelivered:      5,
	StatusCanceled:       5,
}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if st == "" {
		return "", ErrStatusRequired
	}
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCanceled
}

// CanTransition reports whether an order may move from one status to another.
// Delivered and canceled are final. Otherwise an order may only move forward
// (skipping steps is allowed), stay put to record a new location, or be canceled.
func CanTransition(from, to Status) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if from.Terminal() {
		return false
	}
	if to == StatusCanceled {
		return true
	}
	return statusRank[to] >= statusRank[from]
}

// Track appends a tracking entry for target and then sets the status, so the
// current status always matches the last history entry. Prior entries are
// never touched.
func Track(o *Order, target Status, location string, now time.Time) error {
	if target == "" {
		return ErrStatusRequired
	}
	if !target.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, target)
	}
	if !CanTransition(o.Status, target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, target)
	}

	location = strings.TrimSpace(location)
	if location == "" {
		location = DefaultLocation
	}

	o.TrackingHistory = append(o.TrackingHistory, TrackingEntry{
		Status:    target,
		Timestamp: now,
		Location:  location,
	})
	o.Status = target
	o.UpdatedAt = now
	return nil
}

// New builds a pending order with its first history entry.
func New(number, customerExternalID string, items []OrderItem, addr ShippingAddress, total float64, now time.Time) *Order {
	if items == nil {
		items = []OrderItem{}
	}
	return &Order{
		ID:                 primitive.NewObjectID(),
		OrderNumber:        number,
		CustomerExternalID: customerExternalID,
		Products:           items,
		ShippingAddress:    addr,
		TotalAmount:        total,
		Status:             StatusPending,
		TrackingHistory: []TrackingEntry{{
			Status:    StatusPending,
			Timestamp: now,
			Location:  DefaultLocation,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// UpdateStatus loads the order, applies the transition and persists the new
// history entry. The write is conditional on the status that was read, so two
// racing updates cannot both append from the same starting point.
func UpdateStatus(ctx context.Context, store Store, id primitive.ObjectID, target Status, location string, now time.Time) (*Order, error) {
	if target == "" {
		return nil, ErrStatusRequired
	}

	o, err := store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := o.Status
	if err := Track(o, target, location, now); err != nil {
		return nil, err
	}

	entry := o.TrackingHistory[len(o.TrackingHistory)-1]
	if err := store.AppendTracking(ctx, id, from, entry); err != nil {
		return nil, err
	}
	return o, nil
}
