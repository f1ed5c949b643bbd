package interfaces

import (
	"context"
	"errors"

	"driverhire/internal/models"
)

// ErrNotFound is returned by every store when the key has no record.
var ErrNotFound = errors.New("record not found")

// OTPStore holds at most one record per mobile number. Save replaces any
// existing record for the same number.
type OTPStore interface {
	Get(ctx context.Context, mobileNumber string) (*models.OTPRecord, error)
	Save(ctx context.Context, record *models.OTPRecord) error
	Delete(ctx context.Context, mobileNumber string) error
}

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByMobile(ctx context.Context, mobileNumber string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

type BookingStore interface {
	Create(ctx context.Context, booking *models.BookingRecord) error
	GetByReference(ctx context.Context, reference string) (*models.BookingRecord, error)
	ListByMobile(ctx context.Context, mobileNumber string, skip, limit int) ([]*models.BookingRecord, error)
	// UpdateStatus must only write when the record is still in status from.
	UpdateStatus(ctx context.Context, reference string, from, to models.BookingStatus) error
}

type SessionStore interface {
	Save(ctx context.Context, session *models.Session) error
	Get(ctx context.Context, sessionID string) (*models.Session, error)
	Delete(ctx context.Context, sessionID string) error
}
