package entity

import "time"

// UserVerification records a verification code that was emailed to a user.
// Rows are only inserted here; marking a code as used happens in the redemption flow.
type UserVerification struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"not null;index" json:"user_id"`
	VerificationCode string    `gorm:"size:255;not null" json:"-"`
	SentAt           time.Time `gorm:"not null" json:"sent_at"`
	ExpiresAt        time.Time `gorm:"not null" json:"expires_at"`
	IsUsed           bool      `gorm:"not null" json:"is_used"`
}

func (UserVerification) TableName() string {
	return "myapp_userverification"
}

// NewUserVerification builds an unused record whose expiry is exactly sentAt+ttl.
func NewUserVerification(userID uint, code string, sentAt time.Time, ttl time.Duration) *UserVerification {
	return &UserVerification{
		UserID:           userID,
		VerificationCode: code,
		SentAt:           sentAt,
		ExpiresAt:        sentAt.Add(ttl),
		IsUsed:           false,
	}
}

func (v *UserVerification) IsExpired(now time.Time) bool {
	return now.After(v.ExpiresAt)
}
