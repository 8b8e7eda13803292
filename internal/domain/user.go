package domain

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// Defaults applied by the users table for new learners.
const (
	DefaultName             = "Друг"
	DefaultTown             = "Чудесный город"
	DefaultEnergy           = 100
	DefaultCertificatePrice = 9990
)

var ErrInvalidPatch = errors.New("invalid user patch")

// User is a learner profile keyed by Telegram id.
type User struct {
	ID                  int64      `db:"id" json:"id"`
	TelegramID          int64      `db:"telegram_id" json:"telegram_id"`
	Username            *string    `db:"username" json:"username"`
	Premium             bool       `db:"premium" json:"premium"`
	ProgressStep        int        `db:"progress_step" json:"progress_step"`
	Lesson              int        `db:"lesson" json:"lesson"`
	LastLesson          *time.Time `db:"last_lesson" json:"last_lesson"`
	PreferredLessonTime *ClockTime `db:"preferred_lesson_time" json:"preferred_lesson_time"`
	Energy              int        `db:"energy" json:"energy"`
	CertificatePrice    int        `db:"certificate_price" json:"certificate_price"`
	Name                string     `db:"name" json:"name"`
	Town                string     `db:"town" json:"town"`
	LettersReceived     int        `db:"letters_received" json:"letters_received"`
	TZOffset            int        `db:"tz_offset" json:"tz_offset"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	IsActive            bool       `db:"is_active" json:"is_active"`
}

// UserPatch carries the fields a learner may change. Nil means untouched.
type UserPatch struct {
	Name                *string    `json:"name" binding:"omitempty,min=2,max=50"`
	Town                *string    `json:"town" binding:"omitempty,min=2,max=50"`
	Premium             *bool      `json:"premium"`
	ProgressStep        *int       `json:"progress_step" binding:"omitempty,min=0"`
	Lesson              *int       `json:"lesson" binding:"omitempty,min=0"`
	PreferredLessonTime *ClockTime `json:"preferred_lesson_time"`
	Energy              *int       `json:"energy" binding:"omitempty,min=0,max=100"`
	TZOffset            *int       `json:"tz_offset" binding:"omitempty,min=-12,max=12"`
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.Name == nil && p.Town == nil && p.Premium == nil && p.ProgressStep == nil &&
		p.Lesson == nil && p.PreferredLessonTime == nil && p.Energy == nil && p.TZOffset == nil
}

// Validate repeats the binding rules so callers outside gin get the same
// guarantees.
func (p UserPatch) Validate() error {
	if p.Name != nil {
		if err := checkLen("name", *p.Name, 2, 50); err != nil {
			return err
		}
	}
	if p.Town != nil {
		if err := checkLen("town", *p.Town, 2, 50); err != nil {
			return err
		}
	}
	if p.ProgressStep != nil && *p.ProgressStep < 0 {
		return fmt.Errorf("%w: progress_step must be >= 0", ErrInvalidPatch)
	}
	if p.Lesson != nil && *p.Lesson < 0 {
		return fmt.Errorf("%w: lesson must be >= 0", ErrInvalidPatch)
	}
	if p.Energy != nil && (*p.Energy < 0 || *p.Energy > 100) {
		return fmt.Errorf("%w: energy must be within 0..100", ErrInvalidPatch)
	}
	if p.TZOffset != nil && (*p.TZOffset < -12 || *p.TZOffset > 12) {
		return fmt.Errorf("%w: tz_offset must be within -12..12", ErrInvalidPatch)
	}
	return nil
}

func checkLen(field, v string, lo, hi int) error {
	n := utf8.RuneCountInString(v)
	if n < lo || n > hi {
		return fmt.Errorf("%w: %s length must be within %d..%d", ErrInvalidPatch, field, lo, hi)
	}
	return nil
}
