package repository

import (
	"testing"

	"learning_webapp/internal/domain"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
)

func TestPatchAssignments(t *testing.T) {
	name := "Анна"
	energy := 40
	premium := false
	slot := domain.ClockTime{Hour: 7, Minute: 45}

	set, args := patchAssignments(domain.UserPatch{
		Name:                &name,
		Premium:             &premium,
		PreferredLessonTime: &slot,
		Energy:              &energy,
	})

	assert.Equal(t, []string{
		"name = $1",
		"premium = $2",
		"preferred_lesson_time = $3",
		"energy = $4",
	}, set)
	assert.Equal(t, []any{
		"Анна",
		false,
		pgtype.Time{Microseconds: (7*3600 + 45*60) * 1e6, Valid: true},
		40,
	}, args)
}

func TestPatchAssignments_Empty(t *testing.T) {
	set, args := patchAssignments(domain.UserPatch{})
	assert.Empty(t, set)
	assert.Empty(t, args)
}
