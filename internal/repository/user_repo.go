package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"learning_webapp/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

const uniqueViolation = "23505"

const userColumns = `id, telegram_id, username, premium, progress_step, lesson, last_lesson,
	preferred_lesson_time, energy, certificate_price, name, town, letters_received,
	tz_offset, created_at, is_active`

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// FindByTelegramID returns ErrUserNotFound when no profile exists.
func (r *UserRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+`
		 FROM users
		 WHERE telegram_id = $1`,
		telegramID,
	)
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// Create inserts u and fills it with the stored row, defaults included.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	row := r.db.QueryRow(ctx,
		`INSERT INTO users (telegram_id, username, premium)
		 VALUES ($1, $2, $3)
		 RETURNING `+userColumns,
		u.TelegramID,
		u.Username,
		u.Premium,
	)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	*u = *created
	return nil
}

// Update applies the non-nil fields of patch and returns the stored row.
func (r *UserRepository) Update(ctx context.Context, telegramID int64, patch domain.UserPatch) (*domain.User, error) {
	if patch.Empty() {
		return r.FindByTelegramID(ctx, telegramID)
	}

	set, args := patchAssignments(patch)
	args = append(args, telegramID)

	row := r.db.QueryRow(ctx,
		`UPDATE users SET `+strings.Join(set, ", ")+`
		 WHERE telegram_id = $`+fmt.Sprint(len(args))+`
		 RETURNING `+userColumns,
		args...,
	)
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// List returns profiles ordered by id.
func (r *UserRepository) List(ctx context.Context, offset, limit int) ([]domain.User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+`
		 FROM users
		 ORDER BY id
		 OFFSET $1 LIMIT $2`,
		offset, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make([]domain.User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *u)
	}
	return res, rows.Err()
}

func patchAssignments(p domain.UserPatch) ([]string, []any) {
	var (
		set  []string
		args []any
	)
	add := func(column string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.Town != nil {
		add("town", *p.Town)
	}
	if p.Premium != nil {
		add("premium", *p.Premium)
	}
	if p.ProgressStep != nil {
		add("progress_step", *p.ProgressStep)
	}
	if p.Lesson != nil {
		add("lesson", *p.Lesson)
	}
	if p.PreferredLessonTime != nil {
		add("preferred_lesson_time", pgtype.Time{
			Microseconds: p.PreferredLessonTime.SinceMidnight().Microseconds(),
			Valid:        true,
		})
	}
	if p.Energy != nil {
		add("energy", *p.Energy)
	}
	if p.TZOffset != nil {
		add("tz_offset", *p.TZOffset)
	}
	return set, args
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u         domain.User
		preferred pgtype.Time
	)
	if err := row.Scan(
		&u.ID,
		&u.TelegramID,
		&u.Username,
		&u.Premium,
		&u.ProgressStep,
		&u.Lesson,
		&u.LastLesson,
		&preferred,
		&u.Energy,
		&u.CertificatePrice,
		&u.Name,
		&u.Town,
		&u.LettersReceived,
		&u.TZOffset,
		&u.CreatedAt,
		&u.IsActive,
	); err != nil {
		return nil, err
	}
	if preferred.Valid {
		c := domain.ClockFromDuration(time.Duration(preferred.Microseconds) * time.Microsecond)
		u.PreferredLessonTime = &c
	}
	return &u, nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrUserNotFound
	}
	return err
}
