package repository

import (
	"context"
	"errors"

	"todolist/internal/database"
	"todolist/internal/domain/user"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type PostgresProfileRepository struct {
	db database.DB
}

func NewPostgresProfileRepository(db database.DB) *PostgresProfileRepository {
	return &PostgresProfileRepository{db: db}
}

func (r *PostgresProfileRepository) GetOrCreateProfile(ctx context.Context, userID uuid.UUID) (user.Profile, bool, error) {
	n, err := r.db.Exec(ctx,
		`INSERT INTO profiles (id, user_id) VALUES ($1, $2) ON CONFLICT (user_id) DO NOTHING`,
		uuid.New(), userID,
	)
	if err != nil {
		return user.Profile{}, false, err
	}

	p, err := getProfileByUserID(ctx, r.db, userID)
	if err != nil {
		return user.Profile{}, false, err
	}
	return p, n == 1, nil
}

func (r *PostgresProfileRepository) UpdateAccount(ctx context.Context, u user.User, p user.Profile) error {
	return database.WithTx(ctx, r.db, func(tx database.Tx) error {
		n, err := tx.Exec(ctx,
			`UPDATE users
			 SET first_name = $2, last_name = $3, email = $4, updated_at = now()
			 WHERE id = $1`,
			u.ID, u.FirstName, u.LastName, u.Email,
		)
		if err != nil {
			return err
		}
		if n == 0 {
			return user.ErrNotFound
		}

		id := p.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO profiles (id, user_id, bio, location, birth_date)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (user_id) DO UPDATE
			 SET bio = EXCLUDED.bio,
			     location = EXCLUDED.location,
			     birth_date = EXCLUDED.birth_date,
			     updated_at = now()`,
			id, u.ID, p.Bio, p.Location, p.BirthDate,
		)
		return err
	})
}

func getProfileByUserID(ctx context.Context, q database.Querier, userID uuid.UUID) (user.Profile, error) {
	var p user.Profile
	err := q.QueryRow(ctx,
		`SELECT id, user_id, bio, location, birth_date, created_at, updated_at
		 FROM profiles WHERE user_id = $1`,
		userID,
	).Scan(&p.ID, &p.UserID, &p.Bio, &p.Location, &p.BirthDate, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.Profile{}, user.ErrNotFound
		}
		return user.Profile{}, err
	}
	return p, nil
}
