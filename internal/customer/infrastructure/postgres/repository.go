package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/order-consistency-engine/internal/customer/application"
	"github.com/dmehra2102/order-consistency-engine/internal/customer/domain"
	"github.com/dmehra2102/order-consistency-engine/pkg/pgxutil"
)

const (
	emailConstraint = "users_email_key"
	idConstraint    = "users_pkey"
)

// Store hands out repositories bound to one transaction.
type Store struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewStore(log *slog.Logger, pool *pgxpool.Pool) *Store {
	return &Store{log: log, pool: pool}
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, users application.UserRepository) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, NewRepository(s.log, tx))
	})
}

type Repository struct {
	log *slog.Logger
	db  pgxutil.DBTX
}

func NewRepository(log *slog.Logger, db pgxutil.DBTX) *Repository {
	return &Repository{log: log, db: db}
}

func (r *Repository) Create(ctx context.Context, u *domain.User) error {
	c := u.Credentials()
	_, err := r.db.Exec(ctx, `INSERT INTO users (id, name, email, password_hash, is_active, is_locked, rank_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		string(u.ID()), u.Name(), c.Email.String(), c.Password.Hash(), c.Active, c.Locked, u.Rank().ID, u.CreatedAt())
	if pgxutil.IsUniqueViolation(err, emailConstraint) {
		return fmt.Errorf("%w: %s", domain.ErrEmailTaken, c.Email)
	}
	if pgxutil.IsUniqueViolation(err, idConstraint) {
		return fmt.Errorf("%w: %s", domain.ErrUserExists, u.ID())
	}
	if pgxutil.IsForeignKeyViolation(err) {
		return fmt.Errorf("%w: rank %d", domain.ErrMissingRank, u.Rank().ID)
	}
	return err
}

func (r *Repository) Get(ctx context.Context, id domain.UserID) (*domain.User, error) {
	var (
		name, email, hash string
		active, locked    bool
		createdAt         time.Time
		rank              domain.Rank
	)
	err := r.db.QueryRow(ctx, `SELECT u.name, u.email, u.password_hash, u.is_active, u.is_locked, u.created_at,
			rk.id, rk.name, rk.display_name, rk.discount_bp
		FROM users u JOIN user_ranks rk ON rk.id = u.rank_id
		WHERE u.id=$1`, string(id)).
		Scan(&name, &email, &hash, &active, &locked, &createdAt,
			&rank.ID, &rank.Name, &rank.DisplayName, &rank.DiscountBasisPoints)
	if pgxutil.IsNoRows(err) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `SELECT postal_code, prefecture, city, street
		FROM user_addresses WHERE user_id=$1 ORDER BY id`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	addresses := []domain.Address{}
	for rows.Next() {
		var a domain.Address
		if err := rows.Scan(&a.PostalCode, &a.Prefecture, &a.City, &a.Street); err != nil {
			return nil, err
		}
		addresses = append(addresses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	mail, err := domain.NewEmail(email)
	if err != nil {
		return nil, err
	}
	pw, err := domain.PasswordFromHash(hash)
	if err != nil {
		return nil, err
	}
	creds := domain.Credentials{Email: mail, Password: pw, Active: active, Locked: locked}
	return domain.RestoreUser(id, name, creds, &rank, addresses, createdAt)
}

func (r *Repository) Lock(ctx context.Context, id domain.UserID) error {
	var one int
	err := r.db.QueryRow(ctx, `SELECT 1 FROM users WHERE id=$1 FOR UPDATE`, string(id)).Scan(&one)
	if pgxutil.IsNoRows(err) {
		return fmt.Errorf("%w: %s", domain.ErrUserNotFound, id)
	}
	return err
}

func (r *Repository) AddAddress(ctx context.Context, id domain.UserID, a domain.Address) error {
	_, err := r.db.Exec(ctx, `INSERT INTO user_addresses (user_id, postal_code, prefecture, city, street)
		VALUES ($1,$2,$3,$4,$5)`, string(id), a.PostalCode, a.Prefecture, a.City, a.Street)
	return err
}

// Exists reports whether a user with id is registered.
func (r *Repository) Exists(ctx context.Context, id domain.UserID) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id=$1)`, string(id)).Scan(&ok)
	return ok, err
}

type RankRepository struct {
	db pgxutil.DBTX
}

func NewRankRepository(db pgxutil.DBTX) *RankRepository {
	return &RankRepository{db: db}
}

func (r *RankRepository) ByName(ctx context.Context, name string) (*domain.Rank, error) {
	var rank domain.Rank
	err := r.db.QueryRow(ctx, `SELECT id, name, display_name, discount_bp FROM user_ranks WHERE name=$1`, name).
		Scan(&rank.ID, &rank.Name, &rank.DisplayName, &rank.DiscountBasisPoints)
	if pgxutil.IsNoRows(err) {
		return nil, fmt.Errorf("%w: %q", domain.ErrMissingRank, name)
	}
	if err != nil {
		return nil, err
	}
	return &rank, nil
}
