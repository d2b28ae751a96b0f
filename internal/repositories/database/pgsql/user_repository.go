package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harborlend/loancrm/internal/apperrors"
	"github.com/harborlend/loancrm/internal/core/domain"
	portsrepo "github.com/harborlend/loancrm/internal/core/ports/repositories"
)

type PgxUserRepository struct {
	BaseRepository
}

func newPgxUserRepository(db *pgxpool.Pool) portsrepo.UserRepository {
	return &PgxUserRepository{BaseRepository: BaseRepository{Pool: db}}
}

// Ensure PgxUserRepository implements portsrepo.UserRepository
var _ portsrepo.UserRepository = (*PgxUserRepository)(nil)

const userColumns = `user_id, email, name, password_hash, primary_role, permissions, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var perms []string
	err := row.Scan(
		&u.UserID,
		&u.Email,
		&u.Name,
		&u.PasswordHash,
		&u.PrimaryRole,
		&perms,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Permissions = make([]domain.Role, len(perms))
	for i, p := range perms {
		u.Permissions[i] = domain.Role(p)
	}
	return &u, nil
}

func permStrings(roles []domain.Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

func (r *PgxUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	query := `
		INSERT INTO users (user_id, email, name, password_hash, primary_role, permissions, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err := r.Pool.Exec(ctx, query,
		user.UserID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.PrimaryRole,
		permStrings(user.Permissions),
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (r *PgxUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1;`
	user, err := scanUser(r.Pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user by ID %s: %w", userID, err)
	}
	return user, nil
}

func (r *PgxUserRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1);`
	user, err := scanUser(r.Pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

func (r *PgxUserRepository) FindUsers(ctx context.Context, filter portsrepo.UserFilter) ([]domain.User, int, error) {
	filter.Page.Normalize()

	b := &condBuilder{}
	if filter.Role != "" {
		b.addf("(primary_role = $%d OR $%d = ANY(permissions))", filter.Role, string(filter.Role))
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM users` + b.where()
	if err := r.Pool.QueryRow(ctx, countQuery, b.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query := fmt.Sprintf(`SELECT `+userColumns+` FROM users%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d;`,
		b.where(), b.next(0), b.next(1))
	rows, err := r.Pool.Query(ctx, query, append(b.args, filter.Page.Limit, filter.Page.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, *u)
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("error iterating user rows: %w", rows.Err())
	}
	return users, total, nil
}

// recipientConds narrows a broadcast to active accounts, then either to the
// explicit ids or to accounts holding one of the roles as primary role or
// extra permission. With neither selector every active account matches.
func recipientConds(userIDs []string, roles []domain.Role) *condBuilder {
	b := &condBuilder{}
	b.conds = append(b.conds, "is_active")
	switch {
	case len(userIDs) > 0:
		b.addf("user_id = ANY($%d)", userIDs)
	case len(roles) > 0:
		b.addf("(primary_role = ANY($%d) OR permissions && $%d)", permStrings(roles), permStrings(roles))
	}
	return b
}

func (r *PgxUserRepository) FindActiveUserIDs(ctx context.Context, userIDs []string, roles []domain.Role) ([]string, error) {
	b := recipientConds(userIDs, roles)

	rows, err := r.Pool.Query(ctx, `SELECT user_id FROM users`+b.where(), b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve broadcast recipients: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating user ids: %w", rows.Err())
	}
	return ids, nil
}

func (r *PgxUserRepository) UpdateUser(ctx context.Context, user domain.User) error {
	query := `
		UPDATE users
		SET email = $1, name = $2, primary_role = $3, permissions = $4, updated_at = $5
		WHERE user_id = $6;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		user.Email,
		user.Name,
		user.PrimaryRole,
		permStrings(user.Permissions),
		user.UpdatedAt,
		user.UserID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxUserRepository) SetUserStatus(ctx context.Context, userID string, isActive bool) error {
	cmdTag, err := r.Pool.Exec(ctx,
		`UPDATE users SET is_active = $1, updated_at = now() WHERE user_id = $2;`, isActive, userID)
	if err != nil {
		return fmt.Errorf("failed to set user status: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxUserRepository) SetUserPermissions(ctx context.Context, userID string, primaryRole domain.Role, permissions []domain.Role) error {
	cmdTag, err := r.Pool.Exec(ctx,
		`UPDATE users SET primary_role = $1, permissions = $2, updated_at = now() WHERE user_id = $3;`,
		primaryRole, permStrings(permissions), userID)
	if err != nil {
		return fmt.Errorf("failed to set user permissions: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxUserRepository) CountLoansOwnedBy(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM loans WHERE loan_officer_id = $1;`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count owned loans: %w", err)
	}
	return count, nil
}

func (r *PgxUserRepository) DeleteUserCascade(ctx context.Context, userID string) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	for _, query := range []string{
		`DELETE FROM tasks WHERE user_id = $1;`,
		`DELETE FROM communications WHERE user_id = $1;`,
		`DELETE FROM notifications WHERE user_id = $1;`,
		`DELETE FROM appointments WHERE user_id = $1;`,
	} {
		if _, err := tx.Exec(ctx, query, userID); err != nil {
			return fmt.Errorf("failed to cascade user delete: %w", err)
		}
	}

	cmdTag, err := tx.Exec(ctx, `DELETE FROM users WHERE user_id = $1;`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return r.Commit(ctx, tx)
}
