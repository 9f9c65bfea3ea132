package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/geocoder89/boardhub/internal/domain/membership"
	"github.com/geocoder89/boardhub/internal/domain/org"
	"github.com/geocoder89/boardhub/internal/domain/role"
	"github.com/geocoder89/boardhub/internal/domain/user"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MembershipsRepo persists the membership ledger. The role value is stored as
// JSONB in its wire form (with the __typename discriminator) so the variant
// survives round-trips without a schema change per role kind.
type MembershipsRepo struct {
	pool *pgxpool.Pool
}

func NewMembershipsRepo(pool *pgxpool.Pool) *MembershipsRepo {
	return &MembershipsRepo{pool: pool}
}

func (r *MembershipsRepo) Upsert(ctx context.Context, userID, orgID string, rl role.Role) (membership.Membership, error) {
	payload, err := json.Marshal(rl)
	if err != nil {
		return membership.Membership{}, err
	}

	var createdAt time.Time

	err = r.pool.QueryRow(ctx,
		`INSERT INTO memberships(user_id, organisation_id, role, created_at)
		 VALUES($1,$2,$3,$4)
		 ON CONFLICT (user_id, organisation_id) DO UPDATE SET role = EXCLUDED.role
		 RETURNING created_at`,
		userID, orgID, payload, time.Now().UTC()).Scan(&createdAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			// foreign key violation: one of the referenced entities is gone
			if strings.Contains(pgErr.ConstraintName, "user") {
				return membership.Membership{}, user.ErrNotFound
			}
			return membership.Membership{}, org.ErrNotFound
		}
		return membership.Membership{}, err
	}

	return membership.Membership{
		UserID:         userID,
		OrganisationID: orgID,
		Role:           rl,
		CreatedAt:      createdAt,
	}, nil
}

func (r *MembershipsRepo) RoleOf(ctx context.Context, userID, orgID string) (role.Role, bool, error) {
	var payload []byte

	err := r.pool.QueryRow(ctx,
		`SELECT role FROM memberships WHERE user_id = $1 AND organisation_id = $2`,
		userID, orgID).Scan(&payload)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	rl, err := role.Decode(payload)
	if err != nil {
		return nil, false, err
	}

	return rl, true, nil
}

func (r *MembershipsRepo) MembershipsOf(ctx context.Context, userID string) ([]membership.Membership, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, organisation_id, role, created_at
		 FROM memberships
		 WHERE user_id = $1
		 ORDER BY created_at ASC, organisation_id ASC`, userID)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	out := make([]membership.Membership, 0)

	for rows.Next() {
		var m membership.Membership
		var payload []byte

		if err := rows.Scan(&m.UserID, &m.OrganisationID, &payload, &m.CreatedAt); err != nil {
			return nil, err
		}

		if m.Role, err = role.Decode(payload); err != nil {
			return nil, err
		}

		out = append(out, m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}
