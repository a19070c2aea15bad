package repo

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"strings"
	"time"

	"taskdesk/internal/domain"
)

// HashSecret returns a stable SHA-256 hex digest for the provided secret.
// Used for both API keys and password confirmation values.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(secret)))
	return hex.EncodeToString(sum[:])
}

// InsertActor creates an actor and returns the assigned id.
func (r Repo) InsertActor(ctx context.Context, name, passwordHash string, superadmin bool) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := r.DB.ExecContext(ctx, `INSERT INTO actors(name,password_hash,superadmin,created_at) VALUES (?,?,?,?)`,
		name, nullable(passwordHash), superadmin, now)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r Repo) getActor(ctx context.Context, q querier, query string, arg any) (domain.Actor, error) {
	var a domain.Actor
	err := q.QueryRowContext(ctx, query, arg).Scan(&a.ID, &a.Name, &a.Superadmin, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return a, ErrNotFound
	}
	if err != nil {
		return a, err
	}
	rows, err := q.QueryContext(ctx, `SELECT capability FROM actor_capabilities WHERE actor_id=?`, a.ID)
	if err != nil {
		return a, err
	}
	defer rows.Close()
	a.Capabilities = domain.CapabilitySet{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return a, err
		}
		a.Capabilities[domain.Capability(c)] = struct{}{}
	}
	return a, rows.Err()
}

// GetActor loads an actor with its capability set.
func (r Repo) GetActor(ctx context.Context, id int64) (domain.Actor, error) {
	return r.getActor(ctx, r.DB, `SELECT id,name,superadmin,created_at FROM actors WHERE id=?`, id)
}

func (r Repo) GetActorByName(ctx context.Context, name string) (domain.Actor, error) {
	return r.getActor(ctx, r.DB, `SELECT id,name,superadmin,created_at FROM actors WHERE name=?`, name)
}

func (r Repo) ListActors(ctx context.Context) ([]domain.Actor, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name,superadmin,created_at FROM actors ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Actor
	for rows.Next() {
		var a domain.Actor
		if err := rows.Scan(&a.ID, &a.Name, &a.Superadmin, &a.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range res {
		caps, err := r.listCapabilities(ctx, res[i].ID)
		if err != nil {
			return nil, err
		}
		res[i].Capabilities = caps
	}
	return res, nil
}

func (r Repo) listCapabilities(ctx context.Context, actorID int64) (domain.CapabilitySet, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT capability FROM actor_capabilities WHERE actor_id=?`, actorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cs := domain.CapabilitySet{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		cs[domain.Capability(c)] = struct{}{}
	}
	return cs, rows.Err()
}

func (r Repo) GrantCapability(ctx context.Context, actorID int64, c domain.Capability) error {
	_, err := r.DB.ExecContext(ctx, `INSERT OR IGNORE INTO actor_capabilities(actor_id, capability) VALUES (?,?)`, actorID, string(c))
	return err
}

func (r Repo) RevokeCapability(ctx context.Context, actorID int64, c domain.Capability) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM actor_capabilities WHERE actor_id=? AND capability=?`, actorID, string(c))
	return err
}

func (r Repo) SetActorPassword(ctx context.Context, actorID int64, secret string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE actors SET password_hash=? WHERE id=?`, HashSecret(secret), actorID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// VerifyActorSecret checks a reverified credential in constant time. An actor
// without a stored hash never verifies.
func (r Repo) VerifyActorSecret(ctx context.Context, actorID int64, secret string) (bool, error) {
	var hash sql.NullString
	err := r.DB.QueryRowContext(ctx, `SELECT password_hash FROM actors WHERE id=?`, actorID).Scan(&hash)
	if err == sql.ErrNoRows {
		return false, ErrNotFound
	}
	if err != nil {
		return false, err
	}
	if !hash.Valid || hash.String == "" {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(hash.String), []byte(HashSecret(secret))) == 1, nil
}
