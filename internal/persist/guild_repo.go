package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type GuildRow struct {
	Tag         string
	Name        string
	Description string
	Bank        int
	Ranks       []string // index 0 = rank 1 (leader)
}

type GuildRepo struct {
	db *DB
}

func NewGuildRepo(db *DB) *GuildRepo {
	return &GuildRepo{db: db}
}

// Load returns a guild with its rank titles, or nil when absent.
func (r *GuildRepo) Load(ctx context.Context, tag string) (*GuildRow, error) {
	g := &GuildRow{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT tag, name, description, bank FROM guilds WHERE UPPER(tag) = UPPER($1)`, tag,
	).Scan(&g.Tag, &g.Name, &g.Description, &g.Bank)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Pool.Query(ctx,
		`SELECT title FROM guild_ranks WHERE guild_tag = $1 ORDER BY rank`, g.Tag)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, err
		}
		g.Ranks = append(g.Ranks, title)
	}
	return g, rows.Err()
}

// NameTaken reports whether a guild name or tag exists.
func (r *GuildRepo) NameTaken(ctx context.Context, tag, name string) (bool, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM guilds
		 WHERE UPPER(tag) = UPPER($1) OR LOWER(name) = LOWER($2)`, tag, name,
	).Scan(&n)
	return n > 0, err
}

// Create inserts a guild with its founder at rank 1 and default rank titles,
// all in one transaction.
func (r *GuildRepo) Create(ctx context.Context, g *GuildRow, founder string) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("guild create begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO guilds (tag, name, description) VALUES ($1, $2, $3)`,
		g.Tag, g.Name, g.Description,
	); err != nil {
		return fmt.Errorf("guild insert: %w", err)
	}
	for i, title := range g.Ranks {
		if _, err := tx.Exec(ctx,
			`INSERT INTO guild_ranks (guild_tag, rank, title) VALUES ($1, $2, $3)`,
			g.Tag, i+1, title,
		); err != nil {
			return fmt.Errorf("guild rank insert: %w", err)
		}
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO guild_members (character_name, guild_tag, rank) VALUES ($1, $2, 1)`,
		founder, g.Tag,
	); err != nil {
		return fmt.Errorf("guild founder insert: %w", err)
	}
	return tx.Commit(ctx)
}

// AddMember records a character joining a guild.
func (r *GuildRepo) AddMember(ctx context.Context, tag, name string, rank int) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO guild_members (character_name, guild_tag, rank)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (character_name) DO UPDATE SET guild_tag = $2, rank = $3`,
		name, tag, rank,
	)
	return err
}

// RemoveMember records a character leaving. When the guild empties it is
// dissolved.
func (r *GuildRepo) RemoveMember(ctx context.Context, tag, name string) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("guild leave begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM guild_members WHERE character_name = $1 AND guild_tag = $2`,
		name, tag,
	); err != nil {
		return err
	}
	var remaining int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM guild_members WHERE guild_tag = $1`, tag,
	).Scan(&remaining); err != nil {
		return err
	}
	if remaining == 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM guilds WHERE tag = $1`, tag); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// SetRank updates a member's rank index.
func (r *GuildRepo) SetRank(ctx context.Context, name string, rank int) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE guild_members SET rank = $2 WHERE character_name = $1`, name, rank)
	return err
}

// SetDescription updates the guild description.
func (r *GuildRepo) SetDescription(ctx context.Context, tag, description string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE guilds SET description = $2 WHERE tag = $1`, tag, description)
	return err
}

// Deposit adds gold to the guild bank.
func (r *GuildRepo) Deposit(ctx context.Context, tag string, amount int) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE guilds SET bank = bank + $2 WHERE tag = $1`, tag, amount)
	return err
}

// MemberNames lists all member character names for a tag, rank order.
func (r *GuildRepo) MemberNames(ctx context.Context, tag string) ([]string, []int, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT character_name, rank FROM guild_members
		 WHERE guild_tag = $1 ORDER BY rank, character_name`, tag)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	var names []string
	var ranks []int
	for rows.Next() {
		var n string
		var rk int
		if err := rows.Scan(&n, &rk); err != nil {
			return nil, nil, err
		}
		names = append(names, n)
		ranks = append(ranks, rk)
	}
	return names, ranks, rows.Err()
}
