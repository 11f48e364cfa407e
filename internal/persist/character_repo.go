package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/telgard/server/internal/character"
	"github.com/telgard/server/internal/pub"
)

type CharacterRepo struct {
	db *DB
}

func NewCharacterRepo(db *DB) *CharacterRepo {
	return &CharacterRepo{db: db}
}

const characterColumns = `id, account_id, name, title, home, fiance, partner,
	admin, class, gender, skin, hair_style, hair_color, level, exp, hp, tp,
	str, intl, wis, agi, con, cha, stat_points, skill_points, karma,
	usage_mins, map, x, y, direction, sit_state, hidden, bank_level,
	gold_bank, paperdoll, inventory, spells, bank`

func scanCharacter(row pgx.Row) (*character.Character, error) {
	c := &character.Character{}
	var paperdoll, inventory, spells, bank []byte
	var x, y int
	err := row.Scan(
		&c.ID, &c.AccountID, &c.Name, &c.Title, &c.Home, &c.Fiance, &c.Partner,
		&c.Admin, &c.Class, &c.Gender, &c.Skin, &c.HairStyle, &c.HairColor,
		&c.Level, &c.Exp, &c.HP, &c.TP,
		&c.Str, &c.Int, &c.Wis, &c.Agi, &c.Con, &c.Cha,
		&c.StatPoints, &c.SkillPoints, &c.Karma, &c.Usage,
		&c.MapID, &x, &y, &c.Direction, &c.Sit, &c.Hidden,
		&c.BankLevel, &c.GoldBank,
		&paperdoll, &inventory, &spells, &bank,
	)
	if err != nil {
		return nil, err
	}
	c.Coords = pub.Coords{X: x, Y: y}

	var doll []int
	if err := json.Unmarshal(paperdoll, &doll); err != nil {
		return nil, fmt.Errorf("decode paperdoll: %w", err)
	}
	for i := 0; i < len(doll) && i < character.EquipSlots; i++ {
		c.Paperdoll[i] = doll[i]
	}
	if err := json.Unmarshal(inventory, &c.Items); err != nil {
		return nil, fmt.Errorf("decode inventory: %w", err)
	}
	if err := json.Unmarshal(spells, &c.Spells); err != nil {
		return nil, fmt.Errorf("decode spells: %w", err)
	}
	if err := json.Unmarshal(bank, &c.Bank); err != nil {
		return nil, fmt.Errorf("decode bank: %w", err)
	}
	return c, nil
}

// Load fetches one character by name, or nil when absent.
func (r *CharacterRepo) Load(ctx context.Context, name string) (*character.Character, error) {
	c, err := scanCharacter(r.db.Pool.QueryRow(ctx,
		`SELECT `+characterColumns+` FROM characters WHERE LOWER(name) = LOWER($1)`, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, r.loadGuild(ctx, c)
}

// ListForAccount returns all characters owned by an account, oldest first.
func (r *CharacterRepo) ListForAccount(ctx context.Context, accountID int) ([]*character.Character, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+characterColumns+` FROM characters WHERE account_id = $1 ORDER BY id`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*character.Character
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CharacterRepo) loadGuild(ctx context.Context, c *character.Character) error {
	var tag string
	var rank int
	err := r.db.Pool.QueryRow(ctx,
		`SELECT guild_tag, rank FROM guild_members WHERE character_name = $1`, c.Name,
	).Scan(&tag, &rank)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	c.GuildTag = tag
	c.GuildRank = rank
	err = r.db.Pool.QueryRow(ctx,
		`SELECT g.name, COALESCE(gr.title, '')
		 FROM guilds g
		 LEFT JOIN guild_ranks gr ON gr.guild_tag = g.tag AND gr.rank = $2
		 WHERE g.tag = $1`, tag, rank,
	).Scan(&c.GuildName, &c.GuildRankStr)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	return err
}

// NameTaken reports whether a character name exists.
func (r *CharacterRepo) NameTaken(ctx context.Context, name string) (bool, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM characters WHERE LOWER(name) = LOWER($1)`, name,
	).Scan(&n)
	return n > 0, err
}

// Create inserts a fresh character and returns its id.
func (r *CharacterRepo) Create(ctx context.Context, c *character.Character) (int, error) {
	var id int
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO characters (account_id, name, class, gender, skin,
		                         hair_style, hair_color, map, x, y)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		c.AccountID, c.Name, c.Class, c.Gender, c.Skin,
		c.HairStyle, c.HairColor, c.MapID, c.Coords.X, c.Coords.Y,
	).Scan(&id)
	return id, err
}

// Save flushes the mutable character state back to its row.
func (r *CharacterRepo) Save(ctx context.Context, c *character.Character) error {
	paperdoll, err := json.Marshal(c.Paperdoll[:])
	if err != nil {
		return fmt.Errorf("encode paperdoll: %w", err)
	}
	inventory, err := json.Marshal(emptyNotNull(c.Items))
	if err != nil {
		return fmt.Errorf("encode inventory: %w", err)
	}
	spells, err := json.Marshal(emptySpellsNotNull(c.Spells))
	if err != nil {
		return fmt.Errorf("encode spells: %w", err)
	}
	bank, err := json.Marshal(emptyNotNull(c.Bank))
	if err != nil {
		return fmt.Errorf("encode bank: %w", err)
	}
	_, err = r.db.Pool.Exec(ctx,
		`UPDATE characters SET
		   title=$2, home=$3, fiance=$4, partner=$5, admin=$6, class=$7,
		   hair_style=$8, hair_color=$9, level=$10, exp=$11, hp=$12, tp=$13,
		   str=$14, intl=$15, wis=$16, agi=$17, con=$18, cha=$19,
		   stat_points=$20, skill_points=$21, karma=$22, usage_mins=$23,
		   map=$24, x=$25, y=$26, direction=$27, sit_state=$28, hidden=$29,
		   bank_level=$30, gold_bank=$31,
		   paperdoll=$32, inventory=$33, spells=$34, bank=$35
		 WHERE id=$1`,
		c.ID, c.Title, c.Home, c.Fiance, c.Partner, c.Admin, c.Class,
		c.HairStyle, c.HairColor, c.Level, c.Exp, c.HP, c.TP,
		c.Str, c.Int, c.Wis, c.Agi, c.Con, c.Cha,
		c.StatPoints, c.SkillPoints, c.Karma, c.Usage,
		c.MapID, c.Coords.X, c.Coords.Y, c.Direction, c.Sit, c.Hidden,
		c.BankLevel, c.GoldBank,
		paperdoll, inventory, spells, bank,
	)
	return err
}

// Delete removes a character; guild membership cleans up with it.
func (r *CharacterRepo) Delete(ctx context.Context, id int, accountID int) error {
	var name string
	err := r.db.Pool.QueryRow(ctx,
		`DELETE FROM characters WHERE id = $1 AND account_id = $2 RETURNING name`,
		id, accountID,
	).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = r.db.Pool.Exec(ctx,
		`DELETE FROM guild_members WHERE character_name = $1`, name)
	return err
}

func emptyNotNull(items []character.Item) []character.Item {
	if items == nil {
		return []character.Item{}
	}
	return items
}

func emptySpellsNotNull(spells []character.Spell) []character.Spell {
	if spells == nil {
		return []character.Spell{}
	}
	return spells
}
