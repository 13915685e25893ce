package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"
)

// ErrUnknownSlot is returned by RevealText for a slot with no text behind it.
var ErrUnknownSlot = errors.New("unknown reveal slot")

const schema = `
CREATE TABLE profile (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	name TEXT NOT NULL,
	headline TEXT,
	about TEXT,
	email TEXT,
	phone TEXT,
	github TEXT,
	linkedin TEXT,
	resume TEXT
);
CREATE TABLE skills (
	group_pos INTEGER NOT NULL,
	category TEXT NOT NULL,
	position INTEGER NOT NULL,
	name TEXT NOT NULL
);
CREATE TABLE projects (
	position INTEGER PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT,
	tech TEXT,      -- JSON array
	image TEXT,
	github TEXT,
	demo TEXT
);
CREATE TABLE experience (
	position INTEGER PRIMARY KEY,
	role TEXT NOT NULL,
	company TEXT,
	period TEXT,
	bullets TEXT    -- JSON array
);
CREATE TABLE education (
	position INTEGER PRIMARY KEY,
	degree TEXT NOT NULL,
	institution TEXT,
	period TEXT,
	score TEXT
);`

// Store is an in-memory SQLite copy of the active catalog. Nothing is
// written to disk; Replace swaps the whole catalog in one transaction.
type Store struct {
	db *sql.DB
}

func Open(ctx context.Context) (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open content store: %w", err)
	}
	// every connection to :memory: is its own database
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create content schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Replace makes c the active catalog.
func (s *Store) Replace(ctx context.Context, c *Catalog) error {
	if err := c.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"profile", "skills", "projects", "experience", "education"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	p := c.Profile
	_, err = tx.ExecContext(ctx, `
		INSERT INTO profile (id, name, headline, about, email, phone, github, linkedin, resume)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.Name, p.Headline, p.About, p.Email, p.Phone, p.Github, p.Linkedin, p.Resume)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}

	for g, group := range c.Skills {
		for i, name := range group.Items {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO skills (group_pos, category, position, name) VALUES (?, ?, ?, ?)
			`, g, group.Category, i, name)
			if err != nil {
				return fmt.Errorf("insert skill %q: %w", name, err)
			}
		}
	}

	for i, pr := range c.Projects {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO projects (position, title, description, tech, image, github, demo)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, i, pr.Title, pr.Description, encodeList(pr.Tech), pr.Image, pr.Github, pr.Demo)
		if err != nil {
			return fmt.Errorf("insert project %q: %w", pr.Title, err)
		}
	}

	for i, e := range c.Experience {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO experience (position, role, company, period, bullets) VALUES (?, ?, ?, ?, ?)
		`, i, e.Role, e.Company, e.Period, encodeList(e.Bullets))
		if err != nil {
			return fmt.Errorf("insert experience %q: %w", e.Role, err)
		}
	}

	for i, e := range c.Education {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO education (position, degree, institution, period, score) VALUES (?, ?, ?, ?, ?)
		`, i, e.Degree, e.Institution, e.Period, e.Score)
		if err != nil {
			return fmt.Errorf("insert education %q: %w", e.Degree, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

// Catalog reads the active catalog back out of the store.
func (s *Store) Catalog(ctx context.Context) (*Catalog, error) {
	c := &Catalog{}

	p := &c.Profile
	err := s.db.QueryRowContext(ctx, `
		SELECT name, headline, about, email, phone, github, linkedin, resume FROM profile WHERE id = 1
	`).Scan(&p.Name, &p.Headline, &p.About, &p.Email, &p.Phone, &p.Github, &p.Linkedin, &p.Resume)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT category, name FROM skills ORDER BY group_pos, position`)
	if err != nil {
		return nil, fmt.Errorf("load skills: %w", err)
	}
	for rows.Next() {
		var category, name string
		if err := rows.Scan(&category, &name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan skill: %w", err)
		}
		if n := len(c.Skills); n == 0 || c.Skills[n-1].Category != category {
			c.Skills = append(c.Skills, SkillGroup{Category: category})
		}
		last := &c.Skills[len(c.Skills)-1]
		last.Items = append(last.Items, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load skills: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT title, description, tech, image, github, demo FROM projects ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}
	for rows.Next() {
		var pr Project
		var tech string
		if err := rows.Scan(&pr.Title, &pr.Description, &tech, &pr.Image, &pr.Github, &pr.Demo); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan project: %w", err)
		}
		pr.Tech = decodeList(tech)
		c.Projects = append(c.Projects, pr)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `SELECT role, company, period, bullets FROM experience ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("load experience: %w", err)
	}
	for rows.Next() {
		var e Experience
		var bullets string
		if err := rows.Scan(&e.Role, &e.Company, &e.Period, &bullets); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan experience: %w", err)
		}
		e.Bullets = decodeList(bullets)
		c.Experience = append(c.Experience, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load experience: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `SELECT degree, institution, period, score FROM education ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("load education: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e Education
		if err := rows.Scan(&e.Degree, &e.Institution, &e.Period, &e.Score); err != nil {
			return nil, fmt.Errorf("scan education: %w", err)
		}
		c.Education = append(c.Education, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load education: %w", err)
	}

	return c, nil
}

// Skills returns the items of one skill category in display order.
func (s *Store) Skills(ctx context.Context, category string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM skills WHERE category = ? ORDER BY group_pos, position
	`, category)
	if err != nil {
		return nil, fmt.Errorf("query skills: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan skill: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// RevealText resolves a reveal slot name to the text it animates:
// "brand" (profile name), "tagline" (headline) or "project-N" (Nth title).
func (s *Store) RevealText(ctx context.Context, slot string) (string, error) {
	var (
		text string
		err  error
	)
	switch {
	case slot == "brand":
		err = s.db.QueryRowContext(ctx, `SELECT name FROM profile WHERE id = 1`).Scan(&text)
	case slot == "tagline":
		err = s.db.QueryRowContext(ctx, `SELECT COALESCE(headline, '') FROM profile WHERE id = 1`).Scan(&text)
	case strings.HasPrefix(slot, "project-"):
		n, convErr := strconv.Atoi(strings.TrimPrefix(slot, "project-"))
		if convErr != nil {
			return "", fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
		}
		err = s.db.QueryRowContext(ctx, `SELECT title FROM projects WHERE position = ?`, n).Scan(&text)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
	}
	if err != nil {
		return "", fmt.Errorf("lookup slot %q: %w", slot, err)
	}
	return text, nil
}

func encodeList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(items)
	return string(b)
}

func decodeList(s string) []string {
	var items []string
	if err := json.Unmarshal([]byte(s), &items); err != nil || len(items) == 0 {
		return nil
	}
	return items
}
