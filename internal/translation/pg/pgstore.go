package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"glossa.dev/internal/translation"
)

// Store implements translation.Service on PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ translation.Service = (*Store)(nil)

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// New wraps an existing pool (shared with the auth store and readiness probe).
func New(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Create(ctx context.Context, key, value, locale string, tags []string) (translation.Translation, error) {
	if err := translation.Validate(key, value, locale); err != nil {
		return translation.Translation{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return translation.Translation{}, err
	}
	defer func() { _ = tx.Rollback() }()

	t := translation.Translation{Key: key, Value: value, Locale: locale}
	err = tx.QueryRowContext(ctx, `
		insert into translations(key, value, locale)
		values ($1,$2,$3)
		returning id, created_at, updated_at
	`, key, value, locale).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return translation.Translation{}, err
	}

	if err := reconcileTags(ctx, tx, t.ID, tags); err != nil {
		return translation.Translation{}, err
	}
	if t.Tags, err = loadTags(ctx, tx, t.ID); err != nil {
		return translation.Translation{}, err
	}
	if err := tx.Commit(); err != nil {
		return translation.Translation{}, err
	}
	return t, nil
}

func (s *Store) Get(ctx context.Context, id int64) (translation.Translation, error) {
	t, err := scanOne(s.db.QueryRowContext(ctx, `
		select id, key, value, locale, created_at, updated_at
		from translations where id = $1
	`, id))
	if err != nil {
		return translation.Translation{}, err
	}
	if t.Tags, err = loadTags(ctx, s.db, t.ID); err != nil {
		return translation.Translation{}, err
	}
	return t, nil
}

func (s *Store) Update(ctx context.Context, id int64, key, value, locale string, tags []string) (translation.Translation, error) {
	if err := translation.Validate(key, value, locale); err != nil {
		return translation.Translation{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return translation.Translation{}, err
	}
	defer func() { _ = tx.Rollback() }()

	t := translation.Translation{ID: id, Key: key, Value: value, Locale: locale}
	err = tx.QueryRowContext(ctx, `
		update translations set key = $1, value = $2, locale = $3, updated_at = now()
		where id = $4
		returning created_at, updated_at
	`, key, value, locale, id).Scan(&t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return translation.Translation{}, translation.ErrNotFound
	}
	if err != nil {
		return translation.Translation{}, err
	}

	if err := reconcileTags(ctx, tx, id, tags); err != nil {
		return translation.Translation{}, err
	}
	if t.Tags, err = loadTags(ctx, tx, id); err != nil {
		return translation.Translation{}, err
	}
	if err := tx.Commit(); err != nil {
		return translation.Translation{}, err
	}
	return t, nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	// Associations go with the row via on delete cascade.
	res, err := s.db.ExecContext(ctx, `delete from translations where id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return translation.ErrNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context, f translation.Filter, page int) (translation.Page, error) {
	if page < 1 {
		page = 1
	}
	where, args := buildPredicates(f)

	var total int
	if err := s.db.QueryRowContext(ctx,
		`select count(*) from translations t`+where, args...).Scan(&total); err != nil {
		return translation.Page{}, err
	}

	limitPos := len(args) + 1
	args = append(args, translation.PageSize, (page-1)*translation.PageSize)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		select t.id, t.key, t.value, t.locale, t.created_at, t.updated_at
		from translations t%s
		order by t.id asc
		limit $%d offset $%d
	`, where, limitPos, limitPos+1), args...)
	if err != nil {
		return translation.Page{}, err
	}
	defer rows.Close()

	data := make([]translation.Translation, 0, translation.PageSize)
	for rows.Next() {
		var t translation.Translation
		if err := rows.Scan(&t.ID, &t.Key, &t.Value, &t.Locale, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return translation.Page{}, err
		}
		data = append(data, t)
	}
	if err := rows.Err(); err != nil {
		return translation.Page{}, err
	}
	for i := range data {
		if data[i].Tags, err = loadTags(ctx, s.db, data[i].ID); err != nil {
			return translation.Page{}, err
		}
	}
	return translation.Page{
		Data:    data,
		Total:   total,
		Page:    page,
		PerPage: translation.PageSize,
	}, nil
}

func (s *Store) ScanLocale(ctx context.Context, locale string, chunkSize int, fn func(key, value string) error) error {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	type pair struct{ key, value string }

	// Keyset scan ordered by key; distinct on (key) with id desc makes the
	// highest id win for duplicate keys, so at most one chunk is ever held.
	lastKey := ""
	for {
		rows, err := s.db.QueryContext(ctx, `
			select distinct on (key) key, value
			from translations
			where locale = $1 and key > $2
			order by key asc, id desc
			limit $3
		`, locale, lastKey, chunkSize)
		if err != nil {
			return err
		}
		chunk := make([]pair, 0, chunkSize)
		for rows.Next() {
			var p pair
			if err := rows.Scan(&p.key, &p.value); err != nil {
				rows.Close()
				return err
			}
			chunk = append(chunk, p)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		if len(chunk) == 0 {
			return nil
		}
		for _, p := range chunk {
			if err := fn(p.key, p.value); err != nil {
				return err
			}
		}
		lastKey = chunk[len(chunk)-1].key
		if len(chunk) < chunkSize {
			return nil
		}
	}
}

// buildPredicates turns the present filters into a conjunction; absent
// filters contribute nothing to the query.
func buildPredicates(f translation.Filter) (string, []any) {
	if f.IsZero() {
		return "", nil
	}
	var conds []string
	var args []any
	if f.Tag != "" {
		args = append(args, f.Tag)
		conds = append(conds, fmt.Sprintf(`exists (
			select 1 from translation_tags tt
			join tags tg on tg.id = tt.tag_id
			where tt.translation_id = t.id and tg.name = $%d)`, len(args)))
	}
	if f.Key != "" {
		args = append(args, "%"+escapeLike(f.Key)+"%")
		conds = append(conds, fmt.Sprintf(`t.key ilike $%d`, len(args)))
	}
	if f.Value != "" {
		args = append(args, "%"+escapeLike(f.Value)+"%")
		conds = append(conds, fmt.Sprintf(`t.value ilike $%d`, len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " where " + strings.Join(conds, " and "), args
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// reconcileTags makes the translation's association set equal the
// deduplicated target names, creating missing tags along the way. An empty
// target list leaves the set unchanged. Runs inside the caller's
// transaction so partial diffs never become visible.
func reconcileTags(ctx context.Context, q querier, translationID int64, names []string) error {
	names = translation.DedupeNames(names)
	if len(names) == 0 {
		return nil
	}

	target := make(map[int64]struct{}, len(names))
	for _, name := range names {
		id, err := getOrCreateTag(ctx, q, name)
		if err != nil {
			return err
		}
		target[id] = struct{}{}
	}

	rows, err := q.QueryContext(ctx,
		`select tag_id from translation_tags where translation_id = $1`, translationID)
	if err != nil {
		return err
	}
	current := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		current[id] = struct{}{}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for id := range target {
		if _, ok := current[id]; ok {
			continue
		}
		if _, err := q.ExecContext(ctx, `
			insert into translation_tags(translation_id, tag_id)
			values ($1,$2) on conflict do nothing
		`, translationID, id); err != nil {
			return err
		}
	}
	for id := range current {
		if _, ok := target[id]; ok {
			continue
		}
		if _, err := q.ExecContext(ctx,
			`delete from translation_tags where translation_id = $1 and tag_id = $2`,
			translationID, id); err != nil {
			return err
		}
	}
	return nil
}

// getOrCreateTag resolves a tag name to its id. The unique constraint on
// tags.name makes concurrent creates of the same name converge on one row:
// the losing insert hits the conflict and falls through to the fetch.
func getOrCreateTag(ctx context.Context, q querier, name string) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `
		insert into tags(name) values ($1)
		on conflict (name) do nothing
		returning id
	`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	err = q.QueryRowContext(ctx, `select id from tags where name = $1`, name).Scan(&id)
	return id, err
}

func loadTags(ctx context.Context, q querier, translationID int64) ([]translation.Tag, error) {
	rows, err := q.QueryContext(ctx, `
		select tg.id, tg.name
		from tags tg
		join translation_tags tt on tt.tag_id = tg.id
		where tt.translation_id = $1
		order by tg.id asc
	`, translationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := make([]translation.Tag, 0, 4)
	for rows.Next() {
		var t translation.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func scanOne(row *sql.Row) (translation.Translation, error) {
	var t translation.Translation
	err := row.Scan(&t.ID, &t.Key, &t.Value, &t.Locale, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return translation.Translation{}, translation.ErrNotFound
	}
	if err != nil {
		return translation.Translation{}, err
	}
	return t, nil
}
