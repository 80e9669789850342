package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Generates a large realistic dataset for load and pagination testing:
// translations across several locales, tagged from a small fixed set.

var (
	locales = []string{"en", "fr", "es", "de", "kk"}
	tags    = []string{"web", "mobile", "desktop", "email", "admin"}
	words   = []string{
		"welcome", "dashboard", "profile", "settings", "checkout",
		"invoice", "payment", "notification", "search", "report",
	}
)

func main() {
	log.SetFlags(0)
	var (
		dsn   = flag.String("dsn", os.Getenv("GLOSSA_PG_DSN"), "PostgreSQL DSN")
		count = flag.Int("count", 100000, "Number of translations to insert")
		batch = flag.Int("batch", 500, "Rows per insert batch")
	)
	flag.Parse()

	if *dsn == "" {
		log.Fatal("missing DSN: provide via -dsn or GLOSSA_PG_DSN")
	}
	if *count <= 0 || *batch <= 0 {
		log.Fatal("count and batch must be positive")
	}

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	start := time.Now()

	tagIDs, err := ensureTags(ctx, db)
	if err != nil {
		log.Fatalf("ensure tags: %v", err)
	}

	inserted := 0
	for inserted < *count {
		n := *batch
		if remaining := *count - inserted; remaining < n {
			n = remaining
		}
		if err := insertBatch(ctx, db, n, tagIDs); err != nil {
			log.Fatalf("insert batch at %d: %v", inserted, err)
		}
		inserted += n
		if inserted%10000 == 0 {
			log.Printf("inserted %d/%d", inserted, *count)
		}
	}

	log.Printf("seeded %d translations in %s", inserted, time.Since(start).Round(time.Millisecond))
}

func ensureTags(ctx context.Context, db *sql.DB) ([]int64, error) {
	ids := make([]int64, 0, len(tags))
	for _, name := range tags {
		var id int64
		err := db.QueryRowContext(ctx, `
			insert into tags(name) values ($1)
			on conflict (name) do nothing
			returning id
		`, name).Scan(&id)
		if err == sql.ErrNoRows {
			err = db.QueryRowContext(ctx, `select id from tags where name = $1`, name).Scan(&id)
		}
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// insertBatch inserts n translations in one multi-row statement, then
// attaches 0-2 random tags to each returned id.
func insertBatch(ctx context.Context, db *sql.DB, n int, tagIDs []int64) error {
	var (
		sb   strings.Builder
		args = make([]any, 0, n*3)
	)
	sb.WriteString("insert into translations(key, value, locale) values ")
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, "($%d,$%d,$%d)", len(args)+1, len(args)+2, len(args)+3)
		word := words[rand.Intn(len(words))]
		args = append(args,
			fmt.Sprintf("%s.%s_%s", word, "key", uuid.NewString()),
			fmt.Sprintf("%s value %d", word, rand.Intn(1000)),
			locales[rand.Intn(len(locales))],
		)
	}
	sb.WriteString(" returning id")

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return err
	}
	ids := make([]int64, 0, n)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	var (
		assoc strings.Builder
		aargs []any
	)
	for _, id := range ids {
		for _, tagID := range pickTags(tagIDs) {
			if len(aargs) > 0 {
				assoc.WriteString(",")
			}
			fmt.Fprintf(&assoc, "($%d,$%d)", len(aargs)+1, len(aargs)+2)
			aargs = append(aargs, id, tagID)
		}
	}
	if len(aargs) > 0 {
		stmt := "insert into translation_tags(translation_id, tag_id) values " +
			assoc.String() + " on conflict do nothing"
		if _, err := tx.ExecContext(ctx, stmt, aargs...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func pickTags(tagIDs []int64) []int64 {
	n := rand.Intn(3)
	if n == 0 {
		return nil
	}
	perm := rand.Perm(len(tagIDs))
	out := make([]int64, 0, n)
	for _, i := range perm[:n] {
		out = append(out, tagIDs[i])
	}
	return out
}
