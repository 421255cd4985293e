// store/postgres.go
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wfunc/georoom/logger"
	"github.com/wfunc/georoom/room"
)

// notifyChannel is the postgres NOTIFY channel carrying changed room codes.
const notifyChannel = "georoom_rooms"

type roomRecord struct {
	Code      string `gorm:"primaryKey;size:6"`
	Data      string `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time
}

func (roomRecord) TableName() string { return "rooms" }

// Postgres is the shared Store backend: one JSONB document per room, field
// merges via jsonb_set so concurrent writers only touch their own paths, and
// LISTEN/NOTIFY pushing changed codes to every connected process.
type Postgres struct {
	db       *gorm.DB
	listener *pq.Listener
	subs     *subscriberSet

	// pushMu serializes reading a snapshot with stamping it, so a refresh and
	// a new subscription can never hand out snapshots in fetch-reverse order.
	pushMu sync.Mutex
}

func NewPostgres(host string, port int, user, password, dbname string) (*Postgres, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	gormLogger := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold: time.Second,
			LogLevel:      gormlogger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&roomRecord{}); err != nil {
		return nil, err
	}

	listener := pq.NewListener(dsn, 10*time.Second, time.Minute, nil)
	if err := listener.Listen(notifyChannel); err != nil {
		listener.Close()
		return nil, err
	}

	p := &Postgres{
		db:       db,
		listener: listener,
		subs:     newSubscriberSet(),
	}
	go p.dispatch()

	return p, nil
}

// dispatch turns NOTIFY events into snapshot pushes. A nil notification means
// the listener reconnected and may have missed events, so every subscribed
// room is re-read.
func (p *Postgres) dispatch() {
	for n := range p.listener.Notify {
		if n == nil {
			for _, code := range p.subs.codes() {
				p.refresh(code)
			}
			continue
		}
		p.refresh(n.Extra)
	}
}

func (p *Postgres) refresh(code string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p.pushMu.Lock()
	defer p.pushMu.Unlock()

	doc, err := p.Get(ctx, code)
	if err != nil {
		if err != ErrNotFound {
			logger.Log.Errorf("Failed to read room %s after notify: %v", code, err)
		}
		return
	}
	p.subs.fanout(code, doc)
}

func (p *Postgres) Create(ctx context.Context, r *room.Room) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}

	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(
			`INSERT INTO rooms (code, data, updated_at) VALUES (?, ?::jsonb, now())
			 ON CONFLICT (code) DO NOTHING`,
			r.Code, string(data),
		)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyExists
		}
		return tx.Exec(`SELECT pg_notify(?, ?)`, notifyChannel, r.Code).Error
	})
}

func (p *Postgres) Get(ctx context.Context, code string) (*room.Room, error) {
	var rec roomRecord
	err := p.db.WithContext(ctx).First(&rec, "code = ?", code).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var doc room.Room
	if err := json.Unmarshal([]byte(rec.Data), &doc); err != nil {
		return nil, fmt.Errorf("decoding room %s: %w", code, err)
	}
	return &doc, nil
}

func (p *Postgres) UpdateFields(ctx context.Context, code string, fields map[string]any) error {
	expr, args, err := buildUpdateExpr(fields)
	if err != nil {
		return err
	}

	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sql := fmt.Sprintf(`UPDATE rooms SET data = %s, updated_at = now() WHERE code = ?`, expr)
		res := tx.Exec(sql, append(args, code)...)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Exec(`SELECT pg_notify(?, ?)`, notifyChannel, code).Error
	})
}

func (p *Postgres) DeleteField(ctx context.Context, code string, path string) error {
	return p.UpdateFields(ctx, code, map[string]any{path: Delete})
}

func (p *Postgres) Subscribe(ctx context.Context, code string, fn SnapshotFunc) (Unsubscribe, error) {
	p.pushMu.Lock()
	defer p.pushMu.Unlock()

	initial, err := p.Get(ctx, code)
	if err != nil {
		return nil, err
	}

	sub, unsubscribe := p.subs.add(code, fn)
	p.subs.pushInitial(sub, initial)
	return unsubscribe, nil
}

func (p *Postgres) Close() error {
	p.listener.Close()
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// buildUpdateExpr folds the field map into a nested jsonb expression:
// sets become jsonb_set(..., path, value, true), deletes become (... #- path).
// Paths are sorted so the generated SQL is deterministic, and a missing
// player record is created before any of its leaves are written (jsonb_set
// only creates the final key of a path).
func buildUpdateExpr(fields map[string]any) (string, []any, error) {
	paths := make([]string, 0, len(fields))
	for path := range fields {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	expr := "data"
	var args []any

	for _, parent := range missingParents(fields) {
		pg := pgPath(parent)
		expr = fmt.Sprintf(`jsonb_set(%s, ?::text[], COALESCE(data #> ?::text[], '{}'::jsonb), true)`, expr)
		args = append(args, pg, pg)
	}

	for _, path := range paths {
		value := fields[path]
		if _, isDelete := value.(deleteSentinel); isDelete {
			expr = fmt.Sprintf(`(%s #- ?::text[])`, expr)
			args = append(args, pgPath(path))
			continue
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return "", nil, fmt.Errorf("encoding value for %q: %w", path, err)
		}
		expr = fmt.Sprintf(`jsonb_set(%s, ?::text[], ?::jsonb, true)`, expr)
		args = append(args, pgPath(path), string(encoded))
	}

	return expr, args, nil
}

// missingParents lists the two-segment parents of deeper set paths that are
// not themselves set in the same call, in sorted order.
func missingParents(fields map[string]any) []string {
	seen := make(map[string]bool)
	for path, value := range fields {
		if _, isDelete := value.(deleteSentinel); isDelete {
			continue
		}
		parts := strings.Split(path, ".")
		if len(parts) < 3 {
			continue
		}
		parent := strings.Join(parts[:2], ".")
		if _, set := fields[parent]; !set {
			seen[parent] = true
		}
	}
	parents := make([]string, 0, len(seen))
	for parent := range seen {
		parents = append(parents, parent)
	}
	sort.Strings(parents)
	return parents
}

// pgPath converts "players.abc.guess" into the text[] literal {players,abc,guess}.
func pgPath(path string) string {
	return "{" + strings.ReplaceAll(path, ".", ",") + "}"
}
