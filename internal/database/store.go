package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	dbconfig "classboard/pkg/database"
	"classboard/pkg/interfaces"
	"classboard/pkg/types"
)

// Store implements interfaces.EventStore on SQLite. Writes are funneled
// through a single goroutine; SQLite allows only one writer, while WAL mode
// keeps reads concurrent.
type Store struct {
	db       *sql.DB
	config   *dbconfig.Config
	writeCh  chan writeOperation
	shutdown chan struct{}
	wg       sync.WaitGroup
	closed   bool
	mu       sync.RWMutex
}

type writeOperation struct {
	operation func(*sql.DB) error
	result    chan error
}

// NewStore opens the database, applies pragmas, and starts the write loop.
func NewStore(config *dbconfig.Config) (*Store, error) {
	db, err := sql.Open("sqlite3", config.DatabasePath+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on&_loc=UTC")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxConnections)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	if err := dbconfig.ApplyPragmas(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply SQLite pragmas: %w", err)
	}

	store := &Store{
		db:       db,
		config:   config,
		writeCh:  make(chan writeOperation, 100),
		shutdown: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.writeLoop()

	return store, nil
}

// DB exposes the underlying pool for migrations and schema validation.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) writeLoop() {
	defer s.wg.Done()

	for {
		select {
		case op := <-s.writeCh:
			op.result <- op.operation(s.db)
		case <-s.shutdown:
			log.Println("Store write loop shutting down")
			return
		}
	}
}

func (s *Store) executeWrite(operation func(*sql.DB) error) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return fmt.Errorf("store is closed")
	}
	s.mu.RUnlock()

	result := make(chan error, 1)
	select {
	case s.writeCh <- writeOperation{operation: operation, result: result}:
		return <-result
	case <-time.After(30 * time.Second):
		return fmt.Errorf("write operation timeout")
	case <-s.shutdown:
		return fmt.Errorf("store is shutting down")
	}
}

// Close drains the write loop and closes the pool.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.shutdown)
	s.wg.Wait()
	return s.db.Close()
}

// Personal events

func (s *Store) CreatePersonalEvent(_ context.Context, event *types.PersonalEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	return s.executeWrite(func(db *sql.DB) error {
		_, err := db.Exec(`
			INSERT INTO personal_events (id, user_id, name, remark, location, start_time, end_time)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			event.ID, event.UserID, event.Name, event.Remark, event.Location,
			event.Start.UTC(), event.End.UTC(),
		)
		return err
	})
}

func (s *Store) UpdatePersonalEvent(_ context.Context, event *types.PersonalEvent) error {
	return s.executeWrite(func(db *sql.DB) error {
		res, err := db.Exec(`
			UPDATE personal_events
			SET name = ?, remark = ?, location = ?, start_time = ?, end_time = ?
			WHERE id = ? AND user_id = ?`,
			event.Name, event.Remark, event.Location, event.Start.UTC(), event.End.UTC(),
			event.ID, event.UserID,
		)
		if err != nil {
			return err
		}
		return requireRow(res)
	})
}

func (s *Store) DeletePersonalEvent(_ context.Context, eventID, userID string) error {
	return s.executeWrite(func(db *sql.DB) error {
		res, err := db.Exec(
			"DELETE FROM personal_events WHERE id = ? AND user_id = ?",
			eventID, userID,
		)
		if err != nil {
			return err
		}
		return requireRow(res)
	})
}

func (s *Store) GetPersonalEvent(ctx context.Context, eventID string) (*types.PersonalEvent, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, remark, location, start_time, end_time
		FROM personal_events WHERE id = ?`, eventID)

	var event types.PersonalEvent
	err := row.Scan(&event.ID, &event.UserID, &event.Name, &event.Remark,
		&event.Location, &event.Start, &event.End)
	if err == sql.ErrNoRows {
		return nil, interfaces.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get personal event: %w", err)
	}
	return &event, nil
}

// PersonalEventsInWindow returns the user's events whose [start, end] range
// intersects the half-open window.
func (s *Store) PersonalEventsInWindow(ctx context.Context, userID string, window types.WeekWindow) ([]types.PersonalEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, remark, location, start_time, end_time
		FROM personal_events
		WHERE user_id = ? AND end_time >= ? AND start_time < ?
		ORDER BY start_time`,
		userID, window.Start.UTC(), window.End.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query personal events: %w", err)
	}
	defer rows.Close()

	var events []types.PersonalEvent
	for rows.Next() {
		var event types.PersonalEvent
		if err := rows.Scan(&event.ID, &event.UserID, &event.Name, &event.Remark,
			&event.Location, &event.Start, &event.End); err != nil {
			return nil, fmt.Errorf("failed to scan personal event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// Class events

func (s *Store) CreateClassEvent(_ context.Context, event *types.ClassEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	return s.executeWrite(func(db *sql.DB) error {
		_, err := db.Exec(`
			INSERT INTO class_events (id, class_id, name, remark, location, start_time, end_time)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			event.ID, event.ClassID, event.Name, event.Remark, event.Location,
			event.Start.UTC(), event.End.UTC(),
		)
		return err
	})
}

func (s *Store) UpdateClassEvent(_ context.Context, event *types.ClassEvent) error {
	return s.executeWrite(func(db *sql.DB) error {
		res, err := db.Exec(`
			UPDATE class_events
			SET name = ?, remark = ?, location = ?, start_time = ?, end_time = ?
			WHERE id = ? AND class_id = ?`,
			event.Name, event.Remark, event.Location, event.Start.UTC(), event.End.UTC(),
			event.ID, event.ClassID,
		)
		if err != nil {
			return err
		}
		return requireRow(res)
	})
}

func (s *Store) DeleteClassEvent(_ context.Context, eventID string) error {
	return s.executeWrite(func(db *sql.DB) error {
		res, err := db.Exec("DELETE FROM class_events WHERE id = ?", eventID)
		if err != nil {
			return err
		}
		return requireRow(res)
	})
}

func (s *Store) GetClassEvent(ctx context.Context, eventID string) (*types.ClassEvent, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, class_id, name, remark, location, start_time, end_time
		FROM class_events WHERE id = ?`, eventID)

	var event types.ClassEvent
	err := row.Scan(&event.ID, &event.ClassID, &event.Name, &event.Remark,
		&event.Location, &event.Start, &event.End)
	if err == sql.ErrNoRows {
		return nil, interfaces.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get class event: %w", err)
	}
	return &event, nil
}

// ClassEventsInWindow returns events of every class where userID is on the
// roster (teacher or student), intersecting the half-open window.
func (s *Store) ClassEventsInWindow(ctx context.Context, userID string, window types.WeekWindow) ([]types.ClassEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ce.id, ce.class_id, ce.name, ce.remark, ce.location, ce.start_time, ce.end_time
		FROM class_events ce
		JOIN class_members cm ON cm.class_id = ce.class_id
		WHERE cm.user_id = ? AND ce.end_time >= ? AND ce.start_time < ?
		ORDER BY ce.start_time`,
		userID, window.Start.UTC(), window.End.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query class events: %w", err)
	}
	defer rows.Close()

	var events []types.ClassEvent
	for rows.Next() {
		var event types.ClassEvent
		if err := rows.Scan(&event.ID, &event.ClassID, &event.Name, &event.Remark,
			&event.Location, &event.Start, &event.End); err != nil {
			return nil, fmt.Errorf("failed to scan class event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// Class membership

// AddClassMember upserts a roster entry; re-adding a member updates the role
// (last write wins).
func (s *Store) AddClassMember(_ context.Context, member *types.Member) error {
	return s.executeWrite(func(db *sql.DB) error {
		_, err := db.Exec(`
			INSERT INTO class_members (class_id, user_id, role) VALUES (?, ?, ?)
			ON CONFLICT(class_id, user_id) DO UPDATE SET role = excluded.role`,
			member.ClassID, member.UserID, member.Role,
		)
		return err
	})
}

func (s *Store) RemoveClassMember(_ context.Context, classID, userID string) error {
	return s.executeWrite(func(db *sql.DB) error {
		_, err := db.Exec(
			"DELETE FROM class_members WHERE class_id = ? AND user_id = ?",
			classID, userID,
		)
		return err
	})
}

func (s *Store) ClassMembers(ctx context.Context, classID string) ([]types.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT class_id, user_id, role FROM class_members WHERE class_id = ? ORDER BY user_id",
		classID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query class members: %w", err)
	}
	defer rows.Close()

	var members []types.Member
	for rows.Next() {
		var member types.Member
		if err := rows.Scan(&member.ClassID, &member.UserID, &member.Role); err != nil {
			return nil, fmt.Errorf("failed to scan class member: %w", err)
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return interfaces.ErrEventNotFound
	}
	return nil
}
