// Package storage persists users, profiles, conversation history, and logged
// workouts and meals in SQLite. The schema is managed by embedded migrations
// applied on open.
package storage

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"coachd/internal/profile"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database with methods for profiles, messages,
// workouts, and meals.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending migrations.
// Pass ":memory:" as dataDir for an in-memory database (used by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "coach.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	// Set busy timeout so concurrent access waits briefly instead of failing immediately.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate reads embedded SQL migration files and applies any that haven't been run yet.
func (s *Store) migrate() error {
	// Ensure schema_version table exists (bootstrap).
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort by filename to guarantee ascending order.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		// Check if already applied.
		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the list of applied migration versions in ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// --- Users ---

// EnsureUser creates the user row if it does not exist yet.
func (s *Store) EnsureUser(userID string) error {
	_, err := s.db.Exec(`INSERT OR IGNORE INTO users (id, created_at) VALUES (?, ?)`,
		userID, time.Now().UTC().Format(time.RFC3339))
	return err
}

// --- Profiles ---

// GetProfile loads the profile for userID. The second return value reports
// whether a stored profile exists.
func (s *Store) GetProfile(userID string) (profile.Profile, bool, error) {
	var p profile.Profile
	var goal, activity string
	err := s.db.QueryRow(`
		SELECT user_id, name, age, weight_lb, height_ft, goal, activity_level, dietary_restrictions, preferences
		FROM profiles WHERE user_id = ?`, userID,
	).Scan(&p.UserID, &p.Name, &p.Age, &p.WeightLb, &p.HeightFt, &goal, &activity, &p.DietaryRestrictions, &p.Preferences)
	if err == sql.ErrNoRows {
		return profile.Profile{}, false, nil
	}
	if err != nil {
		return profile.Profile{}, false, err
	}
	// Unknown stored tags collapse to unset rather than failing the read.
	p.Goal, _ = profile.ParseGoal(goal)
	p.ActivityLevel, _ = profile.ParseActivityLevel(activity)
	return p, true, nil
}

// SaveProfile upserts the profile, creating the user row if needed.
func (s *Store) SaveProfile(p profile.Profile) error {
	if err := s.EnsureUser(p.UserID); err != nil {
		return fmt.Errorf("ensuring user %s: %w", p.UserID, err)
	}
	_, err := s.db.Exec(`
		INSERT INTO profiles (user_id, name, age, weight_lb, height_ft, goal, activity_level, dietary_restrictions, preferences, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			name = excluded.name,
			age = excluded.age,
			weight_lb = excluded.weight_lb,
			height_ft = excluded.height_ft,
			goal = excluded.goal,
			activity_level = excluded.activity_level,
			dietary_restrictions = excluded.dietary_restrictions,
			preferences = excluded.preferences,
			updated_at = excluded.updated_at`,
		p.UserID, p.Name, p.Age, p.WeightLb, p.HeightFt,
		string(p.Goal), string(p.ActivityLevel), p.DietaryRestrictions, p.Preferences,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// --- Messages ---

// AppendMessage stores one conversation turn.
func (s *Store) AppendMessage(m Message) error {
	if err := s.EnsureUser(m.UserID); err != nil {
		return fmt.Errorf("ensuring user %s: %w", m.UserID, err)
	}
	createdAt := m.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO messages (id, user_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.Role, m.Content, createdAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// ListMessages returns the user's conversation oldest first. A limit above
// zero returns only the most recent limit messages, still oldest first.
func (s *Store) ListMessages(userID string, limit int) ([]Message, error) {
	query := `
		SELECT id, user_id, role, content, created_at
		FROM messages WHERE user_id = ? ORDER BY created_at ASC, id ASC`
	args := []interface{}{userID}
	if limit > 0 {
		query = `
			SELECT id, user_id, role, content, created_at FROM (
				SELECT id, user_id, role, content, created_at
				FROM messages WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?
			) ORDER BY created_at ASC, id ASC`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Message
	for rows.Next() {
		var m Message
		var createdAt string
		if err := rows.Scan(&m.ID, &m.UserID, &m.Role, &m.Content, &createdAt); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		m.CreatedAt = t
		results = append(results, m)
	}
	return results, rows.Err()
}

// --- Workouts ---

func (s *Store) SaveWorkout(w Workout) error {
	if err := s.EnsureUser(w.UserID); err != nil {
		return fmt.Errorf("ensuring user %s: %w", w.UserID, err)
	}
	createdAt := w.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	exercises, err := json.Marshal(w.Exercises)
	if err != nil {
		return fmt.Errorf("encoding exercises: %w", err)
	}
	var completedAt any
	if !w.CompletedAt.IsZero() {
		completedAt = w.CompletedAt.UTC().Format(time.RFC3339)
	}
	_, err = s.db.Exec(`
		INSERT INTO workouts (id, user_id, name, description, exercises, duration_min, completed, completed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.UserID, w.Name, w.Description, string(exercises), w.DurationMin, w.Completed, completedAt,
		createdAt.UTC().Format(time.RFC3339),
	)
	return err
}

// CompleteWorkout marks a workout done and stamps the completion time.
// Returns ErrNotFound when the workout does not exist for the user.
func (s *Store) CompleteWorkout(userID, workoutID string, completedAt time.Time) error {
	if completedAt.IsZero() {
		completedAt = time.Now()
	}
	res, err := s.db.Exec(`
		UPDATE workouts SET completed = 1, completed_at = ?
		WHERE id = ? AND user_id = ?`,
		completedAt.UTC().Format(time.RFC3339), workoutID, userID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListWorkouts returns the user's workouts, most recent first.
func (s *Store) ListWorkouts(userID string, limit int) ([]Workout, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, name, description, exercises, duration_min, completed, completed_at, created_at
		FROM workouts WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		userID, limitOrDefault(limit),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Workout
	for rows.Next() {
		var w Workout
		var exercises, createdAt string
		var completedAt sql.NullString
		if err := rows.Scan(&w.ID, &w.UserID, &w.Name, &w.Description, &exercises, &w.DurationMin, &w.Completed, &completedAt, &createdAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(exercises), &w.Exercises); err != nil {
			return nil, fmt.Errorf("decoding exercises: %w", err)
		}
		if completedAt.Valid {
			t, err := time.Parse(time.RFC3339, completedAt.String)
			if err != nil {
				return nil, fmt.Errorf("parsing completed_at: %w", err)
			}
			w.CompletedAt = t
		}
		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		w.CreatedAt = t
		results = append(results, w)
	}
	return results, rows.Err()
}

// --- Meals ---

func (s *Store) SaveMeal(m Meal) error {
	if err := s.EnsureUser(m.UserID); err != nil {
		return fmt.Errorf("ensuring user %s: %w", m.UserID, err)
	}
	createdAt := m.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO meals (id, user_id, name, description, calories, protein, carbs, fats, meal_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.Name, m.Description, m.Calories, m.Protein, m.Carbs, m.Fats, m.MealType,
		createdAt.UTC().Format(time.RFC3339),
	)
	return err
}

// ListMeals returns the user's meals, most recent first.
func (s *Store) ListMeals(userID string, limit int) ([]Meal, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, name, description, calories, protein, carbs, fats, meal_type, created_at
		FROM meals WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		userID, limitOrDefault(limit),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Meal
	for rows.Next() {
		var m Meal
		var createdAt string
		if err := rows.Scan(&m.ID, &m.UserID, &m.Name, &m.Description, &m.Calories, &m.Protein, &m.Carbs, &m.Fats, &m.MealType, &createdAt); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		m.CreatedAt = t
		results = append(results, m)
	}
	return results, rows.Err()
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return 100
	}
	return limit
}
