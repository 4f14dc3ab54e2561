package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/keeperdesk/keeperdesk/internal/services/keeper/domain/auditlog"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/domain/investigator"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/storage"
)

var investigatorTextColumns = []string{"id", "name", "player_name", "occupation", "team_name", "card_type"}

func investigatorColumns() []string {
	cols := append([]string(nil), investigatorTextColumns...)
	cols = append(cols, investigator.Columns()...)
	return append(cols, "created_at", "updated_at")
}

var selectInvestigator = "SELECT " + strings.Join(investigatorColumns(), ", ") + " FROM investigators"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvestigator(row rowScanner) (investigator.Investigator, error) {
	var rec investigator.Investigator
	var cardType string
	var createdAt, updatedAt int64
	fields := investigator.ColumnFields()
	values := make([]int, len(fields))

	dest := []any{&rec.ID, &rec.Name, &rec.PlayerName, &rec.Occupation, &rec.TeamName, &cardType}
	for i := range values {
		dest = append(dest, &values[i])
	}
	dest = append(dest, &createdAt, &updatedAt)
	if err := row.Scan(dest...); err != nil {
		return investigator.Investigator{}, err
	}

	rec.CardType = investigator.CardType(cardType)
	for i, field := range fields {
		field.Set(&rec, values[i])
	}
	rec.Skills = map[string]int{}
	rec.CreatedAt = time.UnixMilli(createdAt).UTC()
	rec.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return rec, nil
}

// GetInvestigator loads one investigator with its skills.
func (s *Store) GetInvestigator(ctx context.Context, id string) (investigator.Investigator, error) {
	if err := s.ready(ctx); err != nil {
		return investigator.Investigator{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return investigator.Investigator{}, fmt.Errorf("investigator id is required")
	}
	return getInvestigator(ctx, s.sqlDB, id)
}

func getInvestigator(ctx context.Context, q queryer, id string) (investigator.Investigator, error) {
	rec, err := scanInvestigator(q.QueryRowContext(ctx, selectInvestigator+" WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return investigator.Investigator{}, storage.ErrNotFound
	}
	if err != nil {
		return investigator.Investigator{}, fmt.Errorf("get investigator: %w", err)
	}
	recs := []investigator.Investigator{rec}
	if err := loadSkills(ctx, q, recs); err != nil {
		return investigator.Investigator{}, err
	}
	return recs[0], nil
}

// ListTeam lists one team in initiative order.
func (s *Store) ListTeam(ctx context.Context, team string) ([]investigator.Investigator, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	return s.listInvestigators(ctx, selectInvestigator+`
WHERE team_name = ?
ORDER BY dex_stat DESC, id ASC
`, strings.TrimSpace(team))
}

// ListInvestigators lists every investigator grouped by team in initiative order.
func (s *Store) ListInvestigators(ctx context.Context) ([]investigator.Investigator, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	return s.listInvestigators(ctx, selectInvestigator+`
ORDER BY team_name ASC, dex_stat DESC, id ASC
`)
}

func (s *Store) listInvestigators(ctx context.Context, query string, args ...any) ([]investigator.Investigator, error) {
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list investigators: %w", err)
	}
	defer rows.Close()

	recs := []investigator.Investigator{}
	for rows.Next() {
		rec, err := scanInvestigator(rows)
		if err != nil {
			return nil, fmt.Errorf("scan investigator: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate investigators: %w", err)
	}
	if err := loadSkills(ctx, s.sqlDB, recs); err != nil {
		return nil, err
	}
	return recs, nil
}

func loadSkills(ctx context.Context, q queryer, recs []investigator.Investigator) error {
	if len(recs) == 0 {
		return nil
	}
	index := make(map[string]int, len(recs))
	args := make([]any, 0, len(recs))
	for i, rec := range recs {
		index[rec.ID] = i
		args = append(args, rec.ID)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")
	rows, err := q.QueryContext(ctx, `
SELECT investigator_id, skill_key, value
FROM investigator_skills
WHERE investigator_id IN (`+placeholders+`)
`, args...)
	if err != nil {
		return fmt.Errorf("list skills: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, key string
		var value int
		if err := rows.Scan(&id, &key, &value); err != nil {
			return fmt.Errorf("scan skill: %w", err)
		}
		if i, ok := index[id]; ok {
			recs[i].Skills[key] = value
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate skills: %w", err)
	}
	return nil
}

// PutInvestigator inserts or replaces an investigator and its skills.
func (s *Store) PutInvestigator(ctx context.Context, rec investigator.Investigator) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	rec.Normalize()
	if rec.ID == "" {
		return fmt.Errorf("investigator id is required")
	}
	if rec.Name == "" {
		return fmt.Errorf("investigator name is required")
	}
	now := s.timestamp()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	cols := investigatorColumns()
	args := []any{rec.ID, rec.Name, rec.PlayerName, rec.Occupation, rec.TeamName, string(rec.CardType)}
	for _, field := range investigator.ColumnFields() {
		args = append(args, field.Get(rec))
	}
	args = append(args, rec.CreatedAt.UnixMilli(), rec.UpdatedAt.UnixMilli())

	updates := make([]string, 0, len(cols))
	for _, col := range cols {
		if col == "id" || col == "created_at" {
			continue
		}
		updates = append(updates, col+" = excluded."+col)
	}
	upsert := fmt.Sprintf(`
INSERT INTO investigators (%s)
VALUES (%s)
ON CONFLICT(id) DO UPDATE SET %s
`, strings.Join(cols, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "), strings.Join(updates, ", "))

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if _, err := tx.ExecContext(ctx, upsert, args...); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("put investigator: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM investigator_skills WHERE investigator_id = ?", rec.ID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear skills: %w", err)
	}
	keys := make([]string, 0, len(rec.Skills))
	for key := range rec.Skills {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO investigator_skills (investigator_id, skill_key, value) VALUES (?, ?, ?)",
			rec.ID, key, rec.Skills[key],
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("put skill %s: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// AdjustField adds delta to a column-backed field in place and records the
// entry built by describe in the same transaction.
func (s *Store) AdjustField(ctx context.Context, id string, field investigator.Field, delta int, describe storage.DescribeFunc) (investigator.Investigator, auditlog.Entry, error) {
	if err := s.ready(ctx); err != nil {
		return investigator.Investigator{}, auditlog.Entry{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return investigator.Investigator{}, auditlog.Entry{}, fmt.Errorf("investigator id is required")
	}
	if field.IsSkill() || !slices.Contains(investigator.Columns(), field.Column) {
		return investigator.Investigator{}, auditlog.Entry{}, fmt.Errorf("field %q is not column backed", field.Name)
	}

	now := s.timestamp()
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return investigator.Investigator{}, auditlog.Entry{}, fmt.Errorf("begin transaction: %w", err)
	}

	// The sum is taken in Go so overflow wraps like any int instead of SQLite
	// promoting the column to REAL. The write lock taken by the immediate
	// transaction plus the compare on the old value keep the increment atomic.
	var current int64
	err = tx.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM investigators WHERE id = ?", field.Column), id,
	).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		_ = tx.Rollback()
		return investigator.Investigator{}, auditlog.Entry{}, storage.ErrNotFound
	}
	if err != nil {
		_ = tx.Rollback()
		return investigator.Investigator{}, auditlog.Entry{}, fmt.Errorf("read %s: %w", field.Name, err)
	}
	next := int64(int(current) + delta)
	res, err := tx.ExecContext(ctx,
		fmt.Sprintf("UPDATE investigators SET %[1]s = ?, updated_at = ? WHERE id = ? AND %[1]s = ?", field.Column),
		next, now.UnixMilli(), id, current,
	)
	if err != nil {
		_ = tx.Rollback()
		return investigator.Investigator{}, auditlog.Entry{}, fmt.Errorf("adjust %s: %w", field.Name, err)
	}
	if n, err := res.RowsAffected(); err != nil || n != 1 {
		_ = tx.Rollback()
		return investigator.Investigator{}, auditlog.Entry{}, fmt.Errorf("adjust %s: value changed concurrently", field.Name)
	}

	rec, err := getInvestigator(ctx, tx, id)
	if err != nil {
		_ = tx.Rollback()
		return investigator.Investigator{}, auditlog.Entry{}, err
	}

	var entry auditlog.Entry
	if describe != nil {
		entry, err = insertLog(ctx, tx, describe(rec), now)
		if err != nil {
			_ = tx.Rollback()
			return investigator.Investigator{}, auditlog.Entry{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return investigator.Investigator{}, auditlog.Entry{}, fmt.Errorf("commit: %w", err)
	}
	return rec, entry, nil
}
