package engine

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"catalog-admin/internal/metadata"
	"catalog-admin/internal/store"
)

// FileStore is the slice of the uploads store the repository needs: turning
// data URLs into stored files and cleaning up comma-joined URL lists.
type FileStore interface {
	SaveDataURL(dataURL string) (string, error)
	DeleteURLList(joined string)
}

// Repository is the generic persistence layer for one entity, driven entirely
// by its metadata descriptor.
type Repository struct {
	store  *store.Store
	reg    *metadata.Registry
	entity *metadata.Entity
	sqlb   *SQLBuilder
	rules  *Rules
	files  FileStore
	log    zerolog.Logger
}

func NewRepository(st *store.Store, reg *metadata.Registry, entity *metadata.Entity, rules *Rules, fs FileStore, log zerolog.Logger) *Repository {
	return &Repository{
		store:  st,
		reg:    reg,
		entity: entity,
		sqlb:   NewSQLBuilder(reg, st.Dialect),
		rules:  rules,
		files:  fs,
		log:    log.With().Str("entity", entity.Name).Logger(),
	}
}

func (r *Repository) Entity() *metadata.Entity { return r.entity }

// List returns one page of filtered, sorted records with relations attached,
// plus the total count of the filtered set independent of the page window.
func (r *Repository) List(ctx context.Context, filter FilterSpec, sort SortSpec, page Page) ([]map[string]any, int, error) {
	countSQL, countArgs := r.sqlb.BuildCountSQL(r.entity, filter)
	countRow, err := store.QueryRow(ctx, r.store.DB, countSQL, countArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", r.entity.Name, err)
	}
	total := toInt(countRow["total"])

	listSQL, listArgs := r.sqlb.BuildListSQL(r.entity, filter, sort, page)
	rows, err := store.QueryRows(ctx, r.store.DB, listSQL, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", r.entity.Name, err)
	}
	if rows == nil {
		rows = []map[string]any{}
	}

	r.normalizeRows(rows)
	if err := r.attachIncludes(ctx, rows); err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Get returns one record by primary key with relations attached.
func (r *Repository) Get(ctx context.Context, rawID string) (map[string]any, error) {
	id, err := r.coercePK(rawID)
	if err != nil {
		return nil, store.ErrNotFound
	}

	sqlStr, args := r.sqlb.BuildGetSQL(r.entity, id)
	row, err := store.QueryRow(ctx, r.store.DB, sqlStr, args...)
	if err != nil {
		return nil, err
	}

	rows := []map[string]any{row}
	r.normalizeRows(rows)
	if err := r.attachIncludes(ctx, rows); err != nil {
		return nil, err
	}
	return row, nil
}

// Create inserts a record from a whitelisted payload. Writable N:N relation
// lists connect existing related rows; a files list is written to the File
// column as comma-joined upload URLs.
func (r *Repository) Create(ctx context.Context, payload map[string]any) (map[string]any, error) {
	w, err := r.splitPayload(payload)
	if err != nil {
		return nil, err
	}
	if err := r.rules.Run(r.entity, w.columns); err != nil {
		return nil, err
	}
	if err := r.processFiles(w); err != nil {
		return nil, err
	}

	tx, err := r.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	id, err := r.insertRow(ctx, tx, w)
	if err != nil {
		return nil, err
	}
	for relName, ids := range w.relations {
		rel := r.entity.Relation(relName)
		if err := r.replaceJoinRows(ctx, tx, rel, id, ids, false); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return r.Get(ctx, fmt.Sprint(id))
}

// Update modifies a record by primary key. Existence is checked first so a
// missing id is a 404 rather than a silent no-op. Writable N:N relations are
// replace-set: an absent list clears them. A supplied files list deletes the
// record's current files before storing the new ones.
func (r *Repository) Update(ctx context.Context, rawID string, payload map[string]any) (map[string]any, error) {
	id, err := r.coercePK(rawID)
	if err != nil {
		return nil, store.ErrNotFound
	}

	getSQL, getArgs := r.sqlb.BuildGetSQL(r.entity, id)
	current, err := store.QueryRow(ctx, r.store.DB, getSQL, getArgs...)
	if err != nil {
		return nil, err
	}

	w, err := r.splitPayload(payload)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]any, len(current)+len(w.columns))
	for k, v := range current {
		merged[k] = v
	}
	for k, v := range w.columns {
		merged[k] = v
	}
	if err := r.rules.Run(r.entity, merged); err != nil {
		return nil, err
	}

	if w.filesProvided {
		for _, col := range r.entity.FileColumns() {
			if old, ok := current[col.Name].(string); ok && old != "" {
				r.files.DeleteURLList(old)
			}
		}
	}
	if err := r.processFiles(w); err != nil {
		return nil, err
	}

	tx, err := r.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := r.updateRow(ctx, tx, id, w); err != nil {
		return nil, err
	}
	for i := range r.entity.Relations {
		rel := &r.entity.Relations[i]
		if !rel.Writable {
			continue
		}
		if err := r.replaceJoinRows(ctx, tx, rel, id, w.relations[rel.Name], true); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return r.Get(ctx, rawID)
}

// Delete removes a record by primary key. Files referenced by File columns
// are unlinked first, best-effort; a failed unlink never blocks the delete.
func (r *Repository) Delete(ctx context.Context, rawID string) error {
	id, err := r.coercePK(rawID)
	if err != nil {
		return store.ErrNotFound
	}

	getSQL, getArgs := r.sqlb.BuildGetSQL(r.entity, id)
	current, err := store.QueryRow(ctx, r.store.DB, getSQL, getArgs...)
	if err != nil {
		return err
	}

	for _, col := range r.entity.FileColumns() {
		if urls, ok := current[col.Name].(string); ok && urls != "" {
			r.files.DeleteURLList(urls)
		}
	}

	pb := r.store.Dialect.NewParamBuilder()
	sqlStr := fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
		r.entity.Table, r.entity.PrimaryKey().DBName, pb.Add(id))
	n, err := store.Exec(ctx, r.store.DB, sqlStr, pb.Params()...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.entity.Name, r.store.Dialect.MapError(err))
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// writeSet is a payload split into its destinations: scalar column values,
// writable relation id lists, and the upload list.
type writeSet struct {
	columns       map[string]any      // wire name -> coerced value
	relations     map[string][]any    // relation wire name -> coerced related ids
	fileDataURLs  []string
	filesProvided bool
}

// splitPayload whitelists the payload against the schema. Unknown keys are
// rejected rather than dropped.
func (r *Repository) splitPayload(payload map[string]any) (*writeSet, error) {
	w := &writeSet{
		columns:   make(map[string]any),
		relations: make(map[string][]any),
	}

	for key, value := range payload {
		if key == "files" && r.entity.HasFileColumns() {
			list, err := toStringList(value)
			if err != nil {
				return nil, Validation("files must be a list of data URLs")
			}
			w.fileDataURLs = list
			w.filesProvided = true
			continue
		}

		if rel := r.entity.Relation(key); rel != nil && rel.Writable {
			related := r.reg.Entity(rel.Entity)
			raw, ok := value.([]any)
			if !ok {
				return nil, Validation(key + " must be a list of ids")
			}
			ids := make([]any, 0, len(raw))
			for _, item := range raw {
				id, err := coercePKValue(related, item)
				if err != nil {
					return nil, Validation(fmt.Sprintf("invalid id in %s", key))
				}
				ids = append(ids, id)
			}
			w.relations[rel.Name] = ids
			continue
		}

		col := r.entity.Column(key)
		if col == nil || col.PrimaryKey || col.IsAuto() {
			return nil, Validation("unknown field " + key)
		}
		coerced, err := r.coerceValue(col, value)
		if err != nil {
			return nil, err
		}
		w.columns[col.Name] = coerced
	}
	return w, nil
}

// processFiles stores every data URL and writes the joined URLs into the File
// column. Called after validation so a bad payload never leaves files behind.
func (r *Repository) processFiles(w *writeSet) error {
	if !w.filesProvided {
		return nil
	}
	fileCols := r.entity.FileColumns()
	if len(fileCols) == 0 {
		return nil
	}

	urls := make([]string, 0, len(w.fileDataURLs))
	for _, dataURL := range w.fileDataURLs {
		url, err := r.files.SaveDataURL(dataURL)
		if err != nil {
			return err
		}
		urls = append(urls, url)
	}
	w.columns[fileCols[0].Name] = strings.Join(urls, ",")
	return nil
}

func (r *Repository) insertRow(ctx context.Context, tx *sql.Tx, w *writeSet) (any, error) {
	pb := r.store.Dialect.NewParamBuilder()
	var names, values []string
	var returnID any

	pk := r.entity.PrimaryKey()
	for _, col := range r.entity.Columns {
		switch {
		case col.PrimaryKey:
			if col.Type == metadata.UUID {
				id := uuid.New().String()
				returnID = id
				names = append(names, col.DBName)
				values = append(values, pb.Add(id))
			}
			// integer keys come from the database
		case col.Auto == metadata.AutoCreate, col.Auto == metadata.AutoUpdate:
			names = append(names, col.DBName)
			values = append(values, pb.Add(r.now()))
		default:
			v, ok := w.columns[col.Name]
			if !ok {
				continue
			}
			if col.Sensitive {
				hashed, err := hashSensitive(v)
				if err != nil {
					return nil, err
				}
				v = hashed
			}
			names = append(names, col.DBName)
			values = append(values, pb.Add(v))
		}
	}

	sqlStr := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		r.entity.Table, strings.Join(names, ", "), strings.Join(values, ", "))
	if len(names) == 0 {
		sqlStr = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", r.entity.Table)
	}

	if returnID != nil {
		if _, err := tx.ExecContext(ctx, sqlStr, pb.Params()...); err != nil {
			return nil, fmt.Errorf("insert %s: %w", r.entity.Name, r.store.Dialect.MapError(err))
		}
		return returnID, nil
	}

	sqlStr += " RETURNING " + pk.DBName
	var id any
	if err := tx.QueryRowContext(ctx, sqlStr, pb.Params()...).Scan(&id); err != nil {
		return nil, fmt.Errorf("insert %s: %w", r.entity.Name, r.store.Dialect.MapError(err))
	}
	return id, nil
}

func (r *Repository) updateRow(ctx context.Context, tx *sql.Tx, id any, w *writeSet) error {
	pb := r.store.Dialect.NewParamBuilder()
	var sets []string

	for _, col := range r.entity.Columns {
		if col.Auto == metadata.AutoUpdate {
			sets = append(sets, fmt.Sprintf("%s = %s", col.DBName, pb.Add(r.now())))
			continue
		}
		v, ok := w.columns[col.Name]
		if !ok {
			continue
		}
		if col.Sensitive {
			hashed, err := hashSensitive(v)
			if err != nil {
				return err
			}
			v = hashed
		}
		sets = append(sets, fmt.Sprintf("%s = %s", col.DBName, pb.Add(v)))
	}
	if len(sets) == 0 {
		return nil
	}

	sqlStr := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		r.entity.Table, strings.Join(sets, ", "), r.entity.PrimaryKey().DBName, pb.Add(id))
	if _, err := tx.ExecContext(ctx, sqlStr, pb.Params()...); err != nil {
		return fmt.Errorf("update %s: %w", r.entity.Name, r.store.Dialect.MapError(err))
	}
	return nil
}

// replaceJoinRows writes the join rows for a writable N:N relation. On
// create only provided lists connect; on update the set is always replaced,
// so an absent list clears the relation.
func (r *Repository) replaceJoinRows(ctx context.Context, tx *sql.Tx, rel *metadata.Relation, id any, ids []any, clearFirst bool) error {
	if clearFirst {
		pb := r.store.Dialect.NewParamBuilder()
		sqlStr := fmt.Sprintf("DELETE FROM %s WHERE %s = %s", rel.JoinTable, rel.JoinSelfKey, pb.Add(id))
		if _, err := tx.ExecContext(ctx, sqlStr, pb.Params()...); err != nil {
			return fmt.Errorf("clear %s: %w", rel.JoinTable, err)
		}
	}
	for _, relatedID := range ids {
		pb := r.store.Dialect.NewParamBuilder()
		sqlStr := fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES (%s, %s)",
			rel.JoinTable, rel.JoinSelfKey, rel.JoinRelatedKey, pb.Add(id), pb.Add(relatedID))
		if _, err := tx.ExecContext(ctx, sqlStr, pb.Params()...); err != nil {
			return fmt.Errorf("connect %s: %w", rel.Name, r.store.Dialect.MapError(err))
		}
	}
	return nil
}

// coerceValue converts a decoded JSON value to the column's storage type.
// JSON numbers arrive as float64.
func (r *Repository) coerceValue(col *metadata.Column, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch col.Type {
	case metadata.Int:
		switch n := v.(type) {
		case float64:
			return int64(n), nil
		case int64:
			return n, nil
		case string:
			parsed, err := strconv.ParseInt(n, 10, 64)
			if err != nil {
				return nil, Validation("invalid integer for " + col.Name)
			}
			return parsed, nil
		}
	case metadata.Float:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int64:
			return float64(n), nil
		}
	case metadata.Boolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case metadata.DateTime:
		switch t := v.(type) {
		case string:
			parsed, err := ParseTime(t)
			if err != nil {
				return nil, Validation("invalid timestamp for " + col.Name)
			}
			return r.sqlb.timeParam(parsed), nil
		case time.Time:
			return r.sqlb.timeParam(t), nil
		}
	case metadata.String, metadata.UUID, metadata.File:
		if s, ok := v.(string); ok {
			return s, nil
		}
	}
	return nil, Validation("invalid value for " + col.Name)
}

func (r *Repository) coercePK(raw string) (any, error) {
	return coercePKValue(r.entity, raw)
}

// coercePKValue converts a primary key value from its request form (query
// string or JSON) to the storage type.
func coercePKValue(entity *metadata.Entity, raw any) (any, error) {
	pk := entity.PrimaryKey()
	if pk == nil {
		return nil, fmt.Errorf("%s has no primary key", entity.Name)
	}
	switch pk.Type {
	case metadata.Int:
		switch v := raw.(type) {
		case string:
			return strconv.ParseInt(v, 10, 64)
		case float64:
			return int64(v), nil
		case int64:
			return v, nil
		}
	case metadata.UUID, metadata.String:
		if s, ok := raw.(string); ok {
			return s, nil
		}
	}
	return nil, fmt.Errorf("invalid %s id %v", entity.Name, raw)
}

func (r *Repository) now() any {
	return r.sqlb.timeParam(time.Now().UTC())
}

func (r *Repository) normalizeRows(rows []map[string]any) {
	if !r.store.Dialect.NeedsBoolFix() {
		return
	}
	store.NormalizeBooleans(rows, boolFields(r.entity))
}

func boolFields(entity *metadata.Entity) []string {
	var fields []string
	for _, col := range entity.Columns {
		if col.Type == metadata.Boolean {
			fields = append(fields, col.Name)
		}
	}
	return fields
}

func hashSensitive(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", Validation("invalid value for sensitive field")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(s), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash: %w", err)
	}
	return string(hash), nil
}

func toStringList(v any) ([]string, error) {
	raw, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("not a list")
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("not a string list")
		}
		out = append(out, s)
	}
	return out, nil
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}
