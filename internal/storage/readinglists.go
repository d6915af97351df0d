package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/hoanghai1803/bookshelf/internal/models"
)

const (
	tableLists   = "reading_lists"
	tableEntries = "reading_list_entries"
	colID        = "id"
	colName      = "name"
	colNameKey   = "name_key"
	colDesc      = "description"
	colListID    = "list_id"
	colKey       = "article_key"
	colTitle     = "display_title"
	colCreatedAt = "created_at"
	colUpdatedAt = "updated_at"
)

// listsWithCounts selects every list column plus the number of entries it
// owns. Callers add their own WHERE clauses.
func (ss *Session) listsWithCounts() *goqu.SelectDataset {
	return ss.dialect.
		From(goqu.T(tableLists).As("l")).
		LeftJoin(goqu.T(tableEntries).As("e"), goqu.On(goqu.I("e."+colListID).Eq(goqu.I("l."+colID)))).
		Select(
			goqu.I("l."+colID),
			goqu.I("l."+colName),
			goqu.I("l."+colDesc),
			goqu.I("l."+colCreatedAt),
			goqu.I("l."+colUpdatedAt),
			goqu.COUNT(goqu.I("e."+colID)).As("entry_count"),
		).
		GroupBy(goqu.I("l." + colID)).
		Order(goqu.I("l." + colID).Asc()).
		Prepared(true)
}

func (ss *Session) queryLists(ctx context.Context, ds *goqu.SelectDataset) ([]models.ReadingList, error) {
	rows, err := ss.query(ctx, ds)
	if err != nil {
		return nil, fmt.Errorf("querying reading lists: %w", err)
	}
	defer rows.Close()

	var lists []models.ReadingList
	for rows.Next() {
		var (
			list      models.ReadingList
			desc      sql.NullString
			createdAt string
			updatedAt string
		)
		if err := rows.Scan(&list.ID, &list.Name, &desc, &createdAt, &updatedAt, &list.EntryCount); err != nil {
			return nil, fmt.Errorf("scanning reading list row: %w", err)
		}
		list.Description = nullStringToPtr(desc)
		list.CreatedAt = parseTime(createdAt)
		list.UpdatedAt = parseTime(updatedAt)
		lists = append(lists, list)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reading list rows: %w", err)
	}
	return lists, nil
}

func (ss *Session) queryOneList(ctx context.Context, ds *goqu.SelectDataset) (*models.ReadingList, error) {
	lists, err := ss.queryLists(ctx, ds.Limit(1))
	if err != nil {
		return nil, err
	}
	if len(lists) == 0 {
		return nil, ErrNotFound
	}
	return &lists[0], nil
}

// ListByNameKey returns the list whose case-folded name equals nameKey.
// Returns ErrNotFound if there is none.
func (ss *Session) ListByNameKey(ctx context.Context, nameKey string) (*models.ReadingList, error) {
	return ss.queryOneList(ctx, ss.listsWithCounts().Where(goqu.I("l."+colNameKey).Eq(nameKey)))
}

// ListByID returns the list with the given ID, or ErrNotFound.
func (ss *Session) ListByID(ctx context.Context, id int64) (*models.ReadingList, error) {
	return ss.queryOneList(ctx, ss.listsWithCounts().Where(goqu.I("l."+colID).Eq(id)))
}

// ListsByNames returns the lists whose name is exactly one of names. The
// match is case-sensitive.
func (ss *Session) ListsByNames(ctx context.Context, names []string) ([]models.ReadingList, error) {
	if len(names) == 0 {
		return nil, nil
	}
	return ss.queryLists(ctx, ss.listsWithCounts().Where(goqu.I("l."+colName).In(names)))
}

// Lists returns every list with its entry count, ordered by name.
func (ss *Session) Lists(ctx context.Context) ([]models.ReadingList, error) {
	ds := ss.listsWithCounts().Order(goqu.I("l."+colName).Asc(), goqu.I("l."+colID).Asc())
	lists, err := ss.queryLists(ctx, ds)
	if err != nil {
		return nil, err
	}
	if lists == nil {
		lists = []models.ReadingList{}
	}
	return lists, nil
}

// ListsContainingKey returns every list owning an entry for articleKey. The
// key comparison ignores ASCII case.
func (ss *Session) ListsContainingKey(ctx context.Context, articleKey string) ([]models.ReadingList, error) {
	owners := ss.dialect.
		From(tableEntries).
		Select(colListID).
		Where(goqu.L("? COLLATE NOCASE", goqu.I(colKey)).Eq(articleKey))
	return ss.queryLists(ctx, ss.listsWithCounts().Where(goqu.I("l."+colID).In(owners)))
}

// InsertList creates a list row. A name_key collision returns ErrConflict.
func (ss *Session) InsertList(ctx context.Context, name, nameKey string, description *string) (*models.ReadingList, error) {
	res, err := ss.exec(ctx, ss.dialect.
		Insert(tableLists).
		Rows(goqu.Record{
			colName:    name,
			colNameKey: nameKey,
			colDesc:    nullable(description),
		}).
		Prepared(true))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("inserting reading list %q: %w", name, ErrConflict)
		}
		return nil, fmt.Errorf("inserting reading list %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading reading list id: %w", err)
	}
	ss.changes++

	return ss.ListByID(ctx, id)
}

// DeleteList deletes a list. Its entries are removed by the foreign key
// cascade.
func (ss *Session) DeleteList(ctx context.Context, id int64) error {
	res, err := ss.exec(ctx, ss.dialect.
		Delete(tableLists).
		Where(goqu.C(colID).Eq(id)).
		Prepared(true))
	if err != nil {
		return fmt.Errorf("deleting reading list %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		ss.changes++
	}
	return nil
}

// TouchList bumps the list's updated_at timestamp.
func (ss *Session) TouchList(ctx context.Context, id int64) error {
	if _, err := ss.exec(ctx, ss.dialect.
		Update(tableLists).
		Set(goqu.Record{colUpdatedAt: goqu.L("datetime('now')")}).
		Where(goqu.C(colID).Eq(id)).
		Prepared(true)); err != nil {
		return fmt.Errorf("touching reading list %d: %w", id, err)
	}
	ss.changes++
	return nil
}

// EntryKeys returns the set of article keys already present in a list.
func (ss *Session) EntryKeys(ctx context.Context, listID int64) (map[string]struct{}, error) {
	rows, err := ss.query(ctx, ss.dialect.
		From(tableEntries).
		Select(colKey).
		Where(goqu.C(colListID).Eq(listID)).
		Prepared(true))
	if err != nil {
		return nil, fmt.Errorf("querying entry keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scanning entry key: %w", err)
		}
		keys[key] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entry keys: %w", err)
	}
	return keys, nil
}

// InsertEntry attaches an article key to a list.
func (ss *Session) InsertEntry(ctx context.Context, listID int64, articleKey string, displayTitle *string) (*models.ReadingListEntry, error) {
	res, err := ss.exec(ctx, ss.dialect.
		Insert(tableEntries).
		Rows(goqu.Record{
			colListID: listID,
			colKey:    articleKey,
			colTitle:  nullable(displayTitle),
		}).
		Prepared(true))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("inserting entry %q: %w", articleKey, ErrConflict)
		}
		return nil, fmt.Errorf("inserting entry %q: %w", articleKey, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading entry id: %w", err)
	}
	ss.changes++

	return &models.ReadingListEntry{
		ID:           id,
		ListID:       listID,
		ArticleKey:   articleKey,
		DisplayTitle: displayTitle,
	}, nil
}

func (ss *Session) queryEntries(ctx context.Context, ds *goqu.SelectDataset) ([]models.ReadingListEntry, error) {
	rows, err := ss.query(ctx, ds)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	entries := []models.ReadingListEntry{}
	for rows.Next() {
		var (
			entry     models.ReadingListEntry
			title     sql.NullString
			createdAt string
		)
		if err := rows.Scan(&entry.ID, &entry.ListID, &entry.ArticleKey, &title, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning entry row: %w", err)
		}
		entry.DisplayTitle = nullStringToPtr(title)
		entry.CreatedAt = parseTime(createdAt)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entry rows: %w", err)
	}
	return entries, nil
}

// Entries returns a list's entries in insertion order.
func (ss *Session) Entries(ctx context.Context, listID int64) ([]models.ReadingListEntry, error) {
	return ss.queryEntries(ctx, ss.dialect.
		From(tableEntries).
		Select(colID, colListID, colKey, colTitle, colCreatedAt).
		Where(goqu.C(colListID).Eq(listID)).
		Order(goqu.C(colID).Asc()).
		Prepared(true))
}

// EntriesInList returns the entries of the list whose case-folded name is
// nameKey and whose article key is one of keys.
func (ss *Session) EntriesInList(ctx context.Context, nameKey string, keys []string) ([]models.ReadingListEntry, error) {
	if len(keys) == 0 {
		return []models.ReadingListEntry{}, nil
	}
	return ss.queryEntries(ctx, ss.dialect.
		From(goqu.T(tableEntries).As("e")).
		Join(goqu.T(tableLists).As("l"), goqu.On(goqu.I("l."+colID).Eq(goqu.I("e."+colListID)))).
		Select(
			goqu.I("e."+colID),
			goqu.I("e."+colListID),
			goqu.I("e."+colKey),
			goqu.I("e."+colTitle),
			goqu.I("e."+colCreatedAt),
		).
		Where(
			goqu.I("l."+colNameKey).Eq(nameKey),
			goqu.I("e."+colKey).In(keys),
		).
		Order(goqu.I("e." + colID).Asc()).
		Prepared(true))
}

// DeleteEntry removes a single entry.
func (ss *Session) DeleteEntry(ctx context.Context, id int64) error {
	res, err := ss.exec(ctx, ss.dialect.
		Delete(tableEntries).
		Where(goqu.C(colID).Eq(id)).
		Prepared(true))
	if err != nil {
		return fmt.Errorf("deleting entry %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		ss.changes++
	}
	return nil
}

// CountLists returns the total number of reading lists.
func (ss *Session) CountLists(ctx context.Context) (int, error) {
	n, err := ss.count(ctx, ss.dialect.From(tableLists).Select(goqu.COUNT(goqu.Star())).Prepared(true))
	if err != nil {
		return 0, fmt.Errorf("counting reading lists: %w", err)
	}
	return n, nil
}

// CountSavedArticles returns the number of distinct article keys saved in
// any list.
func (ss *Session) CountSavedArticles(ctx context.Context) (int, error) {
	n, err := ss.count(ctx, ss.dialect.
		From(tableEntries).
		Select(goqu.COUNT(goqu.DISTINCT(colKey))).
		Prepared(true))
	if err != nil {
		return 0, fmt.Errorf("counting saved articles: %w", err)
	}
	return n, nil
}

// nullable turns a nil *string into an untyped nil so it binds as NULL.
func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
