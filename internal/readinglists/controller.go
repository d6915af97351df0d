// Package readinglists implements the reading list repository: creating and
// deleting lists, adding and removing article entries, and membership
// lookups.
//
// All work runs on one owner goroutine held by the Controller. The store
// has a single logical writer, so operations never interleave and each one
// commits at most once, as its last step, and only when it changed
// something.
package readinglists

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/hoanghai1803/bookshelf/internal/models"
	"github.com/hoanghai1803/bookshelf/internal/storage"
)

// Controller owns the store and executes every operation on its owner
// goroutine. It is safe to call from any goroutine.
type Controller struct {
	store     *storage.Store
	calls     chan func()
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewController starts the owner goroutine. Call Close to stop it.
func NewController(store *storage.Store) *Controller {
	c := &Controller{
		store: store,
		calls: make(chan func()),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go c.run()
	return c
}

func (c *Controller) run() {
	defer close(c.done)
	for {
		select {
		case fn := <-c.calls:
			fn()
		case <-c.quit:
			return
		}
	}
}

// Close stops the owner goroutine after the operation in flight, if any,
// has finished. Later calls fail with ErrClosed.
func (c *Controller) Close() {
	c.closeOnce.Do(func() { close(c.quit) })
	<-c.done
}

// execute hands fn to the owner goroutine and waits for its result. A
// context that ends before the owner accepts the call cancels it; once
// accepted, fn runs to completion.
func execute[T any](ctx context.Context, c *Controller, fn func(ctx context.Context) (T, error)) (T, error) {
	var (
		zero   T
		result T
		err    error
	)
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	finished := make(chan struct{})
	call := func() {
		defer close(finished)
		result, err = fn(context.WithoutCancel(ctx))
	}

	select {
	case c.calls <- call:
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-c.quit:
		return zero, ErrClosed
	}

	<-finished
	return result, err
}

// inSession runs fn inside a storage session and commits when fn succeeded
// and left pending changes. Otherwise the session is rolled back.
func (c *Controller) inSession(ctx context.Context, fn func(ss *storage.Session) error) error {
	ss, err := c.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer ss.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := fn(ss); err != nil {
		return err
	}
	if ss.HasChanges() {
		return ss.Commit()
	}
	return nil
}

// CreateList creates a list named name and adds articles to it. It fails
// with ErrListExistsWithSameName when a list of that name exists under
// case-insensitive comparison, leaving the store untouched.
func (c *Controller) CreateList(ctx context.Context, name string, description *string, articles []models.Article) (*models.ReadingList, *models.AddResult, error) {
	type created struct {
		list   *models.ReadingList
		result *models.AddResult
	}

	out, err := execute(ctx, c, func(ctx context.Context) (created, error) {
		var out created
		err := c.inSession(ctx, func(ss *storage.Session) error {
			if strings.TrimSpace(name) == "" {
				return unableToCreate(name, nil)
			}

			key := models.NameKey(name)
			_, err := ss.ListByNameKey(ctx, key)
			switch {
			case err == nil:
				return listExists(name)
			case !errors.Is(err, storage.ErrNotFound):
				return err
			}

			list, err := ss.InsertList(ctx, name, key, description)
			if err != nil {
				if errors.Is(err, storage.ErrConflict) {
					return listExists(name)
				}
				return unableToCreate(name, err)
			}

			result, err := addArticles(ctx, ss, list, articles)
			if err != nil {
				return err
			}

			list.Entries, err = ss.Entries(ctx, list.ID)
			if err != nil {
				return err
			}
			list.EntryCount = len(list.Entries)

			out = created{list: list, result: result}
			return nil
		})
		return out, err
	})
	if err != nil {
		return nil, nil, err
	}

	slog.Info("created reading list",
		"name", out.list.Name,
		"entries", out.list.EntryCount,
	)
	return out.list, out.result, nil
}

// DeleteLists deletes every list whose name is exactly one of names, along
// with their entries. Names that match nothing are ignored.
func (c *Controller) DeleteLists(ctx context.Context, names []string) error {
	_, err := execute(ctx, c, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.inSession(ctx, func(ss *storage.Session) error {
			lists, err := ss.ListsByNames(ctx, names)
			if err != nil {
				return err
			}
			for _, list := range lists {
				if err := ss.DeleteList(ctx, list.ID); err != nil {
					return err
				}
				slog.Info("deleted reading list", "name", list.Name, "entries", list.EntryCount)
			}
			return nil
		})
	})
	return err
}

// AddArticles adds articles to list, skipping keys the list already holds.
// Per-item outcomes are reported in the returned AddResult; an insert
// failure stops the batch but is reported there rather than as an error.
func (c *Controller) AddArticles(ctx context.Context, list *models.ReadingList, articles []models.Article) (*models.AddResult, error) {
	return execute(ctx, c, func(ctx context.Context) (*models.AddResult, error) {
		var result *models.AddResult
		err := c.inSession(ctx, func(ss *storage.Session) error {
			current, err := ss.ListByID(ctx, list.ID)
			if errors.Is(err, storage.ErrNotFound) {
				return listNotFound(list.Name)
			}
			if err != nil {
				return err
			}

			result, err = addArticles(ctx, ss, current, articles)
			return err
		})
		return result, err
	})
}

// addArticles inserts one entry per new key. The list's existing keys are
// read once up front; with a single writer nothing can add a key between
// that read and the inserts.
func addArticles(ctx context.Context, ss *storage.Session, list *models.ReadingList, articles []models.Article) (*models.AddResult, error) {
	result := models.NewAddResult()

	existing, err := ss.EntryKeys(ctx, list.ID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(articles))
	var toAdd []string
	for _, article := range articles {
		key, ok := article.ArticleKey()
		if !ok {
			result.Unresolved++
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if _, present := existing[key]; present {
			result.Skipped = append(result.Skipped, key)
			continue
		}
		toAdd = append(toAdd, key)
	}

	for i, key := range toAdd {
		if _, err := ss.InsertEntry(ctx, list.ID, key, models.TitleFromKey(key)); err != nil {
			result.Failed = append(result.Failed, toAdd[i:]...)
			result.Err = err
			slog.Warn("aborted adding articles to reading list",
				"list", list.Name,
				"failed_key", key,
				"not_attempted", len(toAdd)-i-1,
				"error", err,
			)
			break
		}
		result.Added = append(result.Added, key)
	}

	if len(result.Added) > 0 {
		if err := ss.TouchList(ctx, list.ID); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// RemoveArticles removes articles from the list named name (matched
// ignoring case). It fails with ErrListNotFound when there is no such list.
func (c *Controller) RemoveArticles(ctx context.Context, articles []models.Article, name string) error {
	_, err := execute(ctx, c, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.inSession(ctx, func(ss *storage.Session) error {
			key := models.NameKey(name)
			list, err := ss.ListByNameKey(ctx, key)
			if errors.Is(err, storage.ErrNotFound) {
				return listNotFound(name)
			}
			if err != nil {
				return err
			}

			var keys []string
			for _, article := range articles {
				if k, ok := article.ArticleKey(); ok {
					keys = append(keys, k)
				}
			}

			entries, err := ss.EntriesInList(ctx, key, keys)
			if err != nil {
				return err
			}
			for _, entry := range entries {
				if err := ss.DeleteEntry(ctx, entry.ID); err != nil {
					return err
				}
			}
			if len(entries) > 0 {
				return ss.TouchList(ctx, list.ID)
			}
			return nil
		})
	})
	return err
}

// ListsForArticle returns every list containing the article. An article
// without a key belongs to no list.
func (c *Controller) ListsForArticle(ctx context.Context, article models.Article) ([]models.ReadingList, error) {
	key, ok := article.ArticleKey()
	if !ok {
		return nil, nil
	}
	return execute(ctx, c, func(ctx context.Context) ([]models.ReadingList, error) {
		var lists []models.ReadingList
		err := c.inSession(ctx, func(ss *storage.Session) error {
			var err error
			lists, err = ss.ListsContainingKey(ctx, key)
			return err
		})
		return lists, err
	})
}

// GetListForArticle returns the first list containing the article, or nil.
// Use ListsForArticle when every owning list matters.
func (c *Controller) GetListForArticle(ctx context.Context, article models.Article) (*models.ReadingList, error) {
	lists, err := c.ListsForArticle(ctx, article)
	if err != nil || len(lists) == 0 {
		return nil, err
	}
	return &lists[0], nil
}

// ListByName returns the list named name, ignoring case, with its entries.
func (c *Controller) ListByName(ctx context.Context, name string) (*models.ReadingList, error) {
	return execute(ctx, c, func(ctx context.Context) (*models.ReadingList, error) {
		var list *models.ReadingList
		err := c.inSession(ctx, func(ss *storage.Session) error {
			var err error
			list, err = ss.ListByNameKey(ctx, models.NameKey(name))
			if errors.Is(err, storage.ErrNotFound) {
				return listNotFound(name)
			}
			if err != nil {
				return err
			}
			list.Entries, err = ss.Entries(ctx, list.ID)
			return err
		})
		return list, err
	})
}

// Lists returns all lists with their entry counts, ordered by name.
func (c *Controller) Lists(ctx context.Context) ([]models.ReadingList, error) {
	return execute(ctx, c, func(ctx context.Context) ([]models.ReadingList, error) {
		var lists []models.ReadingList
		err := c.inSession(ctx, func(ss *storage.Session) error {
			var err error
			lists, err = ss.Lists(ctx)
			return err
		})
		return lists, err
	})
}

// Counts returns the number of lists and the number of distinct saved
// articles, both read in one session.
func (c *Controller) Counts(ctx context.Context) (lists, items int, err error) {
	type counts struct{ lists, items int }

	out, err := execute(ctx, c, func(ctx context.Context) (counts, error) {
		var out counts
		err := c.inSession(ctx, func(ss *storage.Session) error {
			var err error
			if out.lists, err = ss.CountLists(ctx); err != nil {
				return err
			}
			out.items, err = ss.CountSavedArticles(ctx)
			return err
		})
		return out, err
	})
	if err != nil {
		return 0, 0, err
	}
	return out.lists, out.items, nil
}

// ReadingListCount returns the number of lists.
func (c *Controller) ReadingListCount(ctx context.Context) (int, error) {
	return execute(ctx, c, func(ctx context.Context) (int, error) {
		var n int
		err := c.inSession(ctx, func(ss *storage.Session) error {
			var err error
			n, err = ss.CountLists(ctx)
			return err
		})
		return n, err
	})
}

// SavedArticleCount returns the number of distinct articles saved in any
// list.
func (c *Controller) SavedArticleCount(ctx context.Context) (int, error) {
	return execute(ctx, c, func(ctx context.Context) (int, error) {
		var n int
		err := c.inSession(ctx, func(ss *storage.Session) error {
			var err error
			n, err = ss.CountSavedArticles(ctx)
			return err
		})
		return n, err
	})
}
