package models

import "time"

// ReadingList is a named collection of saved articles. Names are unique
// under case-insensitive comparison.
type ReadingList struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	Description *string            `json:"description,omitempty"`
	EntryCount  int                `json:"entry_count"`
	Entries     []ReadingListEntry `json:"entries,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// ReadingListEntry links one article, by key, to exactly one owning list.
type ReadingListEntry struct {
	ID           int64     `json:"id"`
	ListID       int64     `json:"list_id"`
	ArticleKey   string    `json:"article_key"`
	DisplayTitle *string   `json:"display_title,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Article is any savable item. Key is an opaque URL-like identifier; an
// empty Key means the article has no resolvable key.
type Article struct {
	Key string `json:"key"`
}

// ArticleKey returns the article's key and whether it is resolvable.
func (a Article) ArticleKey() (string, bool) {
	return a.Key, a.Key != ""
}

// ArticlesFromKeys wraps raw keys into Articles.
func ArticlesFromKeys(keys []string) []Article {
	articles := make([]Article, 0, len(keys))
	for _, k := range keys {
		articles = append(articles, Article{Key: k})
	}
	return articles
}

// AddResult reports the per-item outcome of adding articles to a list.
//
// Failed holds the key whose insert failed followed by every key that was
// not attempted because of it; Err is that insert's error.
type AddResult struct {
	Added      []string `json:"added"`
	Skipped    []string `json:"skipped"`
	Failed     []string `json:"failed"`
	Unresolved int      `json:"unresolved"`
	Err        error    `json:"-"`
}

// NewAddResult returns an AddResult with non-nil slices so it encodes as
// empty JSON arrays.
func NewAddResult() *AddResult {
	return &AddResult{
		Added:   []string{},
		Skipped: []string{},
		Failed:  []string{},
	}
}
