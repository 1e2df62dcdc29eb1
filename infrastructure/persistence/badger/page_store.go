package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"ponydocs/domain/core/entities"
	pkgerrors "ponydocs/pkg/errors"

	dgbadger "github.com/dgraph-io/badger/v4"
)

const pagePrefix = "page/"

// PageStore implements ports.PageStore on BadgerDB
type PageStore struct {
	db  *dgbadger.DB
	now func() time.Time
}

// NewPageStore creates a page store over db
func NewPageStore(db *dgbadger.DB) *PageStore {
	return &PageStore{db: db, now: time.Now}
}

func pageKey(title string) []byte { return []byte(pagePrefix + title) }

// Get retrieves a page by title
func (s *PageStore) Get(ctx context.Context, title string) (*entities.Page, error) {
	var page entities.Page
	err := s.db.View(func(txn *dgbadger.Txn) error {
		item, err := txn.Get(pageKey(title))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &page)
		})
	})
	if errors.Is(err, dgbadger.ErrKeyNotFound) {
		return nil, pkgerrors.NewPageNotFoundError(title)
	}
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("GetPage", err)
	}
	return &page, nil
}

// Exists reports whether a page exists
func (s *PageStore) Exists(ctx context.Context, title string) (bool, error) {
	err := s.db.View(func(txn *dgbadger.Txn) error {
		_, err := txn.Get(pageKey(title))
		return err
	})
	if errors.Is(err, dgbadger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, pkgerrors.NewDatabaseError("PageExists", err)
	}
	return true, nil
}

// Save creates or replaces a page in one transaction
func (s *PageStore) Save(ctx context.Context, title, content, summary string, isNew bool) error {
	err := s.db.Update(func(txn *dgbadger.Txn) error {
		revision := 0
		item, err := txn.Get(pageKey(title))
		switch {
		case err == nil:
			if isNew {
				return pkgerrors.NewConflictError("page already exists: " + title)
			}
			var existing entities.Page
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &existing) }); err != nil {
				return err
			}
			revision = existing.Revision
		case !errors.Is(err, dgbadger.ErrKeyNotFound):
			return err
		}

		data, err := json.Marshal(entities.Page{
			Title:       title,
			Content:     content,
			EditSummary: summary,
			Revision:    revision + 1,
			UpdatedAt:   s.now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("marshal page: %w", err)
		}
		return txn.Set(pageKey(title), data)
	})
	if err != nil && !pkgerrors.IsConflict(err) {
		return pkgerrors.NewDatabaseError("SavePage", err)
	}
	return err
}

// Delete removes a page
func (s *PageStore) Delete(ctx context.Context, title string) error {
	err := s.db.Update(func(txn *dgbadger.Txn) error {
		if _, err := txn.Get(pageKey(title)); err != nil {
			return err
		}
		return txn.Delete(pageKey(title))
	})
	if errors.Is(err, dgbadger.ErrKeyNotFound) {
		return pkgerrors.NewPageNotFoundError(title)
	}
	if err != nil {
		return pkgerrors.NewDatabaseError("DeletePage", err)
	}
	return nil
}

// ListTitles returns every title starting with prefix, sorted
func (s *PageStore) ListTitles(ctx context.Context, prefix string) ([]string, error) {
	var titles []string
	err := s.db.View(func(txn *dgbadger.Txn) error {
		for _, key := range keysWithPrefix(txn, []byte(pagePrefix+prefix)) {
			titles = append(titles, strings.TrimPrefix(string(key), pagePrefix))
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("ListTitles", err)
	}
	sort.Strings(titles)
	return titles, nil
}
