package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"ponydocs/domain/core/valueobjects"
	pkgerrors "ponydocs/pkg/errors"

	dgbadger "github.com/dgraph-io/badger/v4"
)

const (
	tagsPrefix = "tags/"
	tagPrefix  = "tag/"
)

type tagRecord struct {
	SortKey string                    `json:"sortKey"`
	Tags    []valueobjects.VersionTag `json:"tags"`
}

// TagIndex implements ports.TagIndex on BadgerDB
type TagIndex struct {
	db *dgbadger.DB
}

// NewTagIndex creates a tag index over db
func NewTagIndex(db *dgbadger.DB) *TagIndex {
	return &TagIndex{db: db}
}

func tagsKey(title string) []byte { return []byte(tagsPrefix + title) }

func tagEntryKey(tag valueobjects.VersionTag, sortKey, title string) []byte {
	return []byte(tagPrefix + tag.String() + "/" + strings.ToUpper(sortKey) + "#" + title)
}

// FindPagesByVersionTag scans the tag's key range narrowed by sort key prefix
func (x *TagIndex) FindPagesByVersionTag(ctx context.Context, product, version, sortKeyPrefix string) ([]string, error) {
	tag := valueobjects.VersionTag{Product: product, Version: version}
	prefix := []byte(tagPrefix + tag.String() + "/" + strings.ToUpper(sortKeyPrefix))

	var titles []string
	err := x.db.View(func(txn *dgbadger.Txn) error {
		opts := dgbadger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := it.Item().Value(func(val []byte) error {
				titles = append(titles, string(val))
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("FindPagesByVersionTag", err)
	}
	sort.Strings(titles)
	return titles, nil
}

// SetPageTags replaces every tag of a page in one transaction
func (x *TagIndex) SetPageTags(ctx context.Context, title, sortKey string, tags []valueobjects.VersionTag) error {
	err := x.db.Update(func(txn *dgbadger.Txn) error {
		prev, err := readTags(txn, title)
		if err != nil {
			return err
		}
		if prev != nil {
			for _, t := range prev.Tags {
				if err := txn.Delete(tagEntryKey(t, prev.SortKey, title)); err != nil {
					return err
				}
			}
		}

		if len(tags) == 0 {
			if prev == nil {
				return nil
			}
			return txn.Delete(tagsKey(title))
		}

		for _, t := range tags {
			if err := txn.Set(tagEntryKey(t, sortKey, title), []byte(title)); err != nil {
				return err
			}
		}
		data, err := json.Marshal(tagRecord{SortKey: sortKey, Tags: tags})
		if err != nil {
			return fmt.Errorf("marshal tags: %w", err)
		}
		return txn.Set(tagsKey(title), data)
	})
	if err != nil {
		return pkgerrors.NewDatabaseError("SetPageTags", err)
	}
	return nil
}

// TagsOf returns the tags of a page
func (x *TagIndex) TagsOf(ctx context.Context, title string) ([]valueobjects.VersionTag, error) {
	var rec *tagRecord
	err := x.db.View(func(txn *dgbadger.Txn) error {
		var err error
		rec, err = readTags(txn, title)
		return err
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("TagsOf", err)
	}
	if rec == nil {
		return nil, nil
	}
	return rec.Tags, nil
}

// RemovePage drops a page from the index
func (x *TagIndex) RemovePage(ctx context.Context, title string) error {
	return x.SetPageTags(ctx, title, "", nil)
}

func readTags(txn *dgbadger.Txn, title string) (*tagRecord, error) {
	item, err := txn.Get(tagsKey(title))
	if errors.Is(err, dgbadger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rec tagRecord
	if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &rec) }); err != nil {
		return nil, err
	}
	return &rec, nil
}
