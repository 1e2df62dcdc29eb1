package badger

import (
	"bytes"
	"context"

	"ponydocs/domain/core/valueobjects"
	pkgerrors "ponydocs/pkg/errors"

	dgbadger "github.com/dgraph-io/badger/v4"
)

const (
	linkFromPrefix = "link/from/"
	linkToPrefix   = "link/to/"
	linkSep        = "\x00"
)

// EdgeStore implements ports.EdgeStore on BadgerDB. Each edge is written
// under both endpoints.
type EdgeStore struct {
	db *dgbadger.DB
}

// NewEdgeStore creates an edge store over db
func NewEdgeStore(db *dgbadger.DB) *EdgeStore {
	return &EdgeStore{db: db}
}

func fromKey(from, to string) []byte { return []byte(linkFromPrefix + from + linkSep + to) }

func toKey(to, from string) []byte { return []byte(linkToPrefix + to + linkSep + from) }

// ReplaceEdges deletes every edge leaving fromTitles and inserts edges in
// one transaction
func (s *EdgeStore) ReplaceEdges(ctx context.Context, fromTitles []string, edges []valueobjects.LinkEdge) error {
	err := s.db.Update(func(txn *dgbadger.Txn) error {
		for _, from := range fromTitles {
			prefix := []byte(linkFromPrefix + from + linkSep)
			for _, key := range keysWithPrefix(txn, prefix) {
				to := string(bytes.TrimPrefix(key, prefix))
				if err := txn.Delete(key); err != nil {
					return err
				}
				if err := txn.Delete(toKey(to, from)); err != nil {
					return err
				}
			}
		}
		for _, e := range edges {
			if err := txn.Set(fromKey(e.FromTitle, e.ToTitle), nil); err != nil {
				return err
			}
			if err := txn.Set(toKey(e.ToTitle, e.FromTitle), nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return pkgerrors.NewDatabaseError("ReplaceEdges", err)
	}
	return nil
}

// EdgesFrom returns the edges leaving from, sorted by target
func (s *EdgeStore) EdgesFrom(ctx context.Context, from string) ([]valueobjects.LinkEdge, error) {
	prefix := []byte(linkFromPrefix + from + linkSep)
	edges := []valueobjects.LinkEdge{}
	err := s.db.View(func(txn *dgbadger.Txn) error {
		for _, key := range keysWithPrefix(txn, prefix) {
			edges = append(edges, valueobjects.LinkEdge{FromTitle: from, ToTitle: string(bytes.TrimPrefix(key, prefix))})
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("EdgesFrom", err)
	}
	return edges, nil
}

// EdgesTo returns the edges pointing at to, sorted by source
func (s *EdgeStore) EdgesTo(ctx context.Context, to string) ([]valueobjects.LinkEdge, error) {
	prefix := []byte(linkToPrefix + to + linkSep)
	edges := []valueobjects.LinkEdge{}
	err := s.db.View(func(txn *dgbadger.Txn) error {
		for _, key := range keysWithPrefix(txn, prefix) {
			edges = append(edges, valueobjects.LinkEdge{FromTitle: string(bytes.TrimPrefix(key, prefix)), ToTitle: to})
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("EdgesTo", err)
	}
	return edges, nil
}
