//go:build cgo

package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sample(id, docID, kind, hash string, at time.Time) Extraction {
	return Extraction{
		ID:          id,
		DocID:       docID,
		Filename:    "book.pdf",
		Kind:        kind,
		ContentHash: hash,
		EntryCount:  3,
		Summary:     "Found 3 TOC entries.",
		Result:      json.RawMessage(`{"kind":"` + kind + `","count":3}`),
		CreatedAt:   at,
	}
}

func TestNewCreatesParentDir(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "sub", "dir", "test.db"))
	if err != nil {
		t.Fatalf("creating store in nested dir: %v", err)
	}
	s.Close()
}

func TestSaveAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	if err := s.Save(ctx, sample("01A", "doc1", "toc", "h1", at)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Get(ctx, "01A")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.DocID != "doc1" || got.Kind != "toc" || got.EntryCount != 3 {
		t.Errorf("unexpected extraction: %+v", got)
	}
	if !got.CreatedAt.Equal(at) {
		t.Errorf("expected created_at %v, got %v", at, got.CreatedAt)
	}
	if string(got.Result) != `{"kind":"toc","count":3}` {
		t.Errorf("unexpected result json: %s", got.Result)
	}
}

func TestGetMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveDuplicateHashAndKind(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	if err := s.Save(ctx, sample("01A", "doc1", "toc", "h1", now)); err != nil {
		t.Fatal(err)
	}
	err := s.Save(ctx, sample("01B", "doc2", "toc", "h1", now))
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	// Same content, different kind is fine.
	if err := s.Save(ctx, sample("01C", "doc1", "index", "h1", now)); err != nil {
		t.Fatalf("expected different kind to save, got %v", err)
	}
}

func TestFindByHash(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.Save(ctx, sample("01A", "doc1", "components", "h9", time.Now())); err != nil {
		t.Fatal(err)
	}

	got, err := s.FindByHash(ctx, "h9", "components")
	if err != nil {
		t.Fatalf("FindByHash: %v", err)
	}
	if got.ID != "01A" {
		t.Errorf("expected 01A, got %s", got.ID)
	}
	if _, err := s.FindByHash(ctx, "h9", "toc"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for other kind, got %v", err)
	}
}

func TestGetByDocIDAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for _, e := range []Extraction{
		sample("01A", "doc1", "toc", "h1", base),
		sample("01B", "doc1", "index", "h1", base.Add(time.Minute)),
		sample("01C", "doc2", "components", "h2", base.Add(2*time.Minute)),
	} {
		if err := s.Save(ctx, e); err != nil {
			t.Fatalf("Save %s: %v", e.ID, err)
		}
	}

	got, err := s.GetByDocID(ctx, "doc1")
	if err != nil {
		t.Fatalf("GetByDocID: %v", err)
	}
	if len(got) != 2 || got[0].Kind != "toc" || got[1].Kind != "index" {
		t.Fatalf("unexpected doc1 extractions: %+v", got)
	}

	docs, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].DocID != "doc2" {
		t.Errorf("expected newest document first, got %s", docs[0].DocID)
	}
	d1 := docs[1]
	if len(d1.Kinds) != 2 || d1.Kinds[0] != "index" || d1.Kinds[1] != "toc" {
		t.Errorf("expected sorted kinds [index toc], got %v", d1.Kinds)
	}
	if d1.Entries != 6 {
		t.Errorf("expected 6 entries, got %d", d1.Entries)
	}
	if !d1.CreatedAt.Equal(base) {
		t.Errorf("expected first created_at, got %v", d1.CreatedAt)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()
	s.Save(ctx, sample("01A", "doc1", "toc", "h1", now))
	s.Save(ctx, sample("01B", "doc1", "index", "h1", now))

	n, err := s.Delete(ctx, "doc1")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 deleted, got %d", n)
	}
	if n, _ := s.Delete(ctx, "doc1"); n != 0 {
		t.Errorf("expected nothing left, got %d", n)
	}
	if _, err := s.FindByHash(ctx, "h1", "toc"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected hash freed after delete, got %v", err)
	}
}
