package articlecache

import (
	"testing"

	"github.com/samvad-hq/pulse-news/internal/storage"
)

func TestSavedListPrependsAndDeduplicates(t *testing.T) {
	saved := NewSavedList(storage.NewMemoryStore(), nil)

	res, err := saved.Save("art_1")
	if err != nil || res != Saved {
		t.Fatalf("first save = %v err=%v", res, err)
	}
	if _, err := saved.Save("art_2"); err != nil {
		t.Fatalf("second save: %v", err)
	}

	res, err = saved.Save("art_1")
	if err != nil {
		t.Fatalf("repeat save: %v", err)
	}
	if res != AlreadySaved {
		t.Fatalf("expected AlreadySaved, got %v", res)
	}
	if res.String() == Saved.String() {
		t.Fatalf("acknowledgements must differ")
	}

	ids := saved.IDs()
	if len(ids) != 2 || ids[0] != "art_2" || ids[1] != "art_1" {
		t.Fatalf("unexpected saved ids %v", ids)
	}
}

func TestSavedListCorruptDataTreatedAsEmpty(t *testing.T) {
	store := storage.NewMemoryStore()
	if err := store.Put(SavedKey, []byte("{broken")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	saved := NewSavedList(store, nil)
	if ids := saved.IDs(); len(ids) != 0 {
		t.Fatalf("expected empty list, got %v", ids)
	}
	if _, err := saved.Save("art_9"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if ids := saved.IDs(); len(ids) != 1 || ids[0] != "art_9" {
		t.Fatalf("unexpected ids after save %v", ids)
	}
}

func TestSavedListRejectsEmptyID(t *testing.T) {
	saved := NewSavedList(storage.NewMemoryStore(), nil)
	if _, err := saved.Save(""); err == nil {
		t.Fatalf("expected error for empty id")
	}
}

func TestSavedListSaveFailsWhenReadFails(t *testing.T) {
	store := &flakyStore{Store: storage.NewMemoryStore()}
	saved := NewSavedList(store, nil)
	for _, id := range []string{"a1", "a2"} {
		if _, err := saved.Save(id); err != nil {
			t.Fatalf("Save(%s): %v", id, err)
		}
	}

	store.breakNextRead()
	if _, err := saved.Save("a3"); err == nil {
		t.Fatalf("expected read error to fail the save")
	}
	if ids := saved.IDs(); len(ids) != 2 || ids[0] != "a2" || ids[1] != "a1" {
		t.Fatalf("saved list overwritten after failed read: %v", ids)
	}

	if _, err := saved.Save("a3"); err != nil {
		t.Fatalf("Save after recovery: %v", err)
	}
	if ids := saved.IDs(); len(ids) != 3 || ids[0] != "a3" {
		t.Fatalf("unexpected ids %v", ids)
	}
}
