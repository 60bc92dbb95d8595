package blob

import (
	"context"
	"io"
	"strings"
	"testing"
)

func putString(t *testing.T, store Store, key, content string, opts PutOptions) Info {
	t.Helper()
	info, err := store.Put(context.Background(), key, strings.NewReader(content), opts)
	if err != nil {
		t.Fatalf("put %s: %v", key, err)
	}
	return info
}

func readAll(t *testing.T, store Store, key string) (Info, string) {
	t.Helper()
	info, rc, err := store.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("get %s: %v", key, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read %s: %v", key, err)
	}
	return info, string(data)
}

func testStoreContract(t *testing.T, store Store) {
	ctx := context.Background()

	info := putString(t, store, "exports/harbor-bridge.json", `{"ok":true}`, PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"project_id": "p1"},
	})
	if info.Size != int64(len(`{"ok":true}`)) {
		t.Fatalf("size = %d", info.Size)
	}

	got, content := readAll(t, store, "exports/harbor-bridge.json")
	if content != `{"ok":true}` {
		t.Fatalf("content = %q", content)
	}
	if got.ContentType != "application/json" || got.Metadata["project_id"] != "p1" {
		t.Fatalf("metadata lost: %+v", got)
	}

	// Create-only semantics.
	if _, err := store.Put(ctx, "exports/harbor-bridge.json", strings.NewReader("x"), PutOptions{}); err == nil {
		t.Fatal("expected duplicate put to fail")
	}

	putString(t, store, "exports/depot-refit.json", "{}", PutOptions{})
	putString(t, store, "other/file.txt", "hi", PutOptions{})

	infos, err := store.List(ctx, "exports/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 exports, got %d", len(infos))
	}
	if infos[0].Key > infos[1].Key {
		t.Fatalf("list not sorted: %v", infos)
	}

	existed, err := store.Delete(ctx, "other/file.txt")
	if err != nil || !existed {
		t.Fatalf("delete: existed=%v err=%v", existed, err)
	}
	existed, err = store.Delete(ctx, "other/file.txt")
	if err != nil || existed {
		t.Fatalf("second delete: existed=%v err=%v", existed, err)
	}
	if _, _, err := store.Get(ctx, "other/file.txt"); err == nil {
		t.Fatal("expected get of deleted key to fail")
	}
}

func TestMemoryStoreContract(t *testing.T) {
	store := NewMemoryStore()
	if store.Driver() != DriverMemory {
		t.Fatalf("driver = %q", store.Driver())
	}
	testStoreContract(t, store)
}

func TestFSStoreContract(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("new fs store: %v", err)
	}
	if store.Driver() != DriverFilesystem {
		t.Fatalf("driver = %q", store.Driver())
	}
	testStoreContract(t, store)
}

func TestFSStoreRejectsTraversalKeys(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("new fs store: %v", err)
	}
	for _, key := range []string{"", "  ", "../escape", "a/../../b", "/absolute"} {
		if _, err := store.Put(context.Background(), key, strings.NewReader("x"), PutOptions{}); err == nil {
			t.Fatalf("key %q must be rejected", key)
		}
	}
}

func TestPresignUnsupportedLocally(t *testing.T) {
	fsStore, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("new fs store: %v", err)
	}
	for _, store := range []Store{NewMemoryStore(), fsStore} {
		if _, err := store.PresignURL(context.Background(), "k", 0); err != ErrUnsupported {
			t.Fatalf("%s: expected ErrUnsupported, got %v", store.Driver(), err)
		}
	}
}
