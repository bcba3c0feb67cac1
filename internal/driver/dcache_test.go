package driver

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"typeload/internal/project"
)

func TestDiskCache_RoundTrip(t *testing.T) {
	dc, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDiskCacheAt failed: %v", err)
	}

	key := project.HashBytes([]byte("content"))
	payload := &DiskPayload{
		Schema: diskCacheSchemaVersion,
		Path:   "/src/a.ts",
		Code:   "var a = 1;",
	}
	if err := dc.Put(key, payload); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	var got DiskPayload
	ok, err := dc.Get(key, &got)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok {
		t.Fatal("Get missed a stored key")
	}
	if got.Code != payload.Code || got.Path != payload.Path {
		t.Errorf("payload = %+v, want %+v", got, payload)
	}
}

func TestDiskCache_MissingKey(t *testing.T) {
	dc, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	var got DiskPayload
	ok, err := dc.Get(project.HashBytes([]byte("absent")), &got)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Error("Get reported a hit for an absent key")
	}
}

func TestDiskCache_SchemaMismatchIsAMiss(t *testing.T) {
	dc, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := project.HashBytes([]byte("old"))
	if err := dc.Put(key, &DiskPayload{Schema: diskCacheSchemaVersion + 1, Code: "x"}); err != nil {
		t.Fatal(err)
	}
	var got DiskPayload
	ok, err := dc.Get(key, &got)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Error("foreign schema version should read as a miss")
	}
}

func TestDiskCache_DropAll(t *testing.T) {
	dir := t.TempDir()
	dc, err := OpenDiskCacheAt(dir)
	if err != nil {
		t.Fatal(err)
	}
	key := project.HashBytes([]byte("gone"))
	if err := dc.Put(key, &DiskPayload{Schema: diskCacheSchemaVersion, Code: "x"}); err != nil {
		t.Fatal(err)
	}
	if err := dc.DropAll(); err != nil {
		t.Fatalf("DropAll failed: %v", err)
	}
	var got DiskPayload
	ok, err := dc.Get(key, &got)
	if err != nil {
		t.Fatalf("Get after DropAll failed: %v", err)
	}
	if ok {
		t.Error("entry survived DropAll")
	}

	// a second drop on the now-missing directory is fine
	if err := dc.DropAll(); err != nil {
		t.Errorf("repeated DropAll failed: %v", err)
	}
}

func TestTranspileCache_RecordsSourcePath(t *testing.T) {
	dc, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	tc := &transpileCache{disk: dc, log: log.New(io.Discard)}

	key := project.HashBytes([]byte("source"))
	tc.Put(key, "/src/a.ts", "var a = 1;")

	var payload DiskPayload
	ok, err := dc.Get(key, &payload)
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v, want a hit", ok, err)
	}
	if payload.Path != "/src/a.ts" {
		t.Errorf("Path = %q, want /src/a.ts", payload.Path)
	}
	if code, ok := tc.Get(key); !ok || code != "var a = 1;" {
		t.Errorf("Get = %q, %v", code, ok)
	}
}

func TestDiskCache_NilReceiver(t *testing.T) {
	var dc *DiskCache
	if err := dc.Put(project.Digest{}, &DiskPayload{}); err != nil {
		t.Errorf("nil Put failed: %v", err)
	}
	var got DiskPayload
	if ok, err := dc.Get(project.Digest{}, &got); ok || err != nil {
		t.Errorf("nil Get = %v, %v", ok, err)
	}
	if err := dc.DropAll(); err != nil {
		t.Errorf("nil DropAll failed: %v", err)
	}
}
