package driver

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"typeload/internal/loader"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestDriver(t *testing.T, stdout *bytes.Buffer) *Driver {
	t.Helper()
	d, err := New(Options{
		CacheDir: filepath.Join(t.TempDir(), "cache"),
		Stdout:   stdout,
	})
	if err != nil {
		t.Fatalf("driver.New failed: %v", err)
	}
	return d
}

func TestDriver_RunEntry(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "dep.ts", "export const who: string = \"world\";\n")
	entry := writeFile(t, dir, "main.ts", `import { who } from "./dep";
console.log("hello", who);
`)

	var out bytes.Buffer
	d := newTestDriver(t, &out)
	if err := d.Run(context.Background(), entry); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := out.String(); got != "hello world\n" {
		t.Errorf("stdout = %q, want %q", got, "hello world\n")
	}
}

func TestDriver_RunRejectsUntypedEntry(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, dir, "main.js", "console.log(1);\n")

	var out bytes.Buffer
	d := newTestDriver(t, &out)
	if err := d.Run(context.Background(), entry); err == nil {
		t.Error("plain JS entry should be rejected")
	}
}

func TestDriver_RunSurfacesCompilationError(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, dir, "bad.ts", `let n: number = "words";`)

	var out bytes.Buffer
	d := newTestDriver(t, &out)
	err := d.Run(context.Background(), entry)
	var cerr *loader.CompilationError
	if !errors.As(err, &cerr) {
		t.Fatalf("Run error = %v, want *CompilationError", err)
	}
}

func TestDriver_RunHonorsCancellation(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, dir, "main.ts", "console.log(1);\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	d := newTestDriver(t, &out)
	if err := d.Run(ctx, entry); !errors.Is(err, context.Canceled) {
		t.Errorf("Run error = %v, want context.Canceled", err)
	}
}

func TestDriver_DiskCacheAcrossDrivers(t *testing.T) {
	dir := t.TempDir()
	cacheDir := filepath.Join(t.TempDir(), "cache")
	entry := writeFile(t, dir, "main.ts", "console.log(\"cached\");\n")

	run := func() string {
		var out bytes.Buffer
		d, err := New(Options{CacheDir: cacheDir, Stdout: &out})
		if err != nil {
			t.Fatalf("driver.New failed: %v", err)
		}
		if err := d.Run(context.Background(), entry); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		return out.String()
	}

	if got := run(); got != "cached\n" {
		t.Errorf("first run stdout = %q", got)
	}
	// second driver hits the disk cache and must behave identically
	if got := run(); got != "cached\n" {
		t.Errorf("second run stdout = %q", got)
	}
}

func TestListTypedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.ts", "export {};\n")
	writeFile(t, dir, "a.tsx", "export {};\n")
	writeFile(t, dir, "skip.js", "1;\n")
	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, sub, "c.ts", "export {};\n")

	files, err := ListTypedFiles(dir)
	if err != nil {
		t.Fatalf("ListTypedFiles failed: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("found %d files, want 3: %v", len(files), files)
	}
	for i := 1; i < len(files); i++ {
		if files[i-1] >= files[i] {
			t.Errorf("files not sorted: %v", files)
		}
	}
	for _, f := range files {
		if strings.HasSuffix(f, ".js") {
			t.Errorf("plain JS file listed: %s", f)
		}
	}
}

func TestDriver_CheckDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.ts", "export const fine: number = 1;\n")
	writeFile(t, dir, "bad.ts", `let broken: number = "text";`)

	var out bytes.Buffer
	d := newTestDriver(t, &out)
	results, err := d.CheckDir(context.Background(), dir, 2, nil)
	if err != nil {
		t.Fatalf("CheckDir failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}

	// results come back in sorted file order
	if !strings.HasSuffix(results[0].Path, "bad.ts") {
		t.Errorf("first result = %s, want bad.ts", results[0].Path)
	}
	if !results[0].Bag.HasErrors() {
		t.Error("bad.ts produced no errors")
	}
	if results[1].Bag.HasErrors() {
		t.Errorf("good.ts produced errors: %+v", results[1].Bag.Items())
	}
}

func TestDriver_CheckDirEvents(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "one.ts", "export const a = 1;\n")
	writeFile(t, dir, "two.ts", "export const b = 2;\n")

	var out bytes.Buffer
	d := newTestDriver(t, &out)

	events := make(chan CheckEvent, 64)
	collected := make(chan []CheckEvent, 1)
	go func() {
		var evs []CheckEvent
		for ev := range events {
			evs = append(evs, ev)
		}
		collected <- evs
	}()

	if _, err := d.CheckDir(context.Background(), dir, 1, events); err != nil {
		t.Fatalf("CheckDir failed: %v", err)
	}
	evs := <-collected

	done := map[string]bool{}
	for _, ev := range evs {
		if ev.Status == StatusDone {
			done[filepath.Base(ev.File)] = true
		}
	}
	if !done["one.ts"] || !done["two.ts"] {
		t.Errorf("missing done events: %+v", evs)
	}
}

func TestDriver_CheckDirEmpty(t *testing.T) {
	var out bytes.Buffer
	d := newTestDriver(t, &out)
	results, err := d.CheckDir(context.Background(), t.TempDir(), 0, nil)
	if err != nil {
		t.Fatalf("CheckDir failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results = %d, want 0", len(results))
	}
}
