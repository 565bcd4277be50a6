package watch

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func startWatcher(t *testing.T, root string) (*Watcher, <-chan Change) {
	t.Helper()
	w, err := New(50 * time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Watch(root); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan Change, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx, func(c Change) { changes <- c })
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		w.Close()
	})
	return w, changes
}

func write(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func next(t *testing.T, changes <-chan Change) Change {
	t.Helper()
	select {
	case c := <-changes:
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
		return Change{}
	}
}

func TestWatchDebouncesChanges(t *testing.T) {
	root := t.TempDir()
	skin := filepath.Join(root, "skins", "red")
	if err := os.MkdirAll(skin, 0o755); err != nil {
		t.Fatal(err)
	}
	_, changes := startWatcher(t, root)

	write(t, filepath.Join(root, "coupe.glb"))
	write(t, filepath.Join(skin, "paint.png"))

	want := []string{filepath.Join(root, "coupe.glb"), filepath.Join(skin, "paint.png")}
	var all Change
	for !slices.Contains(all.Paths, want[0]) || !slices.Contains(all.Paths, want[1]) {
		c := next(t, changes)
		if c.Root != root {
			t.Fatalf("root = %q", c.Root)
		}
		all.Paths = append(all.Paths, c.Paths...)
	}
	if !all.Touches(".glb") || !all.Touches(".png") {
		t.Errorf("Touches() = false for %v", all.Paths)
	}
}

func TestWatchIgnoresHiddenFiles(t *testing.T) {
	root := t.TempDir()
	_, changes := startWatcher(t, root)

	write(t, filepath.Join(root, ".coupe.glb.swp"))
	write(t, filepath.Join(root, "coupe.glb~"))
	write(t, filepath.Join(root, "coupe.glb"))

	c := next(t, changes)
	if len(c.Paths) != 1 || filepath.Base(c.Paths[0]) != "coupe.glb" {
		t.Errorf("paths = %v", c.Paths)
	}
}

func TestWatchSwitchRoot(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	w, changes := startWatcher(t, first)

	if err := w.Watch(second); err != nil {
		t.Fatal(err)
	}
	if w.Root() != second {
		t.Errorf("Root() = %q", w.Root())
	}
	write(t, filepath.Join(first, "old.glb"))
	write(t, filepath.Join(second, "new.glb"))

	c := next(t, changes)
	if c.Root != second || len(c.Paths) != 1 || filepath.Base(c.Paths[0]) != "new.glb" {
		t.Errorf("change = %+v", c)
	}

	if err := w.Watch(""); err != nil {
		t.Fatal(err)
	}
	write(t, filepath.Join(second, "again.glb"))
	select {
	case c := <-changes:
		t.Errorf("change after stop: %+v", c)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatchMissingRoot(t *testing.T) {
	w, err := New(0)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Watch(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("watching a missing directory succeeded")
	}
	if w.Root() != "" {
		t.Errorf("Root() = %q", w.Root())
	}
}

func TestChangeTouches(t *testing.T) {
	c := Change{Paths: []string{"/cars/a/skins/red/Paint.PNG"}}
	if !c.Touches(".png") {
		t.Error("extension match should ignore case")
	}
	if c.Touches(".glb", ".gltf") {
		t.Error("unexpected model change")
	}
}
