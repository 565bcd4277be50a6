// Package catalog reads car and skin metadata stored next to the models.
//
// The layout is <root>/<car id>/ui/ui_car.yaml for the car and
// <root>/<car id>/skins/<skin id>/ui_skin.yaml for each skin. Both files
// are optional; a car directory without them still resolves.
package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned for car ids without a directory.
var ErrNotFound = errors.New("car not found")

// Car is the metadata of one car directory.
type Car struct {
	ID          string   `yaml:"-"`
	Dir         string   `yaml:"-"`
	Name        string   `yaml:"name"`
	Brand       string   `yaml:"brand"`
	Class       string   `yaml:"class"`
	Year        int      `yaml:"year"`
	Tags        []string `yaml:"tags"`
	DefaultSkin string   `yaml:"default_skin"`
	Skins       []*Skin  `yaml:"-"`
}

// Skin is the metadata of one skin directory.
type Skin struct {
	ID         string `yaml:"-"`
	Name       string `yaml:"skinname"`
	DriverName string `yaml:"drivername"`
	Country    string `yaml:"country"`
	Team       string `yaml:"team"`
	Number     string `yaml:"number"`
}

// DisplayName returns the skin name, falling back to its id.
func (s *Skin) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

// Skin returns the skin with the given id, or nil.
func (c *Car) Skin(id string) *Skin {
	for _, s := range c.Skins {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// SelectedSkin returns the configured default skin, else the first one.
func (c *Car) SelectedSkin() *Skin {
	if s := c.Skin(c.DefaultSkin); s != nil {
		return s
	}
	if len(c.Skins) > 0 {
		return c.Skins[0]
	}
	return nil
}

// Entry is a resolved car and skin pair.
type Entry struct {
	Car  *Car
	Skin *Skin
}

// Catalog loads car metadata on first use and keeps it. It is safe for
// concurrent use.
type Catalog struct {
	root string

	mu   sync.Mutex
	cars map[string]*Car
}

// Open returns a catalog rooted at dir. Nothing is read until queried.
func Open(dir string) *Catalog {
	return &Catalog{root: dir, cars: make(map[string]*Car)}
}

// Root returns the catalog directory.
func (c *Catalog) Root() string {
	return c.root
}

// List returns the ids of every car directory, sorted.
func (c *Catalog) List() ([]string, error) {
	entries, err := os.ReadDir(c.root)
	if err != nil {
		return nil, fmt.Errorf("listing cars: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Car returns the metadata of one car.
func (c *Catalog) Car(id string) (*Car, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if car, ok := c.cars[id]; ok {
		return car, nil
	}
	car, err := readCar(filepath.Join(c.root, id), id)
	if err != nil {
		return nil, err
	}
	c.cars[id] = car
	return car, nil
}

// Forget drops cached metadata so the next query rereads it.
func (c *Catalog) Forget(id string) {
	c.mu.Lock()
	delete(c.cars, id)
	c.mu.Unlock()
}

// Resolve maps a model file to the car owning its directory and to the
// skin with skinID, falling back to the car's selected skin.
func (c *Catalog) Resolve(sourcePath, skinID string) (Entry, bool) {
	if sourcePath == "" {
		return Entry{}, false
	}
	id := filepath.Base(filepath.Dir(filepath.Clean(sourcePath)))
	car, err := c.Car(id)
	if err != nil {
		return Entry{}, false
	}
	skin := car.Skin(skinID)
	if skin == nil {
		skin = car.SelectedSkin()
	}
	return Entry{Car: car, Skin: skin}, true
}

func readCar(dir, id string) (*Car, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.IsDir()) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	car := &Car{}
	if err := readYAML(filepath.Join(dir, "ui", "ui_car.yaml"), car); err != nil {
		return nil, err
	}
	car.ID, car.Dir = id, dir
	if car.Name == "" {
		car.Name = id
	}

	entries, err := os.ReadDir(filepath.Join(dir, "skins"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("listing skins of %s: %w", id, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		skin := &Skin{}
		if err := readYAML(filepath.Join(dir, "skins", e.Name(), "ui_skin.yaml"), skin); err != nil {
			return nil, err
		}
		skin.ID = e.Name()
		car.Skins = append(car.Skins, skin)
	}
	sort.Slice(car.Skins, func(i, j int) bool { return car.Skins[i].ID < car.Skins[j].ID })
	return car, nil
}

// readYAML decodes path into v; a missing file leaves v untouched.
func readYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}
