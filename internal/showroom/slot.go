package showroom

import (
	"github.com/Faultbox/showroom/internal/catalog"
	"github.com/Faultbox/showroom/internal/engine/model"
	"github.com/Faultbox/showroom/internal/notify"
)

// FieldSlot is emitted on Slot.Changes whenever the resolved entry changes.
const FieldSlot = "slot"

// Resolver maps a model file and skin id to catalog metadata.
type Resolver interface {
	Resolve(sourcePath, skinID string) (catalog.Entry, bool)
}

// Slot follows the renderer's active car and keeps the matching catalog
// car and skin, so overlays and the remote API can show proper names.
type Slot struct {
	Changes notify.Notifier

	r        *Renderer
	resolver Resolver
	entry    catalog.Entry
	cancel   func()
}

// NewSlot starts tracking r.
func NewSlot(r *Renderer, resolver Resolver) *Slot {
	s := &Slot{r: r, resolver: resolver}
	s.cancel = r.Changes.Subscribe(func(c notify.Change) {
		if c.Field == FieldCar || c.Field == model.FieldSkin {
			s.sync()
		}
	})
	s.sync()
	return s
}

func (s *Slot) sync() {
	var entry catalog.Entry
	if car := s.r.Car(); car != nil {
		entry, _ = s.resolver.Resolve(car.Source().Path, car.CurrentSkin())
	}
	if entry == s.entry {
		return
	}
	s.entry = entry
	s.Changes.Emit(FieldSlot, entry)
}

// Car returns the catalog car of the active model, or nil.
func (s *Slot) Car() *catalog.Car {
	return s.entry.Car
}

// Skin returns the catalog skin of the active model, or nil.
func (s *Slot) Skin() *catalog.Skin {
	return s.entry.Skin
}

// Title returns "<car name> (<skin name>)" or the empty string.
func (s *Slot) Title() string {
	switch {
	case s.entry.Car == nil:
		return ""
	case s.entry.Skin == nil:
		return s.entry.Car.Name
	default:
		return s.entry.Car.Name + " (" + s.entry.Skin.DisplayName() + ")"
	}
}

// Close stops tracking.
func (s *Slot) Close() {
	s.cancel()
}
