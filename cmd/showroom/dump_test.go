package main

import (
	"context"
	"image"
	"strings"
	"testing"

	"github.com/Faultbox/showroom/internal/config"
	"github.com/Faultbox/showroom/internal/engine/gpu"
	"github.com/Faultbox/showroom/internal/engine/model"
)

func TestSummarize(t *testing.T) {
	d := &model.Data{
		Source: model.Source{Path: "cars/coupe/coupe.glb"},
		Name:   "coupe",
		LODs: []model.LOD{{Out: 20, Meshes: []gpu.MeshData{{
			Name:     "body",
			Material: "paint",
			Vertices: make([]gpu.Vertex, 4),
			Indices:  []uint32{0, 1, 2, 0, 2, 3},
		}}}},
		Skins: []model.Skin{{ID: "red", Textures: map[string]*image.RGBA{
			"paint": image.NewRGBA(image.Rect(0, 0, 8, 4)),
		}}},
	}

	s := summarize(d)
	if s.Source != "cars/coupe/coupe.glb" || len(s.LODs) != 1 || len(s.Skins) != 1 {
		t.Fatalf("summary = %+v", s)
	}
	if m := s.LODs[0].Meshes[0]; m.Vertices != 4 || m.Triangles != 2 || m.Material != "paint" {
		t.Errorf("mesh = %+v", m)
	}
	if got := s.Skins[0].Textures["paint"]; got != image.Pt(8, 4) {
		t.Errorf("paint size = %v", got)
	}
}

func TestDumpNeedsCar(t *testing.T) {
	var sb strings.Builder
	if err := dump(context.Background(), config.Default(), &sb); err == nil {
		t.Error("dump without a car succeeded")
	}
}
