package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/davecgh/go-spew/spew"

	"github.com/Faultbox/showroom/internal/config"
	"github.com/Faultbox/showroom/internal/engine/gpu"
	"github.com/Faultbox/showroom/internal/engine/loader"
	"github.com/Faultbox/showroom/internal/engine/model"
)

// summary is what -dump prints: vertex and pixel data are reduced to counts.
type summary struct {
	Source  string
	Name    string
	LODs    []lodSummary
	Cameras []model.NamedCamera
	Skins   []skinSummary
}

type lodSummary struct {
	In, Out float32
	Meshes  []meshSummary
}

type meshSummary struct {
	Name      string
	Material  string
	Vertices  int
	Triangles int
}

type skinSummary struct {
	ID       string
	Textures map[string]image.Point
}

func summarize(d *model.Data) summary {
	s := summary{Source: d.Source.ID(), Name: d.Name, Cameras: d.Cameras}
	for _, lod := range d.LODs {
		ls := lodSummary{In: lod.In, Out: lod.Out}
		for _, m := range lod.Meshes {
			ls.Meshes = append(ls.Meshes, meshOf(m))
		}
		s.LODs = append(s.LODs, ls)
	}
	for _, skin := range d.Skins {
		ss := skinSummary{ID: skin.ID, Textures: make(map[string]image.Point, len(skin.Textures))}
		for slot, img := range skin.Textures {
			ss.Textures[slot] = img.Bounds().Size()
		}
		s.Skins = append(s.Skins, ss)
	}
	return s
}

func meshOf(m gpu.MeshData) meshSummary {
	return meshSummary{Name: m.Name, Material: m.Material, Vertices: len(m.Vertices), Triangles: len(m.Indices) / 3}
}

func dump(ctx context.Context, cfg *config.Config, w io.Writer) error {
	if cfg.Data.Car == "" {
		return errors.New("no car given, use -car")
	}
	data, err := loader.New(loader.Options{MaxTextureSize: cfg.Renderer.MaxTextureSize}).
		Load(ctx, model.Source{Path: cfg.Data.Car})
	if err != nil {
		return err
	}

	sc := spew.NewDefaultConfig()
	sc.DisableCapacities = true
	sc.DisablePointerAddresses = true
	sc.SortKeys = true
	_, err = fmt.Fprintln(w, sc.Sdump(summarize(data)))
	return err
}
