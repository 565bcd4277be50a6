// Package loader decodes car models from glTF files into model.Data.
//
// Loading never touches the GPU, so it runs on background goroutines. The
// caller hands the result to model.New on the goroutine owning the device.
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Faultbox/showroom/internal/engine/model"
	"github.com/Faultbox/showroom/internal/logger"
)

// LoadError reports a missing or malformed model source.
type LoadError struct {
	Source model.Source
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Options tune decoding.
type Options struct {
	// MaxTextureSize downsamples larger skin textures. Zero keeps them as is.
	MaxTextureSize int
	// SkinWorkers bounds parallel texture decoding. Zero means one per CPU.
	SkinWorkers int
}

// Loader decodes models. Concurrent loads of the same source share one decode.
type Loader struct {
	opts  Options
	group singleflight.Group
	log   *zap.Logger
}

// New creates a loader.
func New(opts Options) *Loader {
	return &Loader{opts: opts, log: logger.Named("loader")}
}

// Load decodes src. It returns ctx.Err() when cancelled and *LoadError for
// unreadable or malformed files.
func (l *Loader) Load(ctx context.Context, src model.Source) (*model.Data, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if src.ID() == "" {
		return nil, &LoadError{Source: src, Err: os.ErrNotExist}
	}

	ch := l.group.DoChan(src.ID(), func() (any, error) {
		// Shared decodes must outlive the first caller's cancellation.
		return l.load(context.WithoutCancel(ctx), src)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.Data), nil
	}
}

func (l *Loader) load(ctx context.Context, src model.Source) (*model.Data, error) {
	doc, err := gltf.Open(src.Path)
	if err != nil {
		return nil, &LoadError{Source: src, Err: err}
	}

	data, err := decodeDocument(doc)
	if err != nil {
		return nil, &LoadError{Source: src, Err: err}
	}
	data.Source = src
	data.Name = strings.TrimSuffix(filepath.Base(src.Path), filepath.Ext(src.Path))

	skins, err := l.loadSkins(ctx, filepath.Join(filepath.Dir(src.Path), "skins"))
	if err != nil {
		return nil, &LoadError{Source: src, Err: err}
	}
	data.Skins = skins

	l.log.Debug("model decoded",
		zap.String("source", src.ID()),
		zap.Int("lods", len(data.LODs)),
		zap.Int("cameras", len(data.Cameras)),
		zap.Int("skins", len(data.Skins)))
	return data, nil
}
