package loader

import (
	"context"
	"errors"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/showroom/internal/engine/model"
	"github.com/Faultbox/showroom/internal/engine/texture"
)

// loadSkins reads every <dir>/<skin id>/ directory. Images inside are keyed
// by file name without extension, which must match a material name.
// A missing skins directory yields no skins.
func (l *Loader) loadSkins(ctx context.Context, dir string) ([]model.Skin, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var skins []model.Skin
	for _, e := range entries {
		if e.IsDir() {
			skins = append(skins, model.Skin{
				ID:       e.Name(),
				Dir:      filepath.Join(dir, e.Name()),
				Textures: make(map[string]*image.RGBA),
			})
		}
	}
	sort.Slice(skins, func(i, j int) bool { return skins[i].ID < skins[j].ID })

	workers := l.opts.SkinWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	for i := range skins {
		skin := &skins[i]
		files, err := os.ReadDir(skin.Dir)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if f.IsDir() || !texture.IsImage(f.Name()) {
				continue
			}
			path := filepath.Join(skin.Dir, f.Name())
			material := strings.TrimSuffix(f.Name(), filepath.Ext(f.Name()))
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				img, err := texture.Load(path)
				if err != nil {
					l.log.Warn("skipping skin texture", zap.String("path", path), zap.Error(err))
					return nil
				}
				img = texture.Fit(img, l.opts.MaxTextureSize)
				mu.Lock()
				skin.Textures[material] = img
				mu.Unlock()
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return skins, nil
}
