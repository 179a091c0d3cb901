package frame

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
)

type replaySource struct {
	paths []string
	next  int
	w, h  int
}

// NewReplaySource reads image files (png/jpg) from dir in lexical
// order, downscaling each to w×h. It returns io.EOF once the
// directory is exhausted.
func NewReplaySource(dir string, w, h int) (Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("replay source: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("replay source: no image files in %s", dir)
	}
	return &replaySource{paths: paths, w: w, h: h}, nil
}

func (r *replaySource) Next() (*Frame, error) {
	if r.next >= len(r.paths) {
		return nil, io.EOF
	}
	path := r.paths[r.next]
	r.next++

	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("replay source: open %s: %w", path, err)
	}
	return Scaled(img, r.w, r.h), nil
}
