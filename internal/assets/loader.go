package assets

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/Faultbox/topdown/internal/engine/character"
)

// Sub-asset labels produced by the animation loader.
const (
	LabelTexture     = "texture"
	LabelAtlasLayout = "texture_atlas_layout"
)

// Loaded is the result of a loader: the primary asset and any labeled
// sub-assets derived from the same file.
type Loaded struct {
	Value   any
	Labeled map[string]any
}

// Loader turns file contents into an asset. id is the handle the asset is
// stored under; it stays the same across reloads.
type Loader interface {
	Extensions() []string
	Load(data []byte, id uuid.UUID) (*Loaded, error)
}

// AnimationLoader decodes Aseprite files into character animations.
type AnimationLoader struct{}

// Extensions implements Loader.
func (AnimationLoader) Extensions() []string {
	return []string{"aseprite", "ase"}
}

// Load implements Loader. The animation takes the handle's ID so playback
// state can tell a reload from a different animation.
func (AnimationLoader) Load(data []byte, id uuid.UUID) (*Loaded, error) {
	dec, err := character.DecodeBytes(data)
	if err != nil {
		return nil, err
	}
	dec.Animation.ID = id
	return &Loaded{
		Value: dec.Animation,
		Labeled: map[string]any{
			LabelTexture:     dec.Texture,
			LabelAtlasLayout: dec.Layout,
		},
	}, nil
}

// extension returns the lower-cased extension of p without the dot.
func extension(p string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
}

// SplitLabel splits "walker.aseprite#texture" into its path and label.
func SplitLabel(p string) (string, string) {
	if i := strings.LastIndexByte(p, '#'); i >= 0 {
		return p[:i], p[i+1:]
	}
	return p, ""
}

func loaderError(p string, err error) error {
	return fmt.Errorf("loading %s: %w", p, err)
}
