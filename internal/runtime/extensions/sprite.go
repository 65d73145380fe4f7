package extensions

import (
	"image"
	"slices"
	"sync"

	"github.com/ajsengine/ajs/internal/core/observability/log"
	"github.com/ajsengine/ajs/internal/runtime/extension"
	"github.com/ajsengine/ajs/internal/runtime/fault"
	"github.com/ajsengine/ajs/internal/runtime/object"
	"github.com/ajsengine/ajs/internal/runtime/render"
)

const (
	SpriteID = "com.ajs.sprite"

	animationKey    = "animation"
	defaultAnimFPS  = 12.0
	propSpriteSheet = "spriteSheet"
	propImagePath   = "imagePath"
	propAnimation   = "animation"
	propAutoplay    = "autoplay"
	propFlipX       = "flipX"
	propFPS         = "fps"
)

type animation struct {
	frames []int
	fps    float64
	loop   bool
}

// spriteState lives under internal.animation. The image arrives from an
// asset goroutine, so every field is guarded.
type spriteState struct {
	mu sync.Mutex

	img     image.Image
	loadErr error

	frameW, frameH int
	columns        int
	anims          map[string]animation
	names          []string

	current string
	frame   int
	elapsed float64
	playing bool
}

// Sprite draws an image or one frame of a sprite sheet and steps named
// animations by scaled frame time.
type Sprite struct{}

func NewSprite() *Sprite {
	return &Sprite{}
}

func (*Sprite) Manifest() extension.Manifest {
	return extension.Manifest{ID: SpriteID, Name: "Sprite", Version: "1.0.0"}
}

func spriteOf(obj *object.GameObject) (*spriteState, bool) {
	return object.State[spriteState](obj, animationKey)
}

// sheetImage finds the image path in either the sheet or the object.
func sheetImage(obj *object.GameObject, sheet map[string]any) string {
	for _, k := range []string{"imagePath", "image", "path"} {
		if s, ok := sheet[k].(string); ok && s != "" {
			return s
		}
	}
	return obj.GetString(propImagePath, "")
}

func parseAnimations(raw any, fallbackFPS float64) map[string]animation {
	out := make(map[string]animation)
	m, ok := raw.(map[string]any)
	if !ok {
		return out
	}
	for name, v := range m {
		def, ok := v.(map[string]any)
		if !ok {
			continue
		}
		a := animation{fps: fallbackFPS, loop: true}
		if list, ok := def["frames"].([]any); ok {
			for _, f := range list {
				if n, ok := object.ToFloat(f); ok && n >= 0 {
					a.frames = append(a.frames, int(n))
				}
			}
		}
		if fps, ok := object.ToFloat(def["fps"]); ok && fps > 0 {
			a.fps = fps
		}
		if loop, ok := def["loop"].(bool); ok {
			a.loop = loop
		}
		if len(a.frames) > 0 {
			out[name] = a
		}
	}
	return out
}

func (*Sprite) OnCreated(obj *object.GameObject, api extension.API) error {
	sheet, _ := obj.Properties[propSpriteSheet].(map[string]any)
	st := &spriteState{
		anims:   parseAnimations(sheet["animations"], obj.GetFloat(propFPS, defaultAnimFPS)),
		playing: obj.GetBool(propAutoplay, true),
	}
	if w, ok := object.ToFloat(sheet["frameWidth"]); ok {
		st.frameW = int(w)
	}
	if h, ok := object.ToFloat(sheet["frameHeight"]); ok {
		st.frameH = int(h)
	}
	if c, ok := object.ToFloat(sheet["columns"]); ok {
		st.columns = int(c)
	}
	for name := range st.anims {
		st.names = append(st.names, name)
	}
	slices.Sort(st.names)

	st.current = obj.GetString(propAnimation, "")
	if _, ok := st.anims[st.current]; !ok {
		if st.current != "" {
			api.Logger().Warn("unknown animation, using first",
				log.Oid(obj.Oid()), log.String("animation", st.current))
		}
		st.current = ""
		if len(st.names) > 0 {
			st.current = st.names[0]
		}
	}
	obj.Internal.Set(animationKey, st)

	path := sheetImage(obj, sheet)
	loader := api.Assets()
	if path == "" || loader == nil {
		return nil
	}
	path = api.ResolveAssetPath(path)
	if img, ok := loader.Image(path); ok {
		st.img = img
		return nil
	}
	ctx, logger := api.Context(), api.Logger()
	go func() {
		img, err := loader.LoadImage(ctx, path)
		st.mu.Lock()
		st.img, st.loadErr = img, err
		st.mu.Unlock()
		if err != nil {
			logger.Warn("sprite image failed", log.Oid(obj.Oid()), log.AssetPath(path), log.Error(err))
		}
	}()
	return nil
}

func (*Sprite) OnUpdate(obj *object.GameObject, dt float64, _ extension.API) error {
	st, ok := spriteOf(obj)
	if !ok {
		return nil
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.step(dt)
	return nil
}

func (st *spriteState) step(dt float64) {
	a, ok := st.anims[st.current]
	if !ok || !st.playing || a.fps <= 0 {
		return
	}
	frameDur := 1000 / a.fps
	st.elapsed += dt
	for st.elapsed >= frameDur {
		st.elapsed -= frameDur
		st.frame++
		if st.frame < len(a.frames) {
			continue
		}
		if a.loop {
			st.frame = 0
			continue
		}
		st.frame = len(a.frames) - 1
		st.playing = false
		st.elapsed = 0
		return
	}
}

// sourceRect is the sheet cell for the current frame, or the whole image.
func (st *spriteState) sourceRect() image.Rectangle {
	bounds := st.img.Bounds()
	a, ok := st.anims[st.current]
	if !ok || st.frameW <= 0 || st.frameH <= 0 {
		return bounds
	}
	cols := st.columns
	if cols <= 0 {
		cols = max(bounds.Dx()/st.frameW, 1)
	}
	cell := a.frames[min(st.frame, len(a.frames)-1)]
	x := bounds.Min.X + (cell%cols)*st.frameW
	y := bounds.Min.Y + (cell/cols)*st.frameH
	return image.Rect(x, y, x+st.frameW, y+st.frameH)
}

func (*Sprite) OnRender(obj *object.GameObject, c render.Canvas, _ extension.API) error {
	st, ok := spriteOf(obj)
	if !ok {
		return nil
	}
	st.mu.Lock()
	img := st.img
	var src image.Rectangle
	if img != nil {
		src = st.sourceRect()
	}
	st.mu.Unlock()
	if img == nil {
		return nil
	}

	b := boundsOf(obj, float64(src.Dx()), float64(src.Dy()))
	applyTransform(c, obj, b)
	if obj.GetBool(propFlipX, false) {
		c.Scale(-1, 1)
	}
	c.DrawImage(img, src, -b.W/2, -b.H/2, b.W, b.H)
	return nil
}

func (*Sprite) OnDestroyed(obj *object.GameObject, _ extension.API) error {
	obj.Internal.Delete(animationKey)
	return nil
}

func (*Sprite) Methods() map[string]extension.Method {
	return map[string]extension.Method{
		"getAnimationNames": func(obj *object.GameObject, _ extension.API, _ ...any) (any, error) {
			st, ok := spriteOf(obj)
			if !ok {
				return []string{}, nil
			}
			st.mu.Lock()
			defer st.mu.Unlock()
			return slices.Clone(st.names), nil
		},
		"getCurrentAnimation": func(obj *object.GameObject, _ extension.API, _ ...any) (any, error) {
			st, ok := spriteOf(obj)
			if !ok {
				return "", nil
			}
			st.mu.Lock()
			defer st.mu.Unlock()
			return st.current, nil
		},
		"isPlaying": func(obj *object.GameObject, _ extension.API, _ ...any) (any, error) {
			st, ok := spriteOf(obj)
			if !ok {
				return false, nil
			}
			st.mu.Lock()
			defer st.mu.Unlock()
			return st.playing, nil
		},
		"setAnimation": func(obj *object.GameObject, _ extension.API, args ...any) (any, error) {
			name, err := argString(args, 0)
			if err != nil {
				return nil, err
			}
			st, ok := spriteOf(obj)
			if !ok {
				return nil, fault.Contract("%s: object %s has no sprite state", SpriteID, obj.Oid())
			}
			st.mu.Lock()
			defer st.mu.Unlock()
			return nil, st.set(name)
		},
		"play": func(obj *object.GameObject, _ extension.API, args ...any) (any, error) {
			st, ok := spriteOf(obj)
			if !ok {
				return nil, nil
			}
			st.mu.Lock()
			defer st.mu.Unlock()
			if len(args) > 0 {
				name, err := argString(args, 0)
				if err != nil {
					return nil, err
				}
				if err := st.set(name); err != nil {
					return nil, err
				}
			}
			st.playing = true
			return nil, nil
		},
		"stop": func(obj *object.GameObject, _ extension.API, _ ...any) (any, error) {
			st, ok := spriteOf(obj)
			if !ok {
				return nil, nil
			}
			st.mu.Lock()
			defer st.mu.Unlock()
			st.playing = false
			st.frame, st.elapsed = 0, 0
			return nil, nil
		},
	}
}

// set switches animation. Re-selecting the current one keeps its progress.
func (st *spriteState) set(name string) error {
	if _, ok := st.anims[name]; !ok {
		return fault.Configuration("unknown animation %q", name)
	}
	if name == st.current {
		return nil
	}
	st.current = name
	st.frame, st.elapsed = 0, 0
	st.playing = true
	return nil
}
