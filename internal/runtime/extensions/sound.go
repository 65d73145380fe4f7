package extensions

import (
	"github.com/ajsengine/ajs/internal/core/observability/log"
	"github.com/ajsengine/ajs/internal/runtime/audio"
	"github.com/ajsengine/ajs/internal/runtime/extension"
	"github.com/ajsengine/ajs/internal/runtime/fault"
	"github.com/ajsengine/ajs/internal/runtime/object"
)

const (
	SoundID = "com.ajs.sound"

	soundKey = "sound"
)

// soundState is touched only on the frame goroutine. The clip itself comes
// from the asset cache; a play requested before it arrives is held until it
// does.
type soundState struct {
	path    string
	handle  audio.Handle
	pending bool
}

// Sound plays one clip per object. The playing voice is stopped and released
// when the object is destroyed.
type Sound struct{}

func NewSound() *Sound {
	return &Sound{}
}

func (*Sound) Manifest() extension.Manifest {
	return extension.Manifest{ID: SoundID, Name: "Sound", Version: "1.0.0"}
}

func soundOf(obj *object.GameObject) (*soundState, bool) {
	return object.State[soundState](obj, soundKey)
}

func (*Sound) OnCreated(obj *object.GameObject, api extension.API) error {
	path := obj.GetString("soundPath", "")
	if path == "" {
		return fault.Configuration("%s: object %s has no soundPath", SoundID, obj.Oid())
	}
	st := &soundState{path: api.ResolveAssetPath(path), pending: obj.GetBool(propAutoplay, false)}
	obj.Internal.Set(soundKey, st)

	if loader := api.Assets(); loader != nil {
		if _, ok := loader.Sound(st.path); !ok {
			ctx, logger := api.Context(), api.Logger()
			go func() {
				if _, err := loader.LoadSound(ctx, st.path); err != nil {
					logger.Warn("sound failed", log.Oid(obj.Oid()), log.AssetPath(st.path), log.Error(err))
				}
			}()
		}
	}
	return nil
}

// OnUpdate starts a held play once the clip is cached.
func (*Sound) OnUpdate(obj *object.GameObject, _ float64, api extension.API) error {
	st, ok := soundOf(obj)
	if !ok || !st.pending {
		return nil
	}
	_, err := start(obj, st, api)
	return err
}

// start plays the clip now when it is cached and otherwise marks it pending.
func start(obj *object.GameObject, st *soundState, api extension.API) (bool, error) {
	player, loader := api.Audio(), api.Assets()
	if player == nil || loader == nil {
		st.pending = false
		return false, fault.Contract("%w", ErrNoAudio)
	}
	snd, ok := loader.Sound(st.path)
	if !ok {
		st.pending = true
		return false, nil
	}
	st.pending = false
	if st.handle != 0 {
		player.Stop(st.handle)
	}
	h, err := player.Play(snd, audio.PlayOptions{
		Volume: obj.GetFloat("volume", 1),
		Loop:   obj.GetBool("loop", false),
	})
	if err != nil {
		return false, err
	}
	st.handle = h
	return true, nil
}

func (*Sound) OnDestroyed(obj *object.GameObject, api extension.API) error {
	st, ok := soundOf(obj)
	if !ok {
		return nil
	}
	if st.handle != 0 {
		if player := api.Audio(); player != nil {
			player.Stop(st.handle)
		}
	}
	obj.Internal.Delete(soundKey)
	return nil
}

func (*Sound) Methods() map[string]extension.Method {
	return map[string]extension.Method{
		// play reports whether playback started now; false means it will
		// start once the clip has loaded.
		"play": func(obj *object.GameObject, api extension.API, _ ...any) (any, error) {
			st, ok := soundOf(obj)
			if !ok {
				return false, nil
			}
			return start(obj, st, api)
		},
		"stop": func(obj *object.GameObject, api extension.API, _ ...any) (any, error) {
			st, ok := soundOf(obj)
			if !ok {
				return nil, nil
			}
			st.pending = false
			if st.handle != 0 {
				if player := api.Audio(); player != nil {
					player.Stop(st.handle)
				}
				st.handle = 0
			}
			return nil, nil
		},
		"isPlaying": func(obj *object.GameObject, api extension.API, _ ...any) (any, error) {
			st, ok := soundOf(obj)
			player := api.Audio()
			if !ok || player == nil || st.handle == 0 {
				return false, nil
			}
			return player.IsPlaying(st.handle), nil
		},
		// setVolume applies from the next play.
		"setVolume": func(obj *object.GameObject, _ extension.API, args ...any) (any, error) {
			v, err := argFloat(args, 0)
			if err != nil {
				return nil, err
			}
			obj.Set("volume", min(max(v, 0), 1))
			return nil, nil
		},
	}
}
