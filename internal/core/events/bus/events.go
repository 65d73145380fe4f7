package bus

// Event types published by the runtime.
const (
	ObjectCreated   = "object.created"
	ObjectDestroyed = "object.destroyed"
	AssetLoaded     = "asset.loaded"
	AssetFailed     = "asset.failed"
	FaultRaised     = "runtime.fault"
	SceneLoaded     = "scene.loaded"
	SceneStopped    = "scene.stopped"
)

// ObjectEvent is the payload of ObjectCreated and ObjectDestroyed.
type ObjectEvent struct {
	Oid       string
	Extension string
}

// AssetEvent is the payload of AssetLoaded and AssetFailed.
type AssetEvent struct {
	Kind string
	Path string
	Err  error
}

// SceneEvent is the payload of SceneLoaded and SceneStopped.
type SceneEvent struct {
	Name    string
	Objects int
}
