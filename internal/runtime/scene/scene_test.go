package scene

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajsengine/ajs/internal/runtime/object"
)

const sceneJSON = `{
  "objects": [
    {"oid": "bg", "extension": "com.ajs.shape", "layer": 0, "properties": {"name": "background"}},
    {"oid": "hero", "extension": "com.ajs.sprite", "layer": 2, "properties": {"name": "hero", "tag": "player",
      "scripts": [{"path": "move.js", "enabled": true, "properties": {"speed": 5}}]}},
    {"oid": "coin", "extension": "com.ajs.sprite", "layer": 1, "properties": {"tags": ["pickup"]}}
  ]
}`

const sceneYAML = `
objects:
  - oid: bg
    extension: com.ajs.shape
    properties:
      width: 640
      color: {r: 10, g: 20, b: 30}
  - oid: label
    extension: com.ajs.text
    layer: 3
    properties:
      text: hello
`

func TestLoadJSONAndOrdering(t *testing.T) {
	data, err := LoadJSON(strings.NewReader(sceneJSON))
	require.NoError(t, err)
	require.Len(t, data.Objects, 3)

	s := New()
	for _, od := range data.Objects {
		require.NoError(t, s.Add(Instantiate(od)))
	}

	var oids []string
	for _, obj := range s.Objects() {
		oids = append(oids, obj.Oid())
	}
	assert.Equal(t, []string{"bg", "coin", "hero"}, oids)

	hero, ok := s.Find("hero")
	require.True(t, ok)
	assert.Equal(t, "com.ajs.sprite", hero.Extension)

	bg, ok := s.Find("background")
	require.True(t, ok)
	assert.Equal(t, "bg", bg.Oid())

	assert.Len(t, s.FindWithTag("player"), 1)
	assert.Len(t, s.FindWithTag("pickup"), 1)

	require.True(t, s.Relayer("bg", 5))
	objs := s.Objects()
	assert.Equal(t, "bg", objs[len(objs)-1].Oid())
}

func TestLoadYAMLNormalizesNumbers(t *testing.T) {
	data, err := LoadYAML(strings.NewReader(sceneYAML))
	require.NoError(t, err)
	require.Len(t, data.Objects, 2)

	props := data.Objects[0].Properties
	assert.Equal(t, 640.0, props["width"])
	color, ok := props["color"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 20.0, color["g"])
}

func TestValidateRejectsDuplicates(t *testing.T) {
	_, err := LoadJSON(strings.NewReader(`{"objects":[{"oid":"a"},{"oid":"a"}]}`))
	assert.ErrorIs(t, err, ErrDuplicateOid)

	_, err = LoadJSON(strings.NewReader(`{"objects":[{"extension":"x"}]}`))
	assert.ErrorIs(t, err, ErrMissingOid)
}

func TestInstantiateCopiesProperties(t *testing.T) {
	od := ObjectData{Oid: "a", Properties: map[string]any{"nested": map[string]any{"v": 1.0}}}
	obj := Instantiate(od)
	obj.Properties["nested"].(map[string]any)["v"] = 2.0
	assert.Equal(t, 1.0, od.Properties["nested"].(map[string]any)["v"])
}

func TestAddRejectsDuplicateAndRemove(t *testing.T) {
	s := New()
	require.NoError(t, s.Add(object.New("a", "", nil)))
	assert.ErrorIs(t, s.Add(object.New("a", "", nil)), ErrDuplicateOid)

	obj, ok := s.Remove("a")
	require.True(t, ok)
	assert.Equal(t, "a", obj.Oid())
	assert.Equal(t, 0, s.Len())
	_, ok = s.Remove("a")
	assert.False(t, ok)
}
