package fault

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureReturnsError(t *testing.T) {
	sentinel := errors.New("boom")
	err := Capture(func() error { return sentinel })
	assert.ErrorIs(t, err, sentinel)
}

func TestCaptureRecoversPanic(t *testing.T) {
	err := Capture(func() error { panic("bad index") })
	require.Error(t, err)

	var p *PanicError
	require.ErrorAs(t, err, &p)
	assert.Equal(t, "bad index", p.Value)
	assert.NotEmpty(t, p.Stack)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindPlugin, KindOf(errors.New("x")))
	assert.Equal(t, KindConfiguration, KindOf(Configuration("missing %s", "anim")))
	assert.Equal(t, KindContract, KindOf(Contract("no sprite runtime")))
	assert.Nil(t, Classified(KindResource, nil))
}

func TestFaultErrorMessage(t *testing.T) {
	f := Fault{
		Kind:   KindPlugin,
		Phase:  PhaseUpdate,
		Oid:    "player",
		Source: "user/move.js",
		Err:    errors.New("undefined is not a function"),
	}
	assert.Equal(t, "plugin fault in update of user/move.js on player: undefined is not a function", f.Error())
	assert.NoError(t, Join(nil))
	assert.ErrorIs(t, Join([]Fault{f}), f.Err)
}
