package routing

import (
	"errors"
	"html/template"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testController struct {
	Controller
	initCalls   int
	layoutCalls int
	initErr     error
}

func (t *testController) SetupLayout() {
	t.layoutCalls++
	t.SetLayout(template.Must(template.New("test").Parse("{{.}}")))
}

func (t *testController) Init() error {
	t.initCalls++
	return t.initErr
}

func (t *testController) Index(in *In) *Out {
	return in.OutputString("index")
}

func (t *testController) Show(in *In) *Out {
	if len(in.Params) > 0 {
		return in.OutputString("show " + in.Params[0])
	}
	return in.OutputString("show")
}

// not an action: wrong signature
func (t *testController) Helper() string {
	return "helper"
}

type forgivingController struct {
	Controller
	missed []string
}

func (f *forgivingController) MissingMethod(params []string) (*Out, error) {
	f.missed = params
	return (&In{}).OutputString("fallback"), nil
}

func newTestController(t *testing.T) (*testController, *FilterRegistry) {
	t.Helper()
	reg := NewFilterRegistry()
	c := &testController{}
	require.NoError(t, InitController(c, reg))
	return c, reg
}

func TestInitControllerSequence(t *testing.T) {
	c, reg := newTestController(t)
	assert.Equal(t, 1, c.layoutCalls)
	assert.Equal(t, 1, c.initCalls)
	assert.NotNil(t, c.GetLayout())
	assert.Same(t, reg, c.GetFilterer())
	assert.Equal(t, []string{"Index", "Show"}, c.ActionNames())
	assert.False(t, c.HasAction("Helper"))
}

func TestInitControllerPropagatesInitError(t *testing.T) {
	c := &testController{initErr: invalidArgument("boom")}
	err := InitController(c, NewFilterRegistry())
	require.Error(t, err)
	assert.True(t, IsInvalidArgument(err))
}

func TestDefaultLayoutIsAbsent(t *testing.T) {
	c := &forgivingController{}
	require.NoError(t, InitController(c, NewFilterRegistry()))
	assert.Nil(t, c.GetLayout())
}

func TestRegisterFiltersKeepsOrder(t *testing.T) {
	c, _ := newTestController(t)
	before := []string{"auth", "csrf", "auth", "throttle:60,1"}
	after := []string{"log", "log"}
	for _, f := range before {
		require.NoError(t, c.RegisterBeforeFilter(f, nil))
	}
	for _, f := range after {
		require.NoError(t, c.RegisterAfterFilter(f, nil))
	}
	bf := c.GetBeforeFilters()
	af := c.GetAfterFilters()
	require.Len(t, bf, 4)
	require.Len(t, af, 2)
	assert.Equal(t, "auth", bf[0].Filter)
	assert.Equal(t, "csrf", bf[1].Filter)
	assert.Equal(t, "auth", bf[2].Filter)
	assert.Equal(t, "throttle", bf[3].Filter)
	assert.Equal(t, "log", af[1].Filter)
}

func TestPlainFilterDescriptors(t *testing.T) {
	c, reg := newTestController(t)
	opts := FilterOptions{"only": "index"}
	require.NoError(t, c.RegisterBeforeFilter("auth", opts))
	require.NoError(t, c.RegisterBeforeFilter("throttle:60,1", nil))

	want := []FilterDescriptor{
		{Filter: "auth", Parameters: []string{}, Options: FilterOptions{"only": "index"}},
		{Filter: "throttle", Parameters: []string{"60", "1"}, Options: FilterOptions{}},
	}
	if diff := cmp.Diff(want, c.GetBeforeFilters()); diff != "" {
		t.Fatalf("before filters mismatch (-want +got):\n%s", diff)
	}
	// plain names never touch the filterer
	assert.Equal(t, 0, reg.Len())
}

func TestClosureFiltersGetUniqueNames(t *testing.T) {
	c, reg := newTestController(t)
	f1 := func(in *In) *Out { return in.Continue() }
	f2 := FilterFunc(func(in *In) *Out { return in.OutputString("stop") })

	require.NoError(t, c.RegisterBeforeFilter(f1, nil))
	require.NoError(t, c.RegisterAfterFilter(f2, nil))
	require.NoError(t, c.RegisterAfterFilter(f2, nil))

	d1 := c.GetBeforeFilters()[0]
	d2 := c.GetAfterFilters()[0]
	d3 := c.GetAfterFilters()[1]
	assert.NotEmpty(t, d1.Filter)
	assert.NotEqual(t, d1.Filter, d2.Filter)
	assert.NotEqual(t, d2.Filter, d3.Filter)
	assert.Empty(t, d1.Parameters)
	assert.Equal(t, 3, reg.Len())

	fn, ok := reg.Func(d2.Filter)
	require.True(t, ok)
	assert.Equal(t, "stop", fn(&In{}).String())
	fn, ok = reg.Func(d1.Filter)
	require.True(t, ok)
	assert.True(t, fn(&In{}).IsContinue())
}

func TestInstanceFilter(t *testing.T) {
	c, reg := newTestController(t)
	require.NoError(t, c.RegisterBeforeFilter("@index", FilterOptions{"except": "show"}))

	bf := c.GetBeforeFilters()
	require.Len(t, bf, 1)
	assert.Equal(t, "@index", bf[0].Filter)
	assert.Empty(t, bf[0].Parameters)
	assert.True(t, bf[0].IsInstance())

	v, ok := reg.Lookup("@index")
	require.True(t, ok)
	mf, ok := v.(*MethodFilter)
	require.True(t, ok)
	assert.Equal(t, "Index", mf.Method)
	assert.Same(t, c, mf.Controller)
	assert.Equal(t, "index", mf.Call(&In{}).String())
}

func TestMissingInstanceFilter(t *testing.T) {
	c, reg := newTestController(t)
	err := c.RegisterBeforeFilter("@missing", nil)
	require.Error(t, err)
	assert.True(t, IsInvalidArgument(err))
	assert.Equal(t, "Filter method [@missing] does not exist.", err.Error())
	assert.Empty(t, c.GetBeforeFilters())
	assert.Equal(t, 0, reg.Len())

	err = c.RegisterAfterFilter("@helper", nil)
	require.Error(t, err)
	assert.Empty(t, c.GetAfterFilters())
}

func TestIsInstanceFilter(t *testing.T) {
	c, _ := newTestController(t)

	ok, err := c.IsInstanceFilter("@show")
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.IsInstanceFilter("auth")
	assert.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.IsInstanceFilter(FilterFunc(func(in *In) *Out { return nil }))
	assert.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.IsInstanceFilter("@nope")
	assert.False(t, ok)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestParseFilterRejectsOtherTypes(t *testing.T) {
	c, _ := newTestController(t)
	_, err := c.ParseFilter(42, nil)
	assert.True(t, IsInvalidArgument(err))
	err = c.RegisterBeforeFilter(FilterFunc(nil), nil)
	assert.True(t, IsInvalidArgument(err))
	assert.Empty(t, c.GetBeforeFilters())
}

func TestFilterWithoutFilterer(t *testing.T) {
	c := &testController{}
	require.NoError(t, InitController(c, nil))

	require.NoError(t, c.RegisterBeforeFilter("auth", nil))
	err := c.RegisterBeforeFilter(func(in *In) *Out { return nil }, nil)
	assert.True(t, IsInvalidArgument(err))
	err = c.RegisterBeforeFilter("@index", nil)
	assert.True(t, IsInvalidArgument(err))
	assert.Len(t, c.GetBeforeFilters(), 1)
}

func TestFilterWithTypedNilFilterer(t *testing.T) {
	var reg *FilterRegistry
	c := &testController{}
	require.NoError(t, InitController(c, reg))
	assert.Nil(t, c.GetFilterer())

	err := c.RegisterBeforeFilter(func(in *In) *Out { return nil }, nil)
	assert.True(t, IsInvalidArgument(err))
	err = c.RegisterAfterFilter("@index", nil)
	assert.True(t, IsInvalidArgument(err))
	assert.Empty(t, c.GetBeforeFilters())
	assert.Empty(t, c.GetAfterFilters())
}

func TestGetFiltersReturnsCopy(t *testing.T) {
	c, _ := newTestController(t)
	require.NoError(t, c.RegisterBeforeFilter("auth", nil))
	bf := c.GetBeforeFilters()
	bf[0].Filter = "changed"
	bf = append(bf, FilterDescriptor{Filter: "extra"})
	assert.Len(t, bf, 2)
	assert.Equal(t, "auth", c.GetBeforeFilters()[0].Filter)
	assert.Len(t, c.GetBeforeFilters(), 1)
}

func TestFiltererSharedAcrossControllers(t *testing.T) {
	reg := NewFilterRegistry()
	c1 := &testController{}
	c2 := &forgivingController{}
	require.NoError(t, InitController(c1, reg))
	require.NoError(t, InitController(c2, reg))
	assert.Same(t, reg, c1.GetFilterer())
	assert.Same(t, reg, c2.GetFilterer())

	other := NewFilterRegistry()
	c1.SetFilterer(other)
	assert.Same(t, other, c1.GetFilterer())
}

type baseController struct {
	Controller
}

func (b *baseController) Init() error {
	return b.RegisterBeforeFilter("@audit", nil)
}

func (b *baseController) Audit(in *In) *Out {
	return in.Continue()
}

type derivedController struct {
	baseController
}

func (d *derivedController) Init() error {
	if err := d.baseController.Init(); err != nil {
		return err
	}
	return d.RegisterAfterFilter("@list", nil)
}

func (d *derivedController) List(in *In) *Out {
	return in.OutputString("list")
}

func TestFiltererSharedWithDerivedControllers(t *testing.T) {
	reg := NewFilterRegistry()
	base := &baseController{}
	derived := &derivedController{}
	require.NoError(t, InitController(base, reg))
	v, ok := reg.Lookup("@audit")
	require.True(t, ok)
	assert.Same(t, base, v.(*MethodFilter).Controller)

	require.NoError(t, InitController(derived, reg))
	assert.Same(t, reg, base.GetFilterer())
	assert.Same(t, reg, derived.GetFilterer())
	assert.Same(t, reg, derived.baseController.GetFilterer())

	// methods promoted from the intermediate type are bound to the
	// outermost controller
	v, ok = reg.Lookup("@audit")
	require.True(t, ok)
	assert.Same(t, derived, v.(*MethodFilter).Controller)
	v, ok = reg.Lookup("@list")
	require.True(t, ok)
	mf := v.(*MethodFilter)
	assert.Same(t, derived, mf.Controller)
	assert.Equal(t, "list", mf.Call(&In{}).String())

	assert.Len(t, derived.GetBeforeFilters(), 1)
	assert.Len(t, derived.GetAfterFilters(), 1)
	assert.Equal(t, 2, reg.Len())
}

func TestCallAction(t *testing.T) {
	c, _ := newTestController(t)

	out, err := CallAction(c, "index", nil)
	require.NoError(t, err)
	assert.Equal(t, "index", out.String())

	in := NewIn(nil, nil, "42")
	out, err = CallAction(c, "SHOW", in)
	require.NoError(t, err)
	assert.Equal(t, "show 42", out.String())
	assert.Same(t, c, in.Controller)
	assert.Equal(t, "SHOW", in.Action)
}

func TestCallMissingAction(t *testing.T) {
	c, _ := newTestController(t)
	out, err := CallAction(c, "destroy", NewIn(nil, nil, "1"))
	assert.Nil(t, out)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "Controller method not found.", err.Error())
	assert.Equal(t, 404, HTTPStatus(err))

	_, err = c.MissingMethod(nil)
	assert.True(t, IsNotFound(err))
}

func TestCallMissingActionOverridden(t *testing.T) {
	c := &forgivingController{}
	require.NoError(t, InitController(c, NewFilterRegistry()))
	out, err := CallAction(c, "anything", NewIn(nil, nil, "a", "b"))
	require.NoError(t, err)
	assert.Equal(t, "fallback", out.String())
	assert.Equal(t, []string{"a", "b"}, c.missed)
}

func TestRegisterActionExplicitly(t *testing.T) {
	c := &forgivingController{}
	require.NoError(t, InitController(c, NewFilterRegistry()))
	c.RegisterAction("Ping", func(in *In) *Out { return in.OutputString("pong") })
	require.NoError(t, c.RegisterBeforeFilter("@ping", nil))
	out, err := CallAction(c, "ping", nil)
	require.NoError(t, err)
	assert.Equal(t, "pong", out.String())
}
