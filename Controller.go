package routing

import (
	"html/template"
	"reflect"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// IController is implemented by every struct embedding Controller.
type IController interface {
	Init() error
	SetupLayout()
	GetLayout() *template.Template
	GetBeforeFilters() []FilterDescriptor
	GetAfterFilters() []FilterDescriptor
	GetFilterer() Filterer
	SetFilterer(f Filterer)
	RegisterBeforeFilter(filter interface{}, options FilterOptions) error
	RegisterAfterFilter(filter interface{}, options FilterOptions) error
	RegisterAction(name string, fn Action)
	MissingMethod(params []string) (*Out, error)
	getAction(name string) (Action, bool)
	bind(owner IController)
}

// Controller is the base every controller embeds.
type Controller struct {
	beforeFilters []FilterDescriptor
	afterFilters  []FilterDescriptor
	layout        *template.Template
	filterer      Filterer
	actions       map[string]controllerAction
	owner         IController
}

type controllerAction struct {
	Name string
	Fn   Action
}

// Init is called once the controller is set up. Override it to register
// filters.
func (c *Controller) Init() error {
	return nil
}

// SetupLayout runs before Init. Override it to assign the layout.
func (c *Controller) SetupLayout() {}

func (c *Controller) GetLayout() *template.Template {
	return c.layout
}

func (c *Controller) SetLayout(t *template.Template) {
	c.layout = t
}

func (c *Controller) GetFilterer() Filterer {
	return c.filterer
}

// SetFilterer sets the filterer closures and "@method" filters are
// registered on. A typed nil counts as no filterer.
func (c *Controller) SetFilterer(f Filterer) {
	if isNilFilterer(f) {
		f = nil
	}
	c.filterer = f
}

// GetBeforeFilters returns a copy of the registered "before" filters.
func (c *Controller) GetBeforeFilters() []FilterDescriptor {
	return cloneDescriptors(c.beforeFilters)
}

// GetAfterFilters returns a copy of the registered "after" filters.
func (c *Controller) GetAfterFilters() []FilterDescriptor {
	return cloneDescriptors(c.afterFilters)
}

// RegisterBeforeFilter registers a filter that runs before the actions of
// the controller. filter is a filter name ("auth", "throttle:60,1"), a
// method of the controller ("@checkOwner") or a FilterFunc.
func (c *Controller) RegisterBeforeFilter(filter interface{}, options FilterOptions) error {
	d, err := c.ParseFilter(filter, options)
	if err != nil {
		return err
	}
	c.beforeFilters = append(c.beforeFilters, d)
	return nil
}

// RegisterAfterFilter is RegisterBeforeFilter for the "after" filters.
func (c *Controller) RegisterAfterFilter(filter interface{}, options FilterOptions) error {
	d, err := c.ParseFilter(filter, options)
	if err != nil {
		return err
	}
	c.afterFilters = append(c.afterFilters, d)
	return nil
}

// ParseFilter turns a filter and its options into a descriptor, registering
// closures and instance methods on the filterer.
func (c *Controller) ParseFilter(filter interface{}, options FilterOptions) (FilterDescriptor, error) {
	if options == nil {
		options = FilterOptions{}
	}
	d := FilterDescriptor{
		Parameters: []string{},
		Options:    options,
	}
	var err error
	switch f := filter.(type) {
	case FilterFunc:
		d.Filter, err = c.registerClosureFilter(f)
	case Action:
		d.Filter, err = c.registerClosureFilter(FilterFunc(f))
	case func(*In) *Out:
		d.Filter, err = c.registerClosureFilter(f)
	case string:
		var isInstance bool
		if isInstance, err = c.IsInstanceFilter(f); err != nil {
			break
		}
		if isInstance {
			d.Filter, err = c.registerInstanceFilter(f)
		} else {
			d.Filter, d.Parameters = ParseFilterString(f)
		}
	default:
		err = invalidArgument("Filter [%v] must be a filter name or a filter function.", filter)
	}
	if err != nil {
		return FilterDescriptor{}, err
	}
	return d, nil
}

// IsInstanceFilter reports whether filter references a method of this
// controller. A "@name" whose method does not exist is an error.
func (c *Controller) IsInstanceFilter(filter interface{}) (bool, error) {
	s, ok := filter.(string)
	if !ok || !strings.HasPrefix(s, instanceFilterPrefix) {
		return false, nil
	}
	if _, ok := c.getAction(s[len(instanceFilterPrefix):]); ok {
		return true, nil
	}
	return false, invalidArgument("Filter method [%s] does not exist.", s)
}

func (c *Controller) registerClosureFilter(fn FilterFunc) (string, error) {
	if fn == nil {
		return "", invalidArgument("Filter function is nil.")
	}
	if c.filterer == nil {
		return "", invalidArgument("Cannot register a filter function: no filterer set.")
	}
	name := uuid.New().String()
	c.filterer.Filter(name, fn)
	return name, nil
}

func (c *Controller) registerInstanceFilter(filter string) (string, error) {
	if c.filterer == nil {
		return "", invalidArgument("Cannot register filter method [%s]: no filterer set.", filter)
	}
	method := filter[len(instanceFilterPrefix):]
	act, _ := c.lookupAction(method)
	var owner IController = c
	if c.owner != nil {
		owner = c.owner
	}
	c.filterer.Filter(filter, &MethodFilter{
		Controller: owner,
		Method:     act.Name,
		Action:     act.Fn,
	})
	return filter, nil
}

// MissingMethod handles calls to actions the controller does not have.
func (c *Controller) MissingMethod(params []string) (*Out, error) {
	return nil, notFound("Controller method not found.")
}

// RegisterAction makes fn callable as the action name. Action names are
// case insensitive.
func (c *Controller) RegisterAction(name string, fn Action) {
	if c.actions == nil {
		c.actions = make(map[string]controllerAction)
	}
	c.actions[strings.ToLower(name)] = controllerAction{name, fn}
}

func (c *Controller) HasAction(name string) bool {
	_, ok := c.getAction(name)
	return ok
}

// ActionNames returns the registered action names, sorted.
func (c *Controller) ActionNames() []string {
	names := make([]string, 0, len(c.actions))
	for _, v := range c.actions {
		names = append(names, v.Name)
	}
	sort.Strings(names)
	return names
}

func (c *Controller) getAction(name string) (Action, bool) {
	v, ok := c.lookupAction(name)
	return v.Fn, ok
}

func (c *Controller) lookupAction(name string) (controllerAction, bool) {
	if c.actions == nil {
		return controllerAction{}, false
	}
	v, ok := c.actions[strings.ToLower(name)]
	if !ok || v.Fn == nil {
		return controllerAction{}, false
	}
	return v, true
}

func (c *Controller) bind(owner IController) {
	c.owner = owner
}

// InitController prepares a controller: injects the filterer, registers its
// actions, then runs SetupLayout and Init.
func InitController(c IController, f Filterer) error {
	if c == nil {
		return invalidArgument("Controller is nil.")
	}
	prepareController(c, f)
	c.SetupLayout()
	return c.Init()
}

// prepareController binds c, injects f and fills the action table. It
// doesn't run any user code, so it can be repeated.
func prepareController(c IController, f Filterer) {
	c.bind(c)
	c.SetFilterer(f)
	registerControllerActions(c)
}

// registerControllerActions registers every exported method with the
// signature func(*In) *Out.
func registerControllerActions(c IController) {
	v := reflect.ValueOf(c)
	t := v.Type()
	n := t.NumMethod()
	for i := 0; i < n; i++ {
		m := t.Method(i)
		if m.PkgPath != "" {
			continue
		}
		fn, ok := v.Method(i).Interface().(func(*In) *Out)
		if !ok {
			continue
		}
		c.RegisterAction(m.Name, fn)
	}
}

// CallAction invokes action on c. Unknown actions are handed to
// c.MissingMethod with the request parameters.
func CallAction(c IController, action string, in *In) (*Out, error) {
	if c == nil {
		return nil, notFound("Controller not found.")
	}
	if in == nil {
		in = NewIn(nil, nil)
	}
	in.Controller = c
	in.Action = action
	fn, ok := c.getAction(action)
	if !ok {
		return c.MissingMethod(in.Params)
	}
	return fn(in), nil
}
