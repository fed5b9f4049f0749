package routing

import (
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

type App struct {
	AppConfigPath string
	Config        *AppConfig
	Logger        zerolog.Logger
	Filterer      Filterer

	controllerMap map[string]IController
	mu            sync.RWMutex
}

// NewApp returns an App with an empty config, an in-memory FilterRegistry
// and a console logger.
func NewApp() *App {
	app := &App{
		Config:        &AppConfig{},
		controllerMap: make(map[string]IController),
	}
	app.Logger = NewLogger(app.Config.Log)
	reg := NewFilterRegistry()
	reg.SetLogger(app.Logger)
	app.Filterer = reg
	return app
}

// LoadConfigFile loads AppConfigPath (or the default locations) and
// re-creates the logger from the loaded config.
func (app *App) LoadConfigFile() error {
	path, err := findConfigPath(app.AppConfigPath)
	if err != nil {
		return err
	}
	return app.LoadConfig(path)
}

func (app *App) LoadConfig(path string) error {
	cfg, err := LoadConfigFile(path)
	if err != nil {
		return err
	}
	app.AppConfigPath = path
	app.Config = cfg
	app.Logger = NewLogger(cfg.Log)
	if reg, ok := app.Filterer.(*FilterRegistry); ok {
		reg.SetLogger(app.Logger)
	}
	app.Logger.Info().Str("path", path).Str("app", cfg.Name).Msg("config loaded")
	return nil
}

// SetFilterer replaces the filterer given to controllers registered from
// now on.
func (app *App) SetFilterer(f Filterer) {
	if isNilFilterer(f) {
		f = nil
	}
	app.Filterer = f
}

func (app *App) GetFilterer() Filterer {
	return app.Filterer
}

// RegisterStockFilters registers the ready-made filters (nocache, proxy).
func (app *App) RegisterStockFilters() {
	RegisterStockFilters(app.Filterer)
}

// RegisterController sets the controller up with the app filterer, applies
// the filters the config declares for it and makes it callable by its type
// name. The configured filters are checked before Init runs, so a bad
// config leaves the controller and the filterer untouched.
func (app *App) RegisterController(c IController) error {
	if c == nil {
		return invalidArgument("Controller is nil.")
	}
	name := controllerName(c)
	if _, ok := app.Controller(name); ok {
		return invalidArgument("Controller [%s] is already registered.", name)
	}
	cc := app.configuredFilters(name)
	prepareController(c, app.Filterer)
	if err := checkConfiguredFilters(c, cc); err != nil {
		return err
	}
	if err := InitController(c, app.Filterer); err != nil {
		return err
	}
	if err := app.applyConfiguredFilters(c, cc); err != nil {
		return err
	}

	app.mu.Lock()
	if app.controllerMap == nil {
		app.controllerMap = make(map[string]IController)
	}
	if _, ok := app.controllerMap[name]; ok {
		app.mu.Unlock()
		return invalidArgument("Controller [%s] is already registered.", name)
	}
	app.controllerMap[name] = c
	app.mu.Unlock()

	app.Logger.Info().
		Str("controller", name).
		Int("before", len(c.GetBeforeFilters())).
		Int("after", len(c.GetAfterFilters())).
		Msg("controller registered")
	return nil
}

func (app *App) configuredFilters(name string) ControllerConfig {
	if app.Config == nil || app.Config.Controllers == nil {
		return ControllerConfig{}
	}
	return app.Config.Controllers[name]
}

// checkConfiguredFilters makes sure every "@method" the config declares
// exists on c. Plain names were already checked by AppConfig.Validate.
func checkConfiguredFilters(c IController, cc ControllerConfig) error {
	for _, list := range [][]FilterConfig{cc.Before, cc.After} {
		for _, fc := range list {
			if !strings.HasPrefix(fc.Filter, instanceFilterPrefix) {
				continue
			}
			if _, ok := c.getAction(fc.Filter[len(instanceFilterPrefix):]); !ok {
				return invalidArgument("Filter method [%s] does not exist.", fc.Filter)
			}
			if c.GetFilterer() == nil {
				return invalidArgument("Cannot register filter method [%s]: no filterer set.", fc.Filter)
			}
		}
	}
	return nil
}

func (app *App) applyConfiguredFilters(c IController, cc ControllerConfig) error {
	for _, fc := range cc.Before {
		if err := c.RegisterBeforeFilter(fc.Filter, FilterOptions(fc.Options)); err != nil {
			return err
		}
	}
	for _, fc := range cc.After {
		if err := c.RegisterAfterFilter(fc.Filter, FilterOptions(fc.Options)); err != nil {
			return err
		}
	}
	return nil
}

func (app *App) Controller(name string) (IController, bool) {
	app.mu.RLock()
	defer app.mu.RUnlock()
	c, ok := app.controllerMap[name]
	return c, ok
}

func (app *App) ControllerNames() []string {
	app.mu.RLock()
	names := make([]string, 0, len(app.controllerMap))
	for k := range app.controllerMap {
		names = append(names, k)
	}
	app.mu.RUnlock()
	sort.Strings(names)
	return names
}

// CallAction calls action on the named controller.
func (app *App) CallAction(controller, action string, in *In) (*Out, error) {
	c, ok := app.Controller(controller)
	if !ok {
		return nil, notFound("Controller not found.")
	}
	out, err := CallAction(c, action, in)
	if err != nil {
		app.Logger.Debug().Err(err).Str("controller", controller).Str("action", action).Msg("action failed")
	}
	return out, err
}

func controllerName(c IController) string {
	t := reflect.TypeOf(c)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
