package routing

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v2"
)

// FilterConfig declares one filter in the config file. Filter is a filter
// string ("auth", "throttle:60,1" or "@method").
type FilterConfig struct {
	Filter  string                 `yaml:"filter" json:"filter"`
	Options map[string]interface{} `yaml:"options,omitempty" json:"options,omitempty"`
}

type ControllerConfig struct {
	Before []FilterConfig `yaml:"before,omitempty" json:"before,omitempty"`
	After  []FilterConfig `yaml:"after,omitempty" json:"after,omitempty"`
}

type AppConfig struct {
	Name        string                      `yaml:"name" json:"name"`
	Version     string                      `yaml:"version" json:"version"`
	Log         LogConfig                   `yaml:"log" json:"log"`
	Controllers map[string]ControllerConfig `yaml:"controllers" json:"controllers"`
}

var envVarRe = regexp.MustCompile(`(\$_*[A-Z][A-Z0-9_]+)`)

// ParseEnv replaces $VARS in the config strings with their values.
func (a *AppConfig) ParseEnv() {
	replacer := func(raw string) string {
		return os.Getenv(raw[1:])
	}
	a.Name = envVarRe.ReplaceAllStringFunc(a.Name, replacer)
	a.Version = envVarRe.ReplaceAllStringFunc(a.Version, replacer)
	a.Log.Level = envVarRe.ReplaceAllStringFunc(a.Log.Level, replacer)
	a.Log.Mode = envVarRe.ReplaceAllStringFunc(a.Log.Mode, replacer)
	a.Log.FilePath = envVarRe.ReplaceAllStringFunc(a.Log.FilePath, replacer)
	for name, cc := range a.Controllers {
		for i := range cc.Before {
			cc.Before[i].Filter = envVarRe.ReplaceAllStringFunc(cc.Before[i].Filter, replacer)
		}
		for i := range cc.After {
			cc.After[i].Filter = envVarRe.ReplaceAllStringFunc(cc.After[i].Filter, replacer)
		}
		a.Controllers[name] = cc
	}
}

// Validate checks the declared filters.
func (a *AppConfig) Validate() error {
	for name, cc := range a.Controllers {
		for _, list := range [][]FilterConfig{cc.Before, cc.After} {
			for _, fc := range list {
				if strings.TrimSpace(fc.Filter) == "" {
					return configError("controller "+name+" declares an empty filter", nil)
				}
				if n, _ := ParseFilterString(fc.Filter); n == "" {
					return configError("controller "+name+" declares filter ["+fc.Filter+"] without a name", nil)
				}
			}
		}
	}
	return nil
}

// ParseConfig decodes a YAML or JSON config. ext picks the format.
func ParseConfig(b []byte, ext string) (*AppConfig, error) {
	cfg := &AppConfig{}
	var err error
	switch strings.ToLower(ext) {
	case ".json":
		err = json.Unmarshal(b, cfg)
	default:
		err = yaml.Unmarshal(b, cfg)
	}
	if err != nil {
		return nil, configError("could not parse config", err)
	}
	for name, cc := range cfg.Controllers {
		for i := range cc.Before {
			cc.Before[i].Options = normalizeOptions(cc.Before[i].Options)
		}
		for i := range cc.After {
			cc.After[i].Options = normalizeOptions(cc.After[i].Options)
		}
		cfg.Controllers[name] = cc
	}
	cfg.ParseEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigFile reads and parses the config at path. A relative
// log.file_path is resolved against the directory of the config file.
func LoadConfigFile(path string) (*AppConfig, error) {
	full := FormatPath("", path)
	b, err := ioutil.ReadFile(full)
	if err != nil {
		return nil, configError("could not read config file "+path, err)
	}
	cfg, err := ParseConfig(b, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	cfg.Log.FilePath = FormatPath(filepath.Dir(full), cfg.Log.FilePath)
	return cfg, nil
}

// findConfigPath returns the config path: explicit, then $APPCONFIGPATH,
// $APPCONFIG, then AppConfig.yaml / AppConfig.json in the cwd.
func findConfigPath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	for _, env := range []string{"APPCONFIGPATH", "APPCONFIG"} {
		if v := os.Getenv(env); v != "" {
			return v, nil
		}
	}
	for _, name := range []string{"AppConfig.yaml", "AppConfig.yml", "AppConfig.json"} {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
	}
	return "", configError("no config file found", nil)
}

// yaml.v2 decodes nested maps as map[interface{}]interface{}.
func normalizeOptions(in map[string]interface{}) map[string]interface{} {
	if in == nil {
		return nil
	}
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v interface{}) interface{} {
	switch vv := v.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(vv))
		for k, x := range vv {
			m[cast.ToString(k)] = normalizeValue(x)
		}
		return m
	case []interface{}:
		for i := range vv {
			vv[i] = normalizeValue(vv[i])
		}
		return vv
	}
	return v
}

// FormatPath resolves rawpath against base, or against the working
// directory when base is empty. Absolute paths are only cleaned and an
// empty rawpath stays empty.
func FormatPath(base, rawpath string) string {
	if rawpath == "" {
		return ""
	}
	if filepath.IsAbs(rawpath) {
		return filepath.Clean(rawpath)
	}
	if base == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return filepath.Clean(rawpath)
		}
		base = cwd
	}
	return filepath.Join(base, rawpath)
}
