package findconfig

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"go.starlark.net/starlark"
)

// DefaultStarlarkTimeout is the default execution timeout for Starlark config files.
const DefaultStarlarkTimeout = 5 * time.Second

// ErrConfigureNotFound is returned when the config file doesn't define a configure() function.
var ErrConfigureNotFound = errors.New("config must define a configure() function")

// ErrConfigureReturnType is returned when configure() doesn't return a dict.
var ErrConfigureReturnType = errors.New("configure() must return a dict")

// LoadStarlarkConfig loads a configuration from a Starlark file.
// The file must define a configure() function that returns a dict.
// The execution is sandboxed: no filesystem or network access, with a timeout.
func LoadStarlarkConfig(path string, timeout time.Duration) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	thread := &starlark.Thread{
		Name: path,
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			thread.Cancel("execution timeout")
		case <-done:
		}
	}()
	defer close(done)

	globals, err := starlark.ExecFile(thread, path, data, configPredeclared())
	if err != nil {
		return nil, fmt.Errorf("executing config %s: %w", path, err)
	}

	configureFn, ok := globals["configure"]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrConfigureNotFound)
	}
	fn, ok := configureFn.(*starlark.Function)
	if !ok {
		return nil, fmt.Errorf("%s: configure must be a function, got %s", path, configureFn.Type())
	}

	result, err := starlark.Call(thread, fn, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: calling configure(): %w", path, err)
	}

	dict, ok := result.(*starlark.Dict)
	if !ok {
		return nil, fmt.Errorf("%s: %w, got %s", path, ErrConfigureReturnType, result.Type())
	}

	return dictToConfig(dict)
}

// configPredeclared returns the predeclared values for config Starlark files.
// This is a sandboxed environment with no filesystem or network access.
func configPredeclared() starlark.StringDict {
	return starlark.StringDict{
		"getenv":    starlark.NewBuiltin("getenv", builtinGetenv),
		"host_os":   starlark.String(runtime.GOOS),
		"host_arch": starlark.String(runtime.GOARCH),
	}
}

// builtinGetenv implements getenv(name, default="") -> string.
func builtinGetenv(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	var defaultVal starlark.String
	if err := starlark.UnpackArgs("getenv", args, kwargs, "name", &name, "default?", &defaultVal); err != nil {
		return nil, err
	}

	val := os.Getenv(name)
	if val == "" {
		return defaultVal, nil
	}
	return starlark.String(val), nil
}

// dictToConfig converts a Starlark dict to a Config struct.
func dictToConfig(d *starlark.Dict) (*Config, error) {
	cfg := DefaultConfig()

	if v, found, _ := d.Get(starlark.String("search")); found {
		searchDict, ok := v.(*starlark.Dict)
		if !ok {
			return nil, fmt.Errorf("search must be a dict, got %s", v.Type())
		}
		if err := parseSearchConfig(searchDict, &cfg.Search); err != nil {
			return nil, fmt.Errorf("parsing search config: %w", err)
		}
	}

	if v, found, _ := d.Get(starlark.String("native")); found {
		nativeDict, ok := v.(*starlark.Dict)
		if !ok {
			return nil, fmt.Errorf("native must be a dict, got %s", v.Type())
		}
		if err := parseNativeConfig(nativeDict, &cfg.Native); err != nil {
			return nil, fmt.Errorf("parsing native config: %w", err)
		}
	}

	if v, found, _ := d.Get(starlark.String("workspace")); found {
		s, ok := starlark.AsString(v)
		if !ok {
			return nil, fmt.Errorf("workspace must be a string, got %s", v.Type())
		}
		cfg.Workspace = s
	}

	return cfg, nil
}

// parseSearchConfig parses the search section from a Starlark dict.
func parseSearchConfig(d *starlark.Dict, cfg *SearchConfig) error {
	if v, found, _ := d.Get(starlark.String("path")); found {
		path, err := stringList(v, "path")
		if err != nil {
			return err
		}
		cfg.Path = path
	}
	if v, found, _ := d.Get(starlark.String("suffixes")); found {
		suffixes, err := stringList(v, "suffixes")
		if err != nil {
			return err
		}
		cfg.Suffixes = suffixes
	}
	return nil
}

// parseNativeConfig parses the native section from a Starlark dict.
func parseNativeConfig(d *starlark.Dict, cfg *NativeConfig) error {
	if v, found, _ := d.Get(starlark.String("docs_index")); found {
		s, ok := starlark.AsString(v)
		if !ok {
			return fmt.Errorf("docs_index must be a string, got %s", v.Type())
		}
		cfg.DocsIndex = s
	}
	if v, found, _ := d.Get(starlark.String("source_root")); found {
		s, ok := starlark.AsString(v)
		if !ok {
			return fmt.Errorf("source_root must be a string, got %s", v.Type())
		}
		cfg.SourceRoot = s
	}
	return nil
}

// stringList converts a Starlark list of strings.
func stringList(v starlark.Value, field string) ([]string, error) {
	list, ok := v.(*starlark.List)
	if !ok {
		return nil, fmt.Errorf("%s must be a list, got %s", field, v.Type())
	}
	var out []string
	for i := 0; i < list.Len(); i++ {
		s, ok := starlark.AsString(list.Index(i))
		if !ok {
			return nil, fmt.Errorf("%s[%d] must be a string", field, i)
		}
		out = append(out, s)
	}
	return out, nil
}
