package runtime

import (
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/dop251/goja"
)

// builtinModules lists the Go-native modules addressable by bare specifier.
func builtinModules() map[string]BuiltinLoader {
	return map[string]BuiltinLoader{
		"assert": assertModule,
		"path":   pathModule,
		"env":    envModule,
	}
}

// assertModule exposes a callable default export plus named helpers. Both a
// default and named exports are present so the flattening path in the module
// builder gets exercised by ordinary programs.
func assertModule(rt *goja.Runtime) (*goja.Object, error) {
	fail := func(msg string) {
		panic(rt.NewGoError(errors.New(msg)))
	}
	ok := func(call goja.FunctionCall) goja.Value {
		if !call.Argument(0).ToBoolean() {
			msg := "assertion failed"
			if m := call.Argument(1); !goja.IsUndefined(m) {
				msg = m.String()
			}
			fail(msg)
		}
		return goja.Undefined()
	}
	equal := func(call goja.FunctionCall) goja.Value {
		a, b := call.Argument(0), call.Argument(1)
		if !a.StrictEquals(b) {
			msg := fmt.Sprintf("expected %s to equal %s", a.String(), b.String())
			if m := call.Argument(2); !goja.IsUndefined(m) {
				msg = m.String()
			}
			fail(msg)
		}
		return goja.Undefined()
	}

	exports := rt.NewObject()
	if err := exports.Set("default", ok); err != nil {
		return nil, err
	}
	if err := exports.Set("ok", ok); err != nil {
		return nil, err
	}
	if err := exports.Set("equal", equal); err != nil {
		return nil, err
	}
	return exports, nil
}

// pathModule mirrors the slash-separated subset scripts expect; it uses Go's
// path package on purpose, not filepath, so behavior is OS-independent.
func pathModule(rt *goja.Runtime) (*goja.Object, error) {
	exports := rt.NewObject()
	join := func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, a := range call.Arguments {
			parts[i] = a.String()
		}
		return rt.ToValue(path.Join(parts...))
	}
	unary := func(fn func(string) string) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			return rt.ToValue(fn(call.Argument(0).String()))
		}
	}
	if err := exports.Set("join", join); err != nil {
		return nil, err
	}
	if err := exports.Set("dirname", unary(path.Dir)); err != nil {
		return nil, err
	}
	if err := exports.Set("basename", unary(path.Base)); err != nil {
		return nil, err
	}
	if err := exports.Set("extname", unary(path.Ext)); err != nil {
		return nil, err
	}
	if err := exports.Set("normalize", unary(path.Clean)); err != nil {
		return nil, err
	}
	return exports, nil
}

// envModule gives scripts read-only access to process environment variables.
func envModule(rt *goja.Runtime) (*goja.Object, error) {
	exports := rt.NewObject()
	get := func(call goja.FunctionCall) goja.Value {
		v, ok := os.LookupEnv(call.Argument(0).String())
		if !ok {
			return goja.Undefined()
		}
		return rt.ToValue(v)
	}
	has := func(call goja.FunctionCall) goja.Value {
		_, ok := os.LookupEnv(call.Argument(0).String())
		return rt.ToValue(ok)
	}
	if err := exports.Set("get", get); err != nil {
		return nil, err
	}
	if err := exports.Set("has", has); err != nil {
		return nil, err
	}
	return exports, nil
}
