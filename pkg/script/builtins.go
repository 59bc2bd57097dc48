package script

import (
	"context"
	"errors"
	"fmt"

	"github.com/mittwald/mittcheck/pkg/bridge"
	"github.com/mittwald/mittcheck/pkg/value"
	starlarkjson "go.starlark.net/lib/json"
	"go.starlark.net/starlark"
)

func (s *Script) predeclaredNames() map[string]struct{} {
	names := map[string]struct{}{
		"catch": {},
		"json":  {},
	}
	for c := range s.caps {
		names[string(c)] = struct{}{}
	}
	return names
}

// predeclared binds the host functions to ctx. It is built per execution so
// that cancellation reaches in-flight I/O.
func (s *Script) predeclared(ctx context.Context) starlark.StringDict {
	d := starlark.StringDict{
		"catch": starlark.NewBuiltin("catch", catchBuiltin(ctx)),
		"json":  starlarkjson.Module,
	}

	if s.caps.Has(bridge.CapabilityGet) {
		d[string(bridge.CapabilityGet)] = starlark.NewBuiltin(string(bridge.CapabilityGet), func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var url string
			if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &url); err != nil {
				return nil, err
			}
			return responseTuple(s.host.Get(ctx, url))
		})
	}

	if s.caps.Has(bridge.CapabilityPostText) {
		d[string(bridge.CapabilityPostText)] = starlark.NewBuiltin(string(bridge.CapabilityPostText), func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var url, text string
			if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &url, &text); err != nil {
				return nil, err
			}
			return responseTuple(s.host.PostText(ctx, url, text))
		})
	}

	if s.caps.Has(bridge.CapabilityPostJSON) {
		d[string(bridge.CapabilityPostJSON)] = starlark.NewBuiltin(string(bridge.CapabilityPostJSON), func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var url string
			var payload starlark.Value
			if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &url, &payload); err != nil {
				return nil, err
			}
			v, err := fromStarlark(payload)
			if err != nil {
				return nil, err
			}
			return responseTuple(s.host.PostJSON(ctx, url, v))
		})
	}

	if s.caps.Has(bridge.CapabilityRemoteCommand) {
		d[string(bridge.CapabilityRemoteCommand)] = starlark.NewBuiltin(string(bridge.CapabilityRemoteCommand), func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var host, user, secret string
			var list starlark.Value
			if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 4, &host, &user, &secret, &list); err != nil {
				return nil, err
			}
			commands, err := stringList(b.Name(), list)
			if err != nil {
				return nil, err
			}
			out, err := s.host.RemoteCommand(ctx, host, user, secret, commands)
			if err != nil {
				return nil, err
			}
			return starlark.String(out), nil
		})
	}

	return d
}

func responseTuple(res bridge.Response, err error) (starlark.Value, error) {
	if err != nil {
		return nil, err
	}
	return starlark.Tuple{starlark.String(res.Status), starlark.String(res.Body)}, nil
}

func stringList(fn string, v starlark.Value) ([]string, error) {
	converted, err := fromStarlark(v)
	if err != nil {
		return nil, err
	}
	if converted.Kind() != value.KindSeq {
		return nil, fmt.Errorf("%s: commands must be a list of strings, got %s", fn, v.Type())
	}

	items := converted.Items()
	out := make([]string, len(items))
	for i, item := range items {
		s, ok := item.AsString()
		if !ok {
			return nil, fmt.Errorf("%s: command %d must be a string, got %s", fn, i, item.Kind())
		}
		out[i] = s
	}
	return out, nil
}

// catchBuiltin implements catch(fn, *args, **kwargs). It returns
// (result, None) on success and (None, message) if fn fails. Cancellation
// of the execution is never caught.
func catchBuiltin(ctx context.Context) func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
	return func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if len(args) == 0 {
			return nil, fmt.Errorf("%s: missing function argument", b.Name())
		}
		fn, ok := args[0].(starlark.Callable)
		if !ok {
			return nil, fmt.Errorf("%s: first argument must be callable, got %s", b.Name(), args[0].Type())
		}

		result, err := starlark.Call(thread, fn, args[1:], kwargs)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			msg := err.Error()
			var evalErr *starlark.EvalError
			if errors.As(err, &evalErr) {
				msg = evalErr.Msg
			}
			return starlark.Tuple{starlark.None, starlark.String(msg)}, nil
		}
		return starlark.Tuple{result, starlark.None}, nil
	}
}
