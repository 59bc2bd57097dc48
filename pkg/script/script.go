package script

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/mittwald/mittcheck/pkg/bridge"
	"github.com/mittwald/mittcheck/pkg/value"
	log "github.com/sirupsen/logrus"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// EntryPoint is the function every script must declare. It receives the
// query context as a dict and returns the snapshot as a dict.
const EntryPoint = "run"

// Host performs the I/O behind the capability functions. *bridge.Bridge
// implements it.
type Host interface {
	Get(ctx context.Context, url string) (bridge.Response, error)
	PostText(ctx context.Context, url, text string) (bridge.Response, error)
	PostJSON(ctx context.Context, url string, payload value.Value) (bridge.Response, error)
	RemoteCommand(ctx context.Context, host, user, secret string, commands []string) (string, error)
}

// Script is a compiled and validated check script. It is immutable and may
// be executed concurrently.
type Script struct {
	name     string
	source   string
	version  string
	program  *starlark.Program
	host     Host
	caps     bridge.Capabilities
	maxSteps uint64
	timeout  time.Duration
}

type Option func(*Script)

func WithHost(h Host) Option {
	return func(s *Script) {
		s.host = h
	}
}

func WithCapabilities(c bridge.Capabilities) Option {
	return func(s *Script) {
		s.caps = c
	}
}

// WithMaxSteps bounds the number of Starlark computation steps per
// execution. Zero means unlimited.
func WithMaxSteps(n uint64) Option {
	return func(s *Script) {
		s.maxSteps = n
	}
}

// WithTimeout bounds the total duration of one execution.
func WithTimeout(d time.Duration) Option {
	return func(s *Script) {
		s.timeout = d
	}
}

// New compiles source and validates that it declares run with exactly one
// parameter. No Script is returned if either step fails.
func New(name, source string, opts ...Option) (*Script, error) {
	sum := sha256.Sum256([]byte(source))
	s := &Script{
		name:    name,
		source:  source,
		version: hex.EncodeToString(sum[:])[:12],
		caps:    bridge.AllCapabilities(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.host == nil {
		s.host = bridge.New()
	}

	predeclared := s.predeclaredNames()
	file, program, err := starlark.SourceProgram(name+".star", source, func(n string) bool {
		_, ok := predeclared[n]
		return ok
	})
	if err != nil {
		return nil, &CompileError{Script: name, Err: err}
	}

	if err := validateEntryPoint(file); err != nil {
		return nil, &ValidationError{Script: name, Reason: err.Error()}
	}

	s.program = program

	log.WithFields(log.Fields{"kind": "script", "name": name, "version": s.version, "capabilities": s.caps.List()}).Debug("compiled script")
	return s, nil
}

func validateEntryPoint(f *syntax.File) error {
	var defs []*syntax.DefStmt
	for _, stmt := range f.Stmts {
		if def, ok := stmt.(*syntax.DefStmt); ok && def.Name.Name == EntryPoint {
			defs = append(defs, def)
		}
	}

	switch {
	case len(defs) == 0:
		return fmt.Errorf("function %q is not declared", EntryPoint)
	case len(defs) > 1:
		return fmt.Errorf("function %q is declared %d times", EntryPoint, len(defs))
	}

	def := defs[0]
	if len(def.Params) != 1 {
		return fmt.Errorf("function %q must take exactly one parameter, got %d", EntryPoint, len(def.Params))
	}
	if _, ok := def.Params[0].(*syntax.Ident); !ok {
		return fmt.Errorf("the parameter of %q must be a plain positional parameter", EntryPoint)
	}
	return nil
}

func (s *Script) Name() string {
	return s.name
}

func (s *Script) Source() string {
	return s.source
}

// Version is a digest of the source.
func (s *Script) Version() string {
	return s.version
}

func (s *Script) Capabilities() bridge.Capabilities {
	return s.caps
}

// Execute runs the script with info as argument to run. It never fails:
// every runtime error, including a recovered panic, is returned as a
// snapshot of the form {"error": message}.
func (s *Script) Execute(ctx context.Context, info value.Snapshot) value.Snapshot {
	snap, err := s.Run(ctx, info)
	if err != nil {
		log.WithFields(log.Fields{"kind": "script", "name": s.name, "version": s.version}).WithError(err).Debug("script failed")
		return value.ErrorSnapshot(err.Error())
	}
	return snap
}

// Run is Execute with the runtime error returned as *RuntimeError.
func (s *Script) Run(ctx context.Context, info value.Snapshot) (snap value.Snapshot, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &RuntimeError{Script: s.name, Msg: fmt.Sprintf("panic: %v", r)}
		}
	}()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	thread := &starlark.Thread{
		Name: s.name,
		Print: func(_ *starlark.Thread, msg string) {
			log.WithFields(log.Fields{"kind": "script", "name": s.name}).Debug(msg)
		},
	}
	if s.maxSteps > 0 {
		thread.SetMaxExecutionSteps(s.maxSteps)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			thread.Cancel(ctx.Err().Error())
		case <-done:
		}
	}()

	globals, err := s.program.Init(thread, s.predeclared(ctx))
	if err != nil {
		return value.Snapshot{}, s.runtimeError(err)
	}

	fn, ok := globals[EntryPoint].(*starlark.Function)
	if !ok {
		return value.Snapshot{}, &RuntimeError{Script: s.name, Msg: fmt.Sprintf("%q is not a function", EntryPoint)}
	}

	arg := toStarlark(info.Value())
	arg.Freeze()

	result, err := starlark.Call(thread, fn, starlark.Tuple{arg}, nil)
	if err != nil {
		return value.Snapshot{}, s.runtimeError(err)
	}

	dict, ok := result.(*starlark.Dict)
	if !ok {
		return value.Snapshot{}, &RuntimeError{Script: s.name, Msg: fmt.Sprintf("%s must return a dict, got %s", EntryPoint, result.Type())}
	}

	v, err := fromStarlark(dict)
	if err != nil {
		return value.Snapshot{}, &RuntimeError{Script: s.name, Msg: fmt.Sprintf("invalid result of %s: %v", EntryPoint, err), Err: err}
	}

	return value.SnapshotFromValue(v)
}

func (s *Script) runtimeError(err error) *RuntimeError {
	rerr := &RuntimeError{Script: s.name, Msg: err.Error(), Err: err}

	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		rerr.Msg = evalErr.Msg
		rerr.Backtrace = evalErr.Backtrace()
	}
	return rerr
}
