// Package fake provides in-memory readers for tests.
package fake

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"monori/internal/core"
	"monori/internal/readers"
)

// Registry is a map-backed readers.RegistryReader. Values are stored as
// uint32 (DWORD) or string (REG_SZ); reading with the wrong kind yields a
// Parse failure the way a type mismatch on a real hive does.
type Registry struct {
	mu     sync.Mutex
	values map[string]interface{}
	errs   map[string]error
	Reads  []string
}

func NewRegistry() *Registry {
	return &Registry{values: map[string]interface{}{}, errs: map[string]error{}}
}

func key(h readers.Hive, path, name string) string {
	return strings.ToLower(readers.ValuePath(h, path, name))
}

// SetDWORD stores a DWORD value.
func (r *Registry) SetDWORD(h readers.Hive, path, name string, v uint32) *Registry {
	r.values[key(h, path, name)] = v
	return r
}

// SetString stores a REG_SZ value.
func (r *Registry) SetString(h readers.Hive, path, name, v string) *Registry {
	r.values[key(h, path, name)] = v
	return r
}

// Fail makes every read of the value return err.
func (r *Registry) Fail(h readers.Hive, path, name string, err error) *Registry {
	r.errs[key(h, path, name)] = err
	return r
}

func (r *Registry) lookup(h readers.Hive, path, name string) (interface{}, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key(h, path, name)
	r.Reads = append(r.Reads, readers.ValuePath(h, path, name))
	if err, ok := r.errs[k]; ok {
		return nil, false, err
	}
	v, ok := r.values[k]
	return v, ok, nil
}

func (r *Registry) ReadDWORD(h readers.Hive, path, name string) (uint32, bool, error) {
	v, ok, err := r.lookup(h, path, name)
	if err != nil || !ok {
		return 0, false, err
	}
	d, isDWORD := v.(uint32)
	if !isDWORD {
		return 0, false, core.NewFailure(core.Parse, readers.ValuePath(h, path, name), fmt.Errorf("value is %T, want DWORD", v))
	}
	return d, true, nil
}

func (r *Registry) ReadString(h readers.Hive, path, name string) (string, bool, error) {
	v, ok, err := r.lookup(h, path, name)
	if err != nil || !ok {
		return "", false, err
	}
	s, isString := v.(string)
	if !isString {
		return "", false, core.NewFailure(core.Parse, readers.ValuePath(h, path, name), fmt.Errorf("value is %T, want string", v))
	}
	return s, true, nil
}

// Query is a table-backed readers.QueryClient. Tables hold slices of row
// structs keyed by class name.
type Query struct {
	mu      sync.Mutex
	tables  map[string]interface{}
	errs    map[string][]error
	Queries []string
}

func NewQuery() *Query {
	return &Query{tables: map[string]interface{}{}, errs: map[string][]error{}}
}

// SetTable stores rows (a slice of row structs) for class.
func (q *Query) SetTable(class string, rows interface{}) *Query {
	q.tables[class] = rows
	return q
}

// FailNext queues errors returned by the next queries of class, one per call.
func (q *Query) FailNext(class string, errs ...error) *Query {
	q.errs[class] = append(q.errs[class], errs...)
	return q
}

func (q *Query) Query(_ context.Context, class string, dst interface{}) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.Queries = append(q.Queries, class)
	if pending := q.errs[class]; len(pending) > 0 {
		q.errs[class] = pending[1:]
		return pending[0]
	}
	out := reflect.ValueOf(dst)
	if out.Kind() != reflect.Ptr || out.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("dst must be a pointer to a slice, got %T", dst)
	}
	rows, ok := q.tables[class]
	if !ok {
		out.Elem().Set(reflect.MakeSlice(out.Elem().Type(), 0, 0))
		return nil
	}
	src := reflect.ValueOf(rows)
	if src.Type() != out.Elem().Type() {
		return core.NewFailure(core.Parse, class, fmt.Errorf("table holds %s, dst wants %s", src.Type(), out.Elem().Type()))
	}
	out.Elem().Set(src)
	return nil
}

// Invocation is one recorded Runner call.
type Invocation struct {
	Program string
	Args    []string
}

// Handler scripts the outcome of a program run.
type Handler func(ctx context.Context, args []string) (readers.Output, error)

// Runner is a scripted readers.Runner. Programs without a handler fail to
// launch.
type Runner struct {
	mu       sync.Mutex
	handlers map[string]Handler
	Calls    []Invocation
}

func NewRunner() *Runner {
	return &Runner{handlers: map[string]Handler{}}
}

// Handle installs h for program.
func (r *Runner) Handle(program string, h Handler) *Runner {
	r.handlers[strings.ToLower(program)] = h
	return r
}

// Stdout makes program exit with code and print stdout.
func (r *Runner) Stdout(program string, code int, stdout string) *Runner {
	return r.Handle(program, func(context.Context, []string) (readers.Output, error) {
		return readers.Output{ExitCode: code, Stdout: []byte(stdout)}, nil
	})
}

func (r *Runner) Run(ctx context.Context, program string, args ...string) (readers.Output, error) {
	r.mu.Lock()
	r.Calls = append(r.Calls, Invocation{Program: program, Args: append([]string(nil), args...)})
	h, ok := r.handlers[strings.ToLower(program)]
	r.mu.Unlock()
	if !ok {
		return readers.Output{}, core.NewFailure(core.ToolFailure, program, fmt.Errorf("executable file not found"))
	}
	return h(ctx, args)
}
