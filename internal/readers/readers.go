// Package readers defines the narrow contracts checks use to observe the
// host: a registry reader, a management-query client and a command runner.
package readers

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ErrUnsupported is returned by platform adapters on hosts that do not
// provide the underlying interface.
var ErrUnsupported = errors.New("not supported on this platform")

// Hive is a root of the configuration key/value tree.
type Hive int

const (
	LocalMachine Hive = iota + 1
	CurrentUser
)

func (h Hive) String() string {
	switch h {
	case LocalMachine:
		return "HKLM"
	case CurrentUser:
		return "HKCU"
	}
	return fmt.Sprintf("Hive(%d)", int(h))
}

// ValuePath renders a registry location for diagnostics.
func ValuePath(h Hive, path, name string) string {
	return fmt.Sprintf(`%s\%s (%s)`, h, path, name)
}

// RegistryReader reads named values. ok is false when the key path or the
// value does not exist; the two cases are deliberately not distinguished.
// Any other failure is returned as a *core.Failure naming path and value.
type RegistryReader interface {
	ReadDWORD(h Hive, path, name string) (v uint32, ok bool, err error)
	ReadString(h Hive, path, name string) (v string, ok bool, err error)
}

// QueryClient runs a management query against class and stores the rows in
// dst, a pointer to a slice of structs whose field names are the columns.
// An empty result set is not an error.
type QueryClient interface {
	Query(ctx context.Context, class string, dst interface{}) error
}

// Row is a typed management-query row that names its source table.
type Row interface {
	Class() string
}

// Query reads every row of T's table.
func Query[T Row](ctx context.Context, c QueryClient) ([]T, error) {
	var zero T
	var rows []T
	if err := c.Query(ctx, zero.Class(), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Columns lists the exported field names of the row struct behind dst,
// which may be a struct, a slice of structs, or pointers to either.
func Columns(dst interface{}) []string {
	t := reflect.TypeOf(dst)
	for t != nil && (t.Kind() == reflect.Ptr || t.Kind() == reflect.Slice) {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	var cols []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Tag.Get("wmi") == "-" {
			continue
		}
		cols = append(cols, f.Name)
	}
	return cols
}

// SelectStatement builds the query text implied by a row schema.
func SelectStatement(class string, dst interface{}) string {
	cols := Columns(dst)
	if len(cols) == 0 {
		return "SELECT * FROM " + class
	}
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), class)
}
