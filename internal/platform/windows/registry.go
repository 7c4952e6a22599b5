//go:build windows

package windows

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"

	"monori/internal/core"
	"monori/internal/readers"
)

// Registry reads live hive values. Each read opens and closes its own key,
// so nothing is cached between calls.
type Registry struct{}

func NewRegistry() *Registry {
	return &Registry{}
}

func rootKey(h readers.Hive) (registry.Key, error) {
	switch h {
	case readers.LocalMachine:
		return registry.LOCAL_MACHINE, nil
	case readers.CurrentUser:
		return registry.CURRENT_USER, nil
	}
	return 0, fmt.Errorf("unknown hive %s", h)
}

func (r *Registry) open(h readers.Hive, path, name string) (registry.Key, bool, error) {
	root, err := rootKey(h)
	if err != nil {
		return 0, false, core.NewFailure(core.Internal, readers.ValuePath(h, path, name), err)
	}
	key, err := registry.OpenKey(root, path, registry.QUERY_VALUE)
	if err != nil {
		if notExist(err) {
			return 0, false, nil
		}
		return 0, false, classify(h, path, name, err)
	}
	return key, true, nil
}

func (r *Registry) ReadDWORD(h readers.Hive, path, name string) (uint32, bool, error) {
	key, ok, err := r.open(h, path, name)
	if err != nil || !ok {
		return 0, false, err
	}
	defer key.Close()

	v, typ, err := key.GetIntegerValue(name)
	if err != nil {
		if notExist(err) {
			return 0, false, nil
		}
		return 0, false, classify(h, path, name, err)
	}
	if typ != registry.DWORD {
		return 0, false, core.NewFailure(core.Parse, readers.ValuePath(h, path, name),
			fmt.Errorf("value type %d is not REG_DWORD", typ))
	}
	return uint32(v), true, nil
}

func (r *Registry) ReadString(h readers.Hive, path, name string) (string, bool, error) {
	key, ok, err := r.open(h, path, name)
	if err != nil || !ok {
		return "", false, err
	}
	defer key.Close()

	v, _, err := key.GetStringValue(name)
	if err != nil {
		if notExist(err) {
			return "", false, nil
		}
		return "", false, classify(h, path, name, err)
	}
	return v, true, nil
}

func notExist(err error) bool {
	return errors.Is(err, registry.ErrNotExist) || errors.Is(err, windows.ERROR_PATH_NOT_FOUND)
}

func classify(h readers.Hive, path, name string, err error) error {
	src := readers.ValuePath(h, path, name)
	switch {
	case errors.Is(err, windows.ERROR_ACCESS_DENIED):
		return core.NewFailure(core.AccessDenied, src, err)
	case errors.Is(err, registry.ErrUnexpectedType):
		return core.NewFailure(core.Parse, src, err)
	}
	return core.NewFailure(core.Transport, src, err)
}
