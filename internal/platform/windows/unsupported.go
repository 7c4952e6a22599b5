//go:build !windows

package windows

import (
	"context"

	"monori/internal/core"
	"monori/internal/readers"
)

// Registry stands in for the hive reader on hosts without one.
type Registry struct{}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) ReadDWORD(h readers.Hive, path, name string) (uint32, bool, error) {
	return 0, false, core.NewFailure(core.Internal, readers.ValuePath(h, path, name), readers.ErrUnsupported)
}

func (r *Registry) ReadString(h readers.Hive, path, name string) (string, bool, error) {
	return "", false, core.NewFailure(core.Internal, readers.ValuePath(h, path, name), readers.ErrUnsupported)
}

// WMIClient stands in for the management-query client on hosts without one.
type WMIClient struct{}

func NewWMIClient() *WMIClient {
	return &WMIClient{}
}

func (c *WMIClient) Query(_ context.Context, class string, _ interface{}) error {
	return core.NewFailure(core.Transport, class, readers.ErrUnsupported)
}

func (c *WMIClient) Close() error { return nil }
