//go:build windows

package windows

import (
	"context"
	"errors"
	"sync"

	ole "github.com/go-ole/go-ole"
	"github.com/yusufpapurcu/wmi"

	"monori/internal/core"
	"monori/internal/readers"
)

const (
	hresultAccessDenied     = 0x80070005
	wbemAccessDenied        = 0x80041003
	wbemInvalidClass        = 0x80041010
	wbemInvalidQuery        = 0x80041017
	wbemProviderUnavailable = 0x80041013
)

// WMIClient queries the management interface. The COM connection is made
// on the first query and held until Close; one client serves a whole run.
type WMIClient struct {
	mu  sync.Mutex
	svc *wmi.SWbemServices
}

func NewWMIClient() *WMIClient {
	return &WMIClient{}
}

func (c *WMIClient) connect() (*wmi.SWbemServices, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.svc != nil {
		return c.svc, nil
	}
	svc, err := wmi.InitializeSWbemServices(wmi.DefaultClient)
	if err != nil {
		return nil, err
	}
	c.svc = svc
	return svc, nil
}

func (c *WMIClient) Query(ctx context.Context, class string, dst interface{}) error {
	if err := ctx.Err(); err != nil {
		return core.NewFailure(core.Transport, class, err)
	}
	svc, err := c.connect()
	if err != nil {
		return classifyWMI(class, err)
	}
	if err := svc.Query(readers.SelectStatement(class, dst), dst); err != nil {
		return classifyWMI(class, err)
	}
	return nil
}

// Close releases the connection. The next query reconnects.
func (c *WMIClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.svc == nil {
		return nil
	}
	err := c.svc.Close()
	c.svc = nil
	return err
}

func classifyWMI(class string, err error) error {
	var mismatch *wmi.ErrFieldMismatch
	if errors.As(err, &mismatch) || errors.Is(err, wmi.ErrInvalidEntityType) {
		return core.NewFailure(core.Parse, class, err)
	}
	var oleErr *ole.OleError
	if errors.As(err, &oleErr) {
		switch oleErr.Code() {
		case hresultAccessDenied, wbemAccessDenied:
			return core.NewFailure(core.AccessDenied, class, err)
		case wbemInvalidClass, wbemInvalidQuery:
			return core.NewFailure(core.Parse, class, err)
		case wbemProviderUnavailable:
			return core.NewFailure(core.Transport, class, err)
		}
	}
	return core.NewFailure(core.Transport, class, err)
}
