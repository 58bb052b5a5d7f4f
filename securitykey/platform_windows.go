//go:build windows

package securitykey

import (
	"context"
	"fmt"
	"time"

	wmi "github.com/StackExchange/wmi"

	"github.com/yllada/quicklinks/common"
)

// wmiQueryTimeout bounds one Win32_PnPEntity query. A hung WMI provider
// fails the cycle instead of pinning the monitor goroutine.
const wmiQueryTimeout = 3 * time.Second

const pnpQuery = `SELECT DeviceID FROM Win32_PnPEntity WHERE DeviceID LIKE 'USB\\VID_%'`

// wmiEnumerator lists USB devices through Win32_PnPEntity.
type wmiEnumerator struct{}

func newPlatformEnumerator() Enumerator {
	return wmiEnumerator{}
}

func (wmiEnumerator) Enumerate() ([]DeviceDescriptor, error) {
	ctx, cancel := context.WithTimeout(context.Background(), wmiQueryTimeout)
	defer cancel()

	var rows []pnpEntity
	if err := wmi.QueryWithContext(ctx, pnpQuery, &rows); err != nil {
		return nil, fmt.Errorf("%w: wmi: %v", common.ErrEnumeration, err)
	}

	devices := pnpDescriptors(rows)
	common.LogDebug("WMI returned %d PnP rows, %d USB devices", len(rows), len(devices))
	return devices, nil
}
