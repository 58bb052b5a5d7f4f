package securitykey

import (
	"fmt"
	"strconv"
	"strings"
)

// Enumerator lists the devices currently attached to the machine.
// Implementations may be slow and may fail; the monitor calls them
// outside its lock and treats errors as transient.
type Enumerator interface {
	Enumerate() ([]DeviceDescriptor, error)
}

// EnumeratorFunc adapts a plain function to the Enumerator interface.
type EnumeratorFunc func() ([]DeviceDescriptor, error)

// Enumerate calls f().
func (f EnumeratorFunc) Enumerate() ([]DeviceDescriptor, error) {
	return f()
}

// NewSystemEnumerator returns the enumerator for the running platform.
func NewSystemEnumerator() Enumerator {
	return newPlatformEnumerator()
}

// parseHexID parses a 16-bit hex identifier such as "1050" or "0x1050".
func parseHexID(s string) (uint16, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid hex id %q: %w", s, err)
	}
	return uint16(v), nil
}

// parsePnPDeviceID extracts VID and PID from a Windows PnP device ID
// like `USB\VID_1050&PID_0407\0001` or `HID\VID_1949&PID_0429&MI_00\...`.
func parsePnPDeviceID(deviceID string) (vid, pid uint16, ok bool) {
	upper := strings.ToUpper(deviceID)

	vidAt := strings.Index(upper, "VID_")
	pidAt := strings.Index(upper, "PID_")
	if vidAt < 0 || pidAt < 0 {
		return 0, 0, false
	}

	vidStr := upper[vidAt+4:]
	pidStr := upper[pidAt+4:]
	if len(vidStr) < 4 || len(pidStr) < 4 {
		return 0, 0, false
	}

	v, err := parseHexID(vidStr[:4])
	if err != nil {
		return 0, 0, false
	}
	p, err := parseHexID(pidStr[:4])
	if err != nil {
		return 0, 0, false
	}
	return v, p, true
}
