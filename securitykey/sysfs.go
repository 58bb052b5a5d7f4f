package securitykey

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yllada/quicklinks/common"
)

// DefaultSysfsRoot is where Linux exposes attached USB devices.
const DefaultSysfsRoot = "/sys/bus/usb/devices"

// SysfsEnumerator reads USB descriptors from the Linux sysfs tree.
type SysfsEnumerator struct {
	Root string
}

// Enumerate lists every USB device under Root. Interface entries
// (e.g. "1-1:1.0") and root hubs ("usb1") are skipped. Devices whose
// vendor/product files are unreadable are skipped; a missing root is
// an error.
func (s *SysfsEnumerator) Enumerate() ([]DeviceDescriptor, error) {
	root := s.Root
	if root == "" {
		root = DefaultSysfsRoot
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrEnumeration, err)
	}

	devices := make([]DeviceDescriptor, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if strings.Contains(name, ":") || strings.HasPrefix(name, "usb") {
			continue
		}

		devPath := filepath.Join(root, name)
		vid, err := parseHexID(readAttr(devPath, "idVendor"))
		if err != nil {
			common.LogDebug("Skipping %s: %v", name, err)
			continue
		}
		pid, err := parseHexID(readAttr(devPath, "idProduct"))
		if err != nil {
			common.LogDebug("Skipping %s: %v", name, err)
			continue
		}

		devices = append(devices, DeviceDescriptor{
			VendorID:     vid,
			ProductID:    pid,
			Manufacturer: readAttr(devPath, "manufacturer"),
			Product:      readAttr(devPath, "product"),
			Path:         devPath,
		})
	}

	return devices, nil
}

// readAttr returns the trimmed content of a sysfs attribute, or "" if
// it cannot be read.
func readAttr(devPath, attr string) string {
	content, err := os.ReadFile(filepath.Join(devPath, attr))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(content))
}
