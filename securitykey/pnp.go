package securitykey

import "strings"

// pnpEntity is one row of Win32_PnPEntity.
type pnpEntity struct {
	DeviceID string
}

// pnpDescriptors keeps one descriptor per physical USB device.
//
// Windows lists a key several times: the USB device node, one `&MI_xx`
// node per interface and HID children below those. Only the device node
// `USB\VID_xxxx&PID_xxxx\<instance>` is kept. PnP display names come
// from driver INF files ("USB Composite Device") rather than the USB
// string descriptors, so Manufacturer and Product stay empty and the
// vendor default name applies.
func pnpDescriptors(rows []pnpEntity) []DeviceDescriptor {
	devices := make([]DeviceDescriptor, 0, len(rows))
	for _, row := range rows {
		id := strings.ToUpper(row.DeviceID)
		if !strings.HasPrefix(id, `USB\VID_`) || strings.Contains(id, "&MI_") {
			continue
		}
		vid, pid, ok := parsePnPDeviceID(row.DeviceID)
		if !ok {
			continue
		}
		devices = append(devices, DeviceDescriptor{
			VendorID:  vid,
			ProductID: pid,
			Path:      row.DeviceID,
		})
	}
	return devices
}
