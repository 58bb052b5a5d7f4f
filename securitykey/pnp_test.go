package securitykey

import (
	"reflect"
	"testing"
)

func TestPnPDescriptors(t *testing.T) {
	yubikeyNodes := []pnpEntity{
		{DeviceID: `USB\VID_1050&PID_0407\5&2F1A3C&0&3`},
		{DeviceID: `USB\VID_1050&PID_0407&MI_00\6&1B2C&0&0000`},
		{DeviceID: `USB\VID_1050&PID_0407&MI_01\6&1B2C&0&0001`},
		{DeviceID: `HID\VID_1050&PID_0407&MI_00\7&3D4E&0&0000`},
		{DeviceID: `HID\VID_1050&PID_0407&MI_01\7&5F60&0&0000`},
	}

	tests := []struct {
		name      string
		rows      []pnpEntity
		wantPaths []string
		wantKeys  []string
	}{
		{
			name:      "composite key reduces to its device node",
			rows:      yubikeyNodes,
			wantPaths: []string{`USB\VID_1050&PID_0407\5&2F1A3C&0&3`},
			wantKeys:  []string{"YubiKey"},
		},
		{
			name: "exact model keeps its name",
			rows: []pnpEntity{
				{DeviceID: `USB\VID_1949&PID_0429\0001`},
				{DeviceID: `HID\VID_1949&PID_0429\8&1&0&0000`},
			},
			wantPaths: []string{`USB\VID_1949&PID_0429\0001`},
			wantKeys:  []string{"ZUKEY 2"},
		},
		{
			name: "lower case ids and unrelated devices",
			rows: []pnpEntity{
				{DeviceID: `usb\vid_096e&pid_0858\5&1`},
				{DeviceID: `USB\VID_046D&PID_C52B\6&2`},
				{DeviceID: `USB\ROOT_HUB30\4&1`},
				{DeviceID: `ROOT\SYSTEM\0000`},
			},
			wantPaths: []string{`usb\vid_096e&pid_0858\5&1`, `USB\VID_046D&PID_C52B\6&2`},
			wantKeys:  []string{"Feitian"},
		},
		{
			name:      "no rows",
			rows:      nil,
			wantPaths: []string{},
			wantKeys:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			devices := pnpDescriptors(tt.rows)

			paths := make([]string, 0, len(devices))
			for _, d := range devices {
				if d.Manufacturer != "" || d.Product != "" {
					t.Errorf("descriptor %q carries strings %q/%q, want none", d.Path, d.Manufacturer, d.Product)
				}
				paths = append(paths, d.Path)
			}
			if !reflect.DeepEqual(paths, tt.wantPaths) {
				t.Errorf("paths = %v, want %v", paths, tt.wantPaths)
			}

			keys := sortedNames(ClassifyAll(devices))
			if !reflect.DeepEqual(keys, tt.wantKeys) {
				t.Errorf("keys = %v, want %v", keys, tt.wantKeys)
			}
		})
	}
}
