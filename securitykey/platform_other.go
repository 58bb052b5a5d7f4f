//go:build !linux && !windows

package securitykey

import "github.com/yllada/quicklinks/common"

func newPlatformEnumerator() Enumerator {
	return EnumeratorFunc(func() ([]DeviceDescriptor, error) {
		return nil, common.ErrUnsupportedPlatform
	})
}
