package securitykey

import "strings"

// DeviceDescriptor is one attached device as reported by an Enumerator.
type DeviceDescriptor struct {
	VendorID     uint16
	ProductID    uint16
	Manufacturer string
	Product      string
	// Path is the OS device path. Classification ignores it.
	Path string
}

// KeyIdentity is the name a descriptor is known by once classified
// as a security key.
type KeyIdentity struct {
	DisplayName string
}

type knownModel struct {
	vendorID  uint16
	productID uint16
	name      string
}

// Models matched on the exact vendor/product pair.
var knownModels = []knownModel{
	{vendorID: 0x1949, productID: 0x0429, name: "ZUKEY 2"},
}

// Vendors whose every device is treated as a security key, with the
// name used when the descriptor carries no strings.
var knownVendors = map[uint16]string{
	0x1050: "YubiKey",
	0x096e: "Feitian",
	0x18d1: "Google Titan",
}

var keyKeywords = []string{"yubikey", "titan", "authenticator", "zukey"}

// Classify maps a descriptor to a security key identity. The second
// result is false when the device is not a recognised key.
//
// Rules are tried in order: exact model, known vendor, then keyword
// match on the descriptor strings.
func Classify(d DeviceDescriptor) (KeyIdentity, bool) {
	for _, m := range knownModels {
		if d.VendorID == m.vendorID && d.ProductID == m.productID {
			return KeyIdentity{DisplayName: m.name}, true
		}
	}

	label := descriptorLabel(d)

	if fallback, ok := knownVendors[d.VendorID]; ok {
		if label == "" {
			label = fallback
		}
		return KeyIdentity{DisplayName: label}, true
	}

	haystack := strings.ToLower(d.Manufacturer + " " + d.Product)
	for _, kw := range keyKeywords {
		if strings.Contains(haystack, kw) {
			return KeyIdentity{DisplayName: label}, true
		}
	}

	return KeyIdentity{}, false
}

func descriptorLabel(d DeviceDescriptor) string {
	return strings.TrimSpace(strings.TrimSpace(d.Manufacturer) + " " + strings.TrimSpace(d.Product))
}

// ClassifyAll returns the set of key names present in devices.
func ClassifyAll(devices []DeviceDescriptor) map[string]struct{} {
	names := make(map[string]struct{})
	for _, d := range devices {
		if id, ok := Classify(d); ok {
			names[id.DisplayName] = struct{}{}
		}
	}
	return names
}
