package discovery

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeTXT creates the TXT records for info.
func EncodeTXT(info *ServiceInfo) TXTRecordMap {
	txt := TXTRecordMap{
		TXTKeyVersion: strconv.Itoa(TXTVersion),
	}
	if info.DevicePort != "" {
		txt[TXTKeyPort] = info.DevicePort
	}
	if info.State != "" {
		txt[TXTKeyState] = info.State
	}
	if info.LastCommand != "" {
		txt[TXTKeyCommand] = info.LastCommand
	}
	return txt
}

// DecodeTXT parses TXT records into a ServiceInfo. InstanceName and Port
// are left for the caller to fill from the service entry.
func DecodeTXT(txt TXTRecordMap) (*ServiceInfo, error) {
	vStr, ok := txt[TXTKeyVersion]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyVersion)
	}
	v, err := strconv.Atoi(vStr)
	if err != nil || v != TXTVersion {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, vStr)
	}

	return &ServiceInfo{
		DevicePort:  txt[TXTKeyPort],
		State:       txt[TXTKeyState],
		LastCommand: txt[TXTKeyCommand],
	}, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to sorted "key=value"
// strings.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, k+"="+v)
	}
	slices.Sort(result)
	return result
}

// StringsToTXTRecords parses "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		k, v, _ := strings.Cut(s, "=")
		if k != "" {
			txt[k] = v
		}
	}
	return txt
}

// ValidateInstanceName checks that name can be used as a DNS-SD instance.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidInstanceName)
	}
	if len(name) > MaxInstanceNameLength {
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidInstanceName, MaxInstanceNameLength)
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("%w: control character", ErrInvalidInstanceName)
		}
	}
	return nil
}
