package discovery

import (
	"fmt"
	"strconv"
)

// Service type and domain for accessory advertisements.
const (
	// ServiceType is the DNS-SD service type of accessory servers.
	ServiceType = "_acp._tcp"

	// Domain is the mDNS domain.
	Domain = "local"
)

// TXT record keys of the accessory advertisement.
const (
	// TXTKeyDeviceID is the accessory's device identifier.
	TXTKeyDeviceID = "id"

	// TXTKeyModel is the model name.
	TXTKeyModel = "md"

	// TXTKeyConfigNumber is the configuration number, bumped whenever
	// the accessory database changes.
	TXTKeyConfigNumber = "c#"

	// TXTKeyStateNumber is the current state number.
	TXTKeyStateNumber = "s#"

	// TXTKeyStatusFlags is the status flag field. Bit 0 set means the
	// accessory has no admin pairing and accepts pair-setup.
	TXTKeyStatusFlags = "sf"

	// TXTKeyProtocolVersion is the protocol version.
	TXTKeyProtocolVersion = "pv"

	// TXTKeyCategory is the accessory category identifier.
	TXTKeyCategory = "ci"
)

// ProtocolVersion is the advertised protocol version.
const ProtocolVersion = "1.1"

// StatusFlagUnpaired is the status flag value while no admin pairing
// exists.
const StatusFlagUnpaired = 1

// AccessoryInfo describes one advertised accessory.
type AccessoryInfo struct {
	// Name is the service instance name.
	Name string

	// DeviceID is the accessory's unique device identifier.
	DeviceID string

	// Model is the accessory model name.
	Model string

	// Port is the accessory server's TCP port.
	Port int

	// Category is the accessory category identifier.
	Category int

	// ConfigNumber is the configuration number.
	ConfigNumber int

	// StateNumber is the state number.
	StateNumber int

	// Paired reports whether an admin pairing exists.
	Paired bool
}

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeAccessoryTXT creates TXT records for an accessory advertisement.
func EncodeAccessoryTXT(info *AccessoryInfo) TXTRecordMap {
	flags := StatusFlagUnpaired
	if info.Paired {
		flags = 0
	}
	return TXTRecordMap{
		TXTKeyDeviceID:        info.DeviceID,
		TXTKeyModel:           info.Model,
		TXTKeyConfigNumber:    strconv.Itoa(info.ConfigNumber),
		TXTKeyStateNumber:     strconv.Itoa(info.StateNumber),
		TXTKeyStatusFlags:     strconv.Itoa(flags),
		TXTKeyProtocolVersion: ProtocolVersion,
		TXTKeyCategory:        strconv.Itoa(info.Category),
	}
}

// DecodeAccessoryTXT parses TXT records from an accessory advertisement.
func DecodeAccessoryTXT(txt TXTRecordMap) (*AccessoryInfo, error) {
	info := &AccessoryInfo{}

	var ok bool
	if info.DeviceID, ok = txt[TXTKeyDeviceID]; !ok {
		return nil, fmt.Errorf("missing TXT key %q", TXTKeyDeviceID)
	}
	info.Model = txt[TXTKeyModel]

	var err error
	if info.ConfigNumber, err = parseTXTInt(txt, TXTKeyConfigNumber); err != nil {
		return nil, err
	}
	if info.StateNumber, err = parseTXTInt(txt, TXTKeyStateNumber); err != nil {
		return nil, err
	}
	if info.Category, err = parseTXTInt(txt, TXTKeyCategory); err != nil {
		return nil, err
	}

	flags, err := parseTXTInt(txt, TXTKeyStatusFlags)
	if err != nil {
		return nil, err
	}
	info.Paired = flags&StatusFlagUnpaired == 0

	return info, nil
}

func parseTXTInt(txt TXTRecordMap, key string) (int, error) {
	s, ok := txt[key]
	if !ok {
		return 0, fmt.Errorf("missing TXT key %q", key)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid TXT value for %q: %w", key, err)
	}
	return n, nil
}

// TXTRecordsToStrings converts a TXT record map to "key=value" strings.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	strs := make([]string, 0, len(txt))
	for k, v := range txt {
		strs = append(strs, k+"="+v)
	}
	return strs
}

// ParseTXTStrings converts "key=value" strings to a TXT record map.
func ParseTXTStrings(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap, len(strs))
	for _, s := range strs {
		for i := 0; i < len(s); i++ {
			if s[i] == '=' {
				txt[s[:i]] = s[i+1:]
				break
			}
		}
	}
	return txt
}
