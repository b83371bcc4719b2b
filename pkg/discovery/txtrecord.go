package discovery

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeTXT creates the TXT records advertised for info.
func EncodeTXT(info *ServiceInfo) TXTRecordMap {
	txt := TXTRecordMap{
		TXTKeyVersion:     info.Version,
		TXTKeyFingerprint: info.Fingerprint,
		TXTKeyProtocols:   strconv.Itoa(info.Protocols),
	}
	if info.APIPrefix != "" && info.APIPrefix != DefaultAPIPrefix {
		txt[TXTKeyAPI] = info.APIPrefix
	}
	return txt
}

// DecodeTXT parses advertised TXT records. Instance and Port are not part of
// the TXT data and are left unset.
func DecodeTXT(txt TXTRecordMap) (*ServiceInfo, error) {
	info := &ServiceInfo{APIPrefix: DefaultAPIPrefix}

	fp, ok := txt[TXTKeyFingerprint]
	if !ok || fp == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyFingerprint)
	}
	info.Fingerprint = fp

	info.Version, ok = txt[TXTKeyVersion]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyVersion)
	}

	if np, ok := txt[TXTKeyProtocols]; ok {
		n, err := strconv.Atoi(np)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: %s=%q", ErrInvalidTXTRecord, TXTKeyProtocols, np)
		}
		info.Protocols = n
	}

	if api, ok := txt[TXTKeyAPI]; ok {
		if !strings.HasPrefix(api, "/") {
			return nil, fmt.Errorf("%w: %s=%q", ErrInvalidTXTRecord, TXTKeyAPI, api)
		}
		info.APIPrefix = api
	}
	return info, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to sorted "key=value" strings.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, k+"="+v)
	}
	sort.Strings(result)
	return result
}

// StringsToTXTRecords parses a slice of "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		k, v, found := strings.Cut(s, "=")
		if !found && k == "" {
			continue
		}
		txt[k] = v
	}
	return txt
}

// ValidateInstanceName checks if an instance name is valid for mDNS.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInstanceNameTooLong)
	}
	if len(name) > MaxInstanceNameLen {
		return ErrInstanceNameTooLong
	}
	return nil
}

// InstanceName returns the default instance name for a server on host.
func InstanceName(host string) string {
	name := "dissect-" + strings.ToLower(strings.SplitN(host, ".", 2)[0])
	if len(name) > MaxInstanceNameLen {
		name = name[:MaxInstanceNameLen]
	}
	return name
}
