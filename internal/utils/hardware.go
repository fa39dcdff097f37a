package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"strings"
	"sync"
)

var (
	deviceOnce sync.Once
	deviceID   string
)

// TerminalID identifies this POS terminal to the backend. It hashes the
// first active hardware address into a short label like "POS-A1B2C3D4".
func TerminalID() string {
	deviceOnce.Do(func() {
		deviceID = terminalIDFrom(firstHardwareAddr())
	})
	return deviceID
}

func firstHardwareAddr() string {
	interfaces, err := net.Interfaces()
	if err != nil {
		return ""
	}
	for _, i := range interfaces {
		if i.Flags&net.FlagUp != 0 && i.Flags&net.FlagLoopback == 0 && len(i.HardwareAddr) > 0 {
			return i.HardwareAddr.String()
		}
	}
	return ""
}

func terminalIDFrom(mac string) string {
	if mac == "" {
		return "POS-UNKNOWN"
	}
	hash := sha256.Sum256([]byte(mac + "POS-CONSOLE"))
	return "POS-" + strings.ToUpper(hex.EncodeToString(hash[:])[:8])
}
