package utils

import (
	"fmt"
	"strings"

	"github.com/NeuralTrust/BotGate/pkg/domain/audit"
	"github.com/avct/uasurfer"
)

// ParseUserAgent extracts browser, OS and device for audit enrichment. It
// returns nil for an empty user-agent.
func ParseUserAgent(uaString string) *audit.UserAgentInfo {
	if strings.TrimSpace(uaString) == "" {
		return nil
	}
	ua := uasurfer.Parse(uaString)

	device := "Unknown"
	switch ua.DeviceType {
	case uasurfer.DeviceComputer:
		device = "Computer"
	case uasurfer.DeviceTablet:
		device = "Tablet"
	case uasurfer.DevicePhone:
		device = "Phone"
	case uasurfer.DeviceConsole:
		device = "Console"
	case uasurfer.DeviceWearable:
		device = "Wearable"
	case uasurfer.DeviceTV:
		device = "TV"
	}

	return &audit.UserAgentInfo{
		Browser: versioned(strings.TrimPrefix(ua.Browser.Name.String(), "Browser"), ua.Browser.Version),
		OS:      versioned(strings.TrimPrefix(ua.OS.Name.String(), "OS"), ua.OS.Version),
		Device:  device,
	}
}

func versioned(name string, v uasurfer.Version) string {
	if v.Major == 0 && v.Minor == 0 {
		return name
	}
	return fmt.Sprintf("%s %d.%d", name, v.Major, v.Minor)
}
