package common

import (
	"github.com/ternarybob/banner"
)

// AppName is the display name used by the banner and the MCP server
const AppName = "Rant Radar"

// PrintBanner displays the application banner
func PrintBanner(version string) {
	banner.Print(AppName, version)
}
