package version

// Overridden at build time via -ldflags "-X firewall-updater/internal/app/version.buildVersion=...".
var (
	buildVersion = "dev"
	builtAt      = "unknown"
)

// Info represents the running build metadata.
type Info struct {
	BuildVersion string `json:"buildVersion"`
	BuiltAt      string `json:"builtAt"`
}

func Get() Info {
	return Info{
		BuildVersion: buildVersion,
		BuiltAt:      builtAt,
	}
}

// UserAgent identifies outbound API calls.
func UserAgent() string {
	return "firewall-updater/" + buildVersion
}
