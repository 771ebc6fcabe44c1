package errors

import "sort"

// Template defines a registered error code.
type Template struct {
	Category Category
	Message  string
	Detail   string
}

var registry = map[string]Template{
	// Configuration (L100-L119)
	"L100": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		Detail:   "The configuration file passed with --config does not exist.",
	},
	"L101": {
		Category: CategoryConfig,
		Message:  "Cannot read configuration file",
		Detail:   "The configuration file exists but could not be read.",
	},
	"L102": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "The configuration file could not be parsed as YAML.",
	},
	"L103": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is out of range or malformed.",
	},
	"L104": {
		Category: CategoryConfig,
		Message:  "Invalid environment variable",
		Detail:   "A LIVE_* environment variable could not be parsed.",
	},

	// Command line (L120-L139)
	"L120": {
		Category: CategoryCLI,
		Message:  "Invalid URL",
		Detail:   "The server URL must be an http, https, ws or wss URL.",
	},
	"L121": {
		Category: CategoryCLI,
		Message:  "Cannot read document",
		Detail:   "The HTML document to connect could not be read or parsed.",
	},
	"L122": {
		Category: CategoryCLI,
		Message:  "Cannot read command script",
		Detail:   "The command script could not be read.",
	},
	"L123": {
		Category: CategoryCLI,
		Message:  "Server failed",
		Detail:   "An HTTP listener stopped with an error.",
	},
	"L124": {
		Category: CategoryCLI,
		Message:  "Command failed",
		Detail:   "The command line could not be run as given.",
	},

	// Connection (L140-L159)
	"L140": {
		Category: CategoryConnection,
		Message:  "Cannot start session",
		Detail:   "The live session could not be created.",
	},

	// Snapshot (L160-L179)
	"L160": {
		Category: CategorySnapshot,
		Message:  "Invalid snapshot location",
		Detail:   "Snapshots are written to a file path or an s3://bucket/key URL.",
	},
	"L161": {
		Category: CategorySnapshot,
		Message:  "Snapshot failed",
		Detail:   "The document snapshot could not be written.",
	},
}

// Codes returns all registered codes in sorted order.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Lookup returns the template for code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}
