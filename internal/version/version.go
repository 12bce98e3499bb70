package version

import "fmt"

// Version and Commit are set at build time using -ldflags.
var (
	Version = "unknown"
	Commit  = "unknown"
)

var FullVersion = fmt.Sprintf("%s-%s", Version, Commit)
