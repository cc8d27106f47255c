package tickline

import _ "embed"

// Version is the release version of tickline.
//
//go:embed VERSION
var Version string
