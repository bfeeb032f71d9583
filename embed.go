package trakr

import "embed"

// WebFS holds the built frontend, embedded at compile time.
//
//go:embed web/dist
var WebFS embed.FS
