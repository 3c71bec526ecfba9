// Package locales embeds the translated message files.
package locales

import "embed"

//go:embed *.json
var FS embed.FS
