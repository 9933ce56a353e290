// Package templates embeds the HTML pages rendered by the controllers.
package templates

import "embed"

//go:embed *.html
var FS embed.FS
