// ABOUTME: Embeds HTML templates and Markdown page copy into the binary using go:embed
// ABOUTME: Provides uiFS for loading both at startup

package webui

import "embed"

//go:embed templates/*.html content/*.md
var uiFS embed.FS
