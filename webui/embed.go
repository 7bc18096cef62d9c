// Package webui exposes the embedded frontend filesystem.
// It lives at the module root so it can embed the sibling "web/" directory;
// internal/server imports it to serve the single-page app.
package webui

import "embed"

// FS holds web/index.html (placeholder page) and web/dist (production build).
//
//go:embed web
var FS embed.FS
