package server

import (
	"io/fs"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vesaa/votedesk/webui"
)

// RegisterStaticFiles mounts the embedded frontend on the Gin engine.
// API routes registered before this take precedence. Unmatched /api paths
// still get a JSON 404; everything else falls back to index.html.
func RegisterStaticFiles(r *gin.Engine) {
	static := uiRoot()
	files := http.FileServer(static)

	r.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == "/api" || strings.HasPrefix(path, "/api/") {
			detail(c, http.StatusNotFound, "Not Found")
			return
		}
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			detail(c, http.StatusNotFound, "Not Found")
			return
		}
		if name := strings.TrimPrefix(path, "/"); name != "" && name != "index.html" {
			if f, err := static.Open(name); err == nil {
				st, statErr := f.Stat()
				f.Close()
				if statErr == nil && !st.IsDir() {
					files.ServeHTTP(c.Writer, c.Request)
					return
				}
			}
		}
		serveIndex(c, static)
	})
}

// uiRoot serves web/dist when it holds a build and the web/ placeholder
// otherwise.
func uiRoot() http.FileSystem {
	dist, err := fs.Sub(webui.FS, "web/dist")
	if err != nil {
		panic("embed: web/dist sub-fs failed: " + err.Error())
	}
	entries, _ := fs.ReadDir(dist, ".")
	for _, e := range entries {
		if e.Name() != ".gitkeep" {
			return http.FS(dist)
		}
	}
	root, _ := fs.Sub(webui.FS, "web")
	return http.FS(root)
}

func serveIndex(c *gin.Context, static http.FileSystem) {
	f, err := static.Open("index.html")
	if err != nil {
		c.String(http.StatusNotFound, "UI not found, build the frontend into webui/web/dist")
		return
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		c.String(http.StatusInternalServerError, "UI unreadable")
		return
	}
	c.DataFromReader(http.StatusOK, st.Size(), "text/html; charset=utf-8", f, nil)
}
