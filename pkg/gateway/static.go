package gateway

import (
	"embed"
	"net/http"
	"path"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	indexFile   = "index.html"
	embeddedDir = "web"
)

//go:embed web
var embeddedWeb embed.FS

// site is the filesystem the single-page app is served from: dir when set, the embedded page
// otherwise.
type site struct {
	fs   http.FileSystem
	root string
}

func newSite(dir string) site {
	if dir != "" {
		return site{fs: http.Dir(dir), root: "."}
	}
	return site{fs: http.FS(embeddedWeb), root: embeddedDir}
}

// middleware serves files and answers unmatched requests with index.html. Paths owned by a route
// are never looked up on disk.
func (s site) middleware(routes *RouteTable) echo.MiddlewareFunc {
	return middleware.StaticWithConfig(middleware.StaticConfig{
		Root:       s.root,
		Filesystem: s.fs,
		Index:      indexFile,
		HTML5:      true,
		Skipper: func(c echo.Context) bool {
			_, ok := routes.Match(c.Request().URL.Path)
			return ok
		},
	})
}

// entryHandler serves index.html for any method. It backs requests the static middleware passes
// on, such as directories without an index of their own.
func (s site) entryHandler(c echo.Context) error {
	f, err := s.fs.Open(path.Join(s.root, indexFile))
	if err != nil {
		return echo.ErrNotFound.WithInternal(err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return echo.ErrNotFound.WithInternal(err)
	}

	http.ServeContent(c.Response(), c.Request(), info.Name(), info.ModTime(), f)
	return nil
}
