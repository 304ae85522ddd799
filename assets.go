package predictform

import (
	"embed"
	"io/fs"

	"github.com/goliatone/go-predictform/pkg/render"
)

//go:embed static/*.js static/*.css
var embeddedStatic embed.FS

// StaticFS exposes the committed browser assets (wasm_exec.js and the page
// stylesheet) so the page can be served without a static directory. The
// predictform.wasm module is built separately:
//
//	GOOS=js GOARCH=wasm go build -o static/predictform.wasm ./cmd/predictform
//
// Typical mount:
//
//	mux.Handle("/static/",
//	  http.StripPrefix("/static/",
//	    http.FileServerFS(predictform.StaticFS()),
//	  ),
//	)
func StaticFS() fs.FS {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		return embeddedStatic
	}
	return sub
}

// EmbeddedTemplates exposes the built-in page templates so callers can reuse
// or extend them without importing the renderer package directly.
func EmbeddedTemplates() fs.FS {
	return render.TemplatesFS()
}
