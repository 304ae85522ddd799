package predictform_test

import (
	"io/fs"
	"net/http"
	"strings"
	"testing"

	predictform "github.com/goliatone/go-predictform"
	"github.com/goliatone/go-predictform/pkg/page"
	"github.com/goliatone/go-predictform/pkg/render"
	"github.com/goliatone/go-predictform/pkg/testsupport"
)

func TestStaticFSContainsWasmSupport(t *testing.T) {
	data, err := fs.ReadFile(predictform.StaticFS(), "wasm_exec.js")
	if err != nil {
		t.Fatalf("expected wasm_exec.js to be readable: %v", err)
	}
	if !strings.Contains(string(data), "globalThis.Go = class") {
		t.Fatalf("expected wasm_exec.js to define the Go runtime class")
	}
	if _, err := fs.Stat(predictform.StaticFS(), "style.css"); err != nil {
		t.Fatalf("expected stylesheet: %v", err)
	}
}

func TestEmbeddedTemplatesContainPage(t *testing.T) {
	if _, err := fs.Stat(predictform.EmbeddedTemplates(), render.PageTemplate); err != nil {
		t.Fatalf("expected %s: %v", render.PageTemplate, err)
	}
}

func TestRenderedPageSubmitsThroughAttach(t *testing.T) {
	server := testsupport.NewPredictServer(t, http.StatusOK, `{"predicted_price": 9999.5}`)

	var markup strings.Builder
	if err := predictform.RenderPage(&markup, render.WithStylesheet("/static/style.css")); err != nil {
		t.Fatalf("render: %v", err)
	}
	doc := testsupport.MustParsePage(t, markup.String(), server.URL+"/")

	handler := predictform.Attach(doc, nil)
	doc.Load()
	if err := handler.Err(); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if err := doc.SetValue(page.FormID, "brand", "Skoda"); err != nil {
		t.Fatalf("set brand: %v", err)
	}
	if _, err := doc.Submit(page.FormID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	handler.Wait()

	sent := <-server.Requests
	if got, _ := sent.Get("brand"); got != "Skoda" {
		t.Fatalf("expected brand in payload, got %q", got)
	}
	c, err := predictform.Contract()
	if err != nil {
		t.Fatalf("contract: %v", err)
	}
	if sent.Len() != len(c.Fields) {
		t.Fatalf("expected every control submitted, got %d of %d", sent.Len(), len(c.Fields))
	}

	price, _ := doc.ElementByID(page.PriceID)
	result, _ := doc.ElementByID(page.ResultID)
	if price.TextContent() != "9999.5" || result.Style("display") != "block" {
		t.Fatalf("unexpected page state: price=%q display=%q", price.TextContent(), result.Style("display"))
	}
}
