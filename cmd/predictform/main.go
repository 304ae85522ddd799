//go:build js && wasm

// Command predictform is the browser build of the submit handler. Load it
// with wasm_exec.js on the prediction page; it binds to #predict-form and
// keeps running for the lifetime of the page.
package main

import (
	"log/slog"
	"os"

	predictform "github.com/goliatone/go-predictform"
	"github.com/goliatone/go-predictform/pkg/page/jsdom"
	"github.com/goliatone/go-predictform/pkg/predict"
	"github.com/goliatone/go-predictform/pkg/submit"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	doc := jsdom.New()
	defer doc.Release()

	handler := predictform.Attach(doc,
		predict.New(predict.WithLogger(logger)),
		submit.WithLogger(logger),
	)

	<-handler.Bound()
	if err := handler.Err(); err != nil {
		logger.Error("predictform: bind failed", "error", err)
		return
	}

	select {}
}
