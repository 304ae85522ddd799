// Package predictform wires the car price prediction page together: the
// request contract, the rendered page and the submit handler that turns a
// form submit into a POST /predict and shows the returned price.
package predictform

import (
	"io"

	"github.com/goliatone/go-predictform/pkg/contract"
	"github.com/goliatone/go-predictform/pkg/page"
	"github.com/goliatone/go-predictform/pkg/predict"
	"github.com/goliatone/go-predictform/pkg/render"
	"github.com/goliatone/go-predictform/pkg/submit"
)

// RenderOption aliases render.Option for callers rendering through the root
// package.
type RenderOption = render.Option

// SubmitOption aliases submit.Option.
type SubmitOption = submit.Option

// Contract returns the embedded POST /predict contract.
func Contract() (*contract.Contract, error) {
	return contract.Default()
}

// RenderPage writes the prediction page for the embedded contract to w.
func RenderPage(w io.Writer, options ...RenderOption) error {
	c, err := contract.Default()
	if err != nil {
		return err
	}
	r, err := render.New(options...)
	if err != nil {
		return err
	}
	return r.Page(w, c)
}

// Attach binds a submit handler to doc. Requests go through client, resolved
// against the document's base URL; a nil client uses predict defaults. The
// handler is returned so callers can wait on in-flight submissions.
func Attach(doc page.Document, client *predict.Client, options ...SubmitOption) *submit.Handler {
	if client == nil {
		client = predict.New()
	}
	h := submit.New(client.WithBase(doc.BaseURL()), options...)
	h.Bind(doc)
	return h
}
