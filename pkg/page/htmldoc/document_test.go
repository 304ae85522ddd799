package htmldoc_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-predictform/pkg/formdata"
	"github.com/goliatone/go-predictform/pkg/page"
	"github.com/goliatone/go-predictform/pkg/page/htmldoc"
)

const fixture = `<!doctype html>
<html><body>
<form id="predict-form">
  <input name="brand" value="Honda">
  <input name="year" type="number" value="2019">
  <input name="unnamed" value="x" disabled>
  <input value="no-name">
  <input name="notes_off" value="skip" disabled>
  <input type="checkbox" name="certified" checked>
  <input type="checkbox" name="imported" value="yes">
  <input type="radio" name="owner" value="1">
  <input type="radio" name="owner" value="2" checked>
  <select name="fuel_type">
    <option value="">Select…</option>
    <option value="Diesel" selected>Diesel</option>
  </select>
  <select name="transmission">
    <option>Manual</option>
    <option>Automatic</option>
  </select>
  <textarea name="comment">first owner</textarea>
  <button type="submit" name="go" value="1">Predict</button>
</form>
<div id="result" style="display: none; color: red"><span id="price"></span></div>
</body></html>`

func parseFixture(t *testing.T) *htmldoc.Document {
	t.Helper()
	doc, err := htmldoc.ParseString(fixture, htmldoc.WithBaseURL("http://example.test/"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestFormValuesFollowFormDataRules(t *testing.T) {
	doc := parseFixture(t)
	form, ok := doc.FormByID(page.FormID)
	if !ok {
		t.Fatalf("form not found")
	}

	want := []formdata.Field{
		{Name: "brand", Value: "Honda"},
		{Name: "year", Value: "2019"},
		{Name: "certified", Value: "on"},
		{Name: "owner", Value: "2"},
		{Name: "fuel_type", Value: "Diesel"},
		{Name: "transmission", Value: "Manual"},
		{Name: "comment", Value: "first owner"},
	}
	if diff := cmp.Diff(want, form.Values().All()); diff != "" {
		t.Fatalf("form values mismatch (-want +got):\n%s", diff)
	}
}

func TestFormValuesHonourSelectednessAndDisabledFieldsets(t *testing.T) {
	doc, err := htmldoc.ParseString(`<form id="predict-form">
  <select name="fuel_type">
    <option selected>Petrol</option>
    <option selected>Diesel</option>
  </select>
  <select name="colors" multiple>
    <option selected>red</option>
    <option selected disabled>green</option>
    <option selected>blue</option>
  </select>
  <select name="owner">
    <option disabled>0</option>
    <optgroup label="used" disabled><option>1</option></optgroup>
    <option>2</option>
  </select>
  <fieldset disabled>
    <legend><input name="legend_note" value="kept"></legend>
    <input name="mileage" value="1000">
    <fieldset><input name="nested" value="x"></fieldset>
  </fieldset>
  <input name="brand" value="Kia">
</form>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	form, ok := doc.FormByID(page.FormID)
	if !ok {
		t.Fatalf("form not found")
	}

	want := []formdata.Field{
		{Name: "fuel_type", Value: "Diesel"},
		{Name: "colors", Value: "red"},
		{Name: "colors", Value: "blue"},
		{Name: "owner", Value: "2"},
		{Name: "legend_note", Value: "kept"},
		{Name: "brand", Value: "Kia"},
	}
	if diff := cmp.Diff(want, form.Values().All()); diff != "" {
		t.Fatalf("form values mismatch (-want +got):\n%s", diff)
	}
}

func TestSetValueUpdatesControls(t *testing.T) {
	doc := parseFixture(t)
	edits := map[string]string{
		"brand":        "Tata",
		"owner":        "1",
		"transmission": "Automatic",
		"comment":      "second owner",
		"imported":     "yes",
	}
	for name, value := range edits {
		if err := doc.SetValue(page.FormID, name, value); err != nil {
			t.Fatalf("set %s: %v", name, err)
		}
	}

	form, _ := doc.FormByID(page.FormID)
	values := form.Values()
	for name, want := range edits {
		got, ok := values.Get(name)
		if !ok || got != want {
			t.Fatalf("%s: want %q, got %q (present=%v)", name, want, got, ok)
		}
	}

	err := doc.SetValue(page.FormID, "missing", "x")
	if !errors.Is(err, page.ErrMissingElement) {
		t.Fatalf("expected ErrMissingElement, got %v", err)
	}
}

func TestElementTextAndStyle(t *testing.T) {
	doc := parseFixture(t)
	result, ok := doc.ElementByID(page.ResultID)
	if !ok {
		t.Fatalf("result not found")
	}
	price, ok := doc.ElementByID(page.PriceID)
	if !ok {
		t.Fatalf("price not found")
	}

	if got := result.Style("display"); got != "none" {
		t.Fatalf("expected initial display none, got %q", got)
	}

	price.SetTextContent("<b>42</b>")
	result.SetStyle("display", "block")

	if got := price.TextContent(); got != "<b>42</b>" {
		t.Fatalf("unexpected text %q", got)
	}
	if got := result.Style("display"); got != "block" {
		t.Fatalf("expected display block, got %q", got)
	}
	if got := result.Style("color"); got != "red" {
		t.Fatalf("expected other declarations kept, got color %q", got)
	}

	rendered := doc.String()
	if !strings.Contains(rendered, `style="display: block; color: red;"`) {
		t.Fatalf("style not rendered as expected:\n%s", rendered)
	}
	if !strings.Contains(rendered, "&lt;b&gt;42&lt;/b&gt;") {
		t.Fatalf("text content should be escaped on render:\n%s", rendered)
	}
}

func TestReadyAndSubmitDispatch(t *testing.T) {
	doc := parseFixture(t)
	if got := doc.ReadyState(); got != page.StateLoading {
		t.Fatalf("expected loading state, got %q", got)
	}

	ready := 0
	page.Ready(doc, func() { ready++ })
	if ready != 0 {
		t.Fatalf("ready fired before load")
	}
	doc.Load()
	if ready != 1 || doc.ReadyState() != page.StateComplete {
		t.Fatalf("expected one ready call and complete state, got %d %q", ready, doc.ReadyState())
	}

	page.Ready(doc, func() { ready++ })
	if ready != 2 {
		t.Fatalf("expected immediate run on a loaded document, got %d", ready)
	}

	prevented, err := doc.Submit(page.FormID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if prevented || doc.Navigations() != 1 {
		t.Fatalf("submit without listeners should navigate: prevented=%v navigations=%d", prevented, doc.Navigations())
	}

	form, _ := doc.FormByID(page.FormID)
	form.OnSubmit(func(ev page.Event) { ev.PreventDefault() })
	prevented, err = doc.Submit(page.FormID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !prevented || doc.Navigations() != 1 {
		t.Fatalf("prevented submit must not navigate: prevented=%v navigations=%d", prevented, doc.Navigations())
	}
	if got := doc.SubmitListeners(page.FormID); got != 1 {
		t.Fatalf("expected one listener, got %d", got)
	}

	if _, err := doc.Submit("nope"); !errors.Is(err, page.ErrMissingElement) {
		t.Fatalf("expected ErrMissingElement, got %v", err)
	}
}

func TestFormByIDRejectsNonForms(t *testing.T) {
	doc := parseFixture(t)
	if _, ok := doc.FormByID(page.ResultID); ok {
		t.Fatalf("div must not resolve as a form")
	}
}
