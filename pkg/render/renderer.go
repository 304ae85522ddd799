package render

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-predictform/pkg/contract"
	"github.com/goliatone/go-predictform/pkg/page"
)

//go:embed templates/*.tpl
var embeddedTemplates embed.FS

// PageTemplate is the template rendered by Page.
const PageTemplate = "index.tpl"

// Options tunes the page chrome around the generated form.
type Options struct {
	Title        string
	Action       string
	Currency     string
	SubmitLabel  string
	ResultLabel  string
	Placeholder  string
	Stylesheet   string
	Scripts      []string
	WASM         string
	TemplatesDir string
}

// Option mutates Options.
type Option func(*Options)

// WithTitle sets the page heading and document title.
func WithTitle(title string) Option {
	return func(o *Options) {
		if t := strings.TrimSpace(title); t != "" {
			o.Title = t
		}
	}
}

// WithCurrency sets the label printed after the price.
func WithCurrency(currency string) Option {
	return func(o *Options) {
		o.Currency = strings.TrimSpace(currency)
	}
}

// WithStylesheet links a stylesheet from the page head.
func WithStylesheet(href string) Option {
	return func(o *Options) {
		o.Stylesheet = strings.TrimSpace(href)
	}
}

// WithWASM loads the submit handler compiled to WebAssembly. execJS is the
// Go runtime support script (wasm_exec.js) and module the .wasm binary.
func WithWASM(execJS, module string) Option {
	return func(o *Options) {
		if execJS = strings.TrimSpace(execJS); execJS != "" {
			o.Scripts = append(o.Scripts, execJS)
		}
		o.WASM = strings.TrimSpace(module)
	}
}

// WithTemplatesDir loads templates from disk ahead of the embedded set.
func WithTemplatesDir(dir string) Option {
	return func(o *Options) {
		o.TemplatesDir = strings.TrimSpace(dir)
	}
}

// Renderer produces the prediction page from a contract.
type Renderer struct {
	opts Options
	set  *pongo2.TemplateSet

	mu   sync.Mutex
	tmpl *pongo2.Template
}

// New constructs a Renderer.
func New(options ...Option) (*Renderer, error) {
	opts := Options{
		Title:       "Car Price Predictor",
		Action:      "/predict",
		Currency:    "USD",
		SubmitLabel: "Predict price",
		ResultLabel: "Predicted price:",
		Placeholder: "Select…",
	}
	for _, opt := range options {
		if opt != nil {
			opt(&opts)
		}
	}

	var loaders []pongo2.TemplateLoader
	if opts.TemplatesDir != "" {
		loader, err := pongo2.NewLocalFileSystemLoader(opts.TemplatesDir)
		if err != nil {
			return nil, fmt.Errorf("render: create local loader: %w", err)
		}
		loaders = append(loaders, loader)
	}
	loaders = append(loaders, pongo2.NewFSLoader(TemplatesFS()))

	return &Renderer{
		opts: opts,
		set:  pongo2.NewSet("predictform", loaders...),
	}, nil
}

// TemplatesFS exposes the embedded templates so callers can copy or extend
// them.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}

// Page writes the HTML page for c to w.
func (r *Renderer) Page(w io.Writer, c *contract.Contract) error {
	if c == nil {
		return errors.New("render: contract is nil")
	}
	tmpl, err := r.template()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteWriter(r.context(c), &buf); err != nil {
		return fmt.Errorf("render: execute template %q: %w", PageTemplate, err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// PageString renders the page into a string.
func (r *Renderer) PageString(c *contract.Contract) (string, error) {
	var b strings.Builder
	if err := r.Page(&b, c); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (r *Renderer) template() (*pongo2.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tmpl != nil {
		return r.tmpl, nil
	}
	tmpl, err := r.set.FromFile(PageTemplate)
	if err != nil {
		return nil, fmt.Errorf("render: load template %q: %w", PageTemplate, err)
	}
	r.tmpl = tmpl
	return tmpl, nil
}

func (r *Renderer) context(c *contract.Contract) pongo2.Context {
	fields := make([]map[string]any, 0, len(c.Fields))
	for _, f := range c.Fields {
		fields = append(fields, fieldContext(f))
	}
	return pongo2.Context{
		"title":        r.opts.Title,
		"summary":      c.Summary,
		"action":       r.opts.Action,
		"currency":     r.opts.Currency,
		"submit_label": r.opts.SubmitLabel,
		"result_label": r.opts.ResultLabel,
		"placeholder":  r.opts.Placeholder,
		"stylesheet":   r.opts.Stylesheet,
		"scripts":      r.opts.Scripts,
		"wasm":         r.opts.WASM,
		"fields":       fields,
		"ids": map[string]string{
			"form":   page.FormID,
			"result": page.ResultID,
			"price":  page.PriceID,
		},
	}
}

func fieldContext(f contract.Field) map[string]any {
	ctx := map[string]any{
		"name":       f.Name,
		"label":      f.Label(),
		"help":       sanitizeHelp(f.Description),
		"required":   f.Required,
		"options":    f.Enum,
		"input_type": "text",
		"step":       "",
	}
	switch f.Type {
	case contract.FieldTypeInteger:
		ctx["input_type"] = "number"
		ctx["step"] = "1"
	case contract.FieldTypeNumber:
		ctx["input_type"] = "number"
		ctx["step"] = "any"
	case contract.FieldTypeBoolean:
		ctx["options"] = []string{"true", "false"}
	}
	return ctx
}

var (
	helpPolicyOnce sync.Once
	helpPolicy     *bluemonday.Policy
)

// sanitizeHelp keeps inline formatting in field descriptions and drops
// everything else.
func sanitizeHelp(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	helpPolicyOnce.Do(func() {
		policy := bluemonday.StrictPolicy()
		policy.AllowElements("b", "strong", "i", "em", "code", "abbr")
		policy.AllowAttrs("title").OnElements("abbr")
		helpPolicy = policy
	})
	return strings.TrimSpace(helpPolicy.Sanitize(trimmed))
}
