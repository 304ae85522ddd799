package submit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-predictform/pkg/formdata"
	"github.com/goliatone/go-predictform/pkg/page"
	"github.com/goliatone/go-predictform/pkg/predict"
)

// Predictor is the endpoint call the handler makes per submit.
// *predict.Client satisfies it.
type Predictor interface {
	Predict(ctx context.Context, values formdata.Values) (predict.Response, error)
}

// Submission identifies one submit event and its frozen payload.
type Submission struct {
	ID     string
	Values formdata.Values
}

// ErrorHook receives failed submissions. The page is left untouched.
type ErrorHook func(ctx context.Context, sub Submission, err error)

// ResultHook receives the price text after it has been written to the page.
type ResultHook func(ctx context.Context, sub Submission, price string)

// IDs names the elements the handler binds to.
type IDs struct {
	Form   string
	Result string
	Price  string
}

// DefaultIDs are the element IDs of the prediction page.
var DefaultIDs = IDs{
	Form:   page.FormID,
	Result: page.ResultID,
	Price:  page.PriceID,
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithErrorHook replaces the default failure reporting, which logs.
func WithErrorHook(fn ErrorHook) Option {
	return func(h *Handler) {
		if fn != nil {
			h.onError = fn
		}
	}
}

// WithResultHook registers a callback run after each applied result.
func WithResultHook(fn ResultHook) Option {
	return func(h *Handler) {
		h.onResult = fn
	}
}

// WithIDs overrides the element IDs. Empty entries keep their defaults.
func WithIDs(ids IDs) Option {
	return func(h *Handler) {
		if ids.Form != "" {
			h.ids.Form = ids.Form
		}
		if ids.Result != "" {
			h.ids.Result = ids.Result
		}
		if ids.Price != "" {
			h.ids.Price = ids.Price
		}
	}
}

// WithContext sets the parent context of every submission task.
func WithContext(ctx context.Context) Option {
	return func(h *Handler) {
		if ctx != nil {
			h.ctx = ctx
		}
	}
}

// Handler bridges form submits to the prediction endpoint and writes the
// returned price into the page.
//
// Each submit prevents the native navigation, snapshots the form and spawns
// one task. Tasks are independent: there is no queueing, de-duplication,
// timeout or retry, and whichever response resolves last is what the page
// shows. A failed task leaves the page as it was.
type Handler struct {
	predictor Predictor
	ids       IDs
	logger    *slog.Logger
	onError   ErrorHook
	onResult  ResultHook
	ctx       context.Context

	once    sync.Once
	bindErr error
	bound   chan struct{}

	inflight sync.WaitGroup
}

// New constructs a Handler around predictor.
func New(predictor Predictor, opts ...Option) *Handler {
	h := &Handler{
		predictor: predictor,
		ids:       DefaultIDs,
		logger:    slog.Default(),
		ctx:       context.Background(),
		bound:     make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	if h.onError == nil {
		h.onError = h.logFailure
	}
	return h
}

// Bind registers the submit listener once the document is ready. The
// listener is attached at most once per Handler no matter how often Bind
// is called or the readiness event fires.
func (h *Handler) Bind(doc page.Document) {
	page.Ready(doc, func() {
		h.once.Do(func() {
			h.bindErr = h.attach(doc)
			close(h.bound)
		})
	})
}

// Bound is closed once the listener has been attached (or failed to).
func (h *Handler) Bound() <-chan struct{} {
	return h.bound
}

// Err reports the outcome of attaching the listener. Valid after Bound is
// closed.
func (h *Handler) Err() error {
	select {
	case <-h.bound:
		return h.bindErr
	default:
		return nil
	}
}

// Wait blocks until every in-flight submission has finished.
func (h *Handler) Wait() {
	h.inflight.Wait()
}

func (h *Handler) attach(doc page.Document) error {
	form, ok := doc.FormByID(h.ids.Form)
	if !ok {
		return fmt.Errorf("submit: %w: form #%s", page.ErrMissingElement, h.ids.Form)
	}
	result, ok := doc.ElementByID(h.ids.Result)
	if !ok {
		return fmt.Errorf("submit: %w: #%s", page.ErrMissingElement, h.ids.Result)
	}
	price, ok := doc.ElementByID(h.ids.Price)
	if !ok {
		return fmt.Errorf("submit: %w: #%s", page.ErrMissingElement, h.ids.Price)
	}

	form.OnSubmit(func(ev page.Event) {
		ev.PreventDefault()
		sub := Submission{
			ID:     uuid.NewString(),
			Values: form.Values(),
		}
		h.inflight.Add(1)
		go h.run(doc, sub, result, price)
	})

	h.logger.Debug("submit handler bound", "form", h.ids.Form)
	return nil
}

func (h *Handler) run(doc page.Document, sub Submission, result, price page.Element) {
	defer h.inflight.Done()
	ctx := h.ctx

	h.logger.DebugContext(ctx, "submitting prediction form",
		"submission_id", sub.ID,
		"fields", sub.Values.Len(),
		"payload", sub.Values.String(),
	)

	resp, err := h.predictor.Predict(ctx, sub.Values)
	if err != nil {
		h.onError(ctx, sub, err)
		return
	}

	text := resp.PriceText()
	doc.Update(func() {
		price.SetTextContent(text)
		result.SetStyle("display", "block")
	})

	h.logger.InfoContext(ctx, "prediction applied",
		"submission_id", sub.ID,
		"price", text,
	)
	if h.onResult != nil {
		h.onResult(ctx, sub, text)
	}
}

func (h *Handler) logFailure(ctx context.Context, sub Submission, err error) {
	h.logger.ErrorContext(ctx, "prediction request failed",
		"submission_id", sub.ID,
		"error", err,
	)
}
