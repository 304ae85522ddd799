package devserver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/goliatone/go-predictform/pkg/contract"
	"github.com/goliatone/go-predictform/pkg/formdata"
	"github.com/goliatone/go-predictform/pkg/predict"
)

// Request is one decoded prediction request.
type Request struct {
	Values   formdata.Values
	Features contract.Features
}

// Predictor produces a price for a request.
type Predictor interface {
	Predict(ctx context.Context, req Request) (decimal.Decimal, error)
}

// PredictorFunc adapts a function to Predictor.
type PredictorFunc func(ctx context.Context, req Request) (decimal.Decimal, error)

// Predict calls f.
func (f PredictorFunc) Predict(ctx context.Context, req Request) (decimal.Decimal, error) {
	return f(ctx, req)
}

// StaticPredictor answers every request with the same price. It stands in for
// a trained model during local development.
type StaticPredictor struct {
	Price decimal.Decimal
}

// NewStaticPredictor builds a StaticPredictor from a float price.
func NewStaticPredictor(price float64) StaticPredictor {
	return StaticPredictor{Price: exactDecimal(price)}
}

// exactDecimal returns the exact value of the binary float f, so later
// rounding sees 2.675 as 2.67499999... the way float arithmetic does.
// f must be finite.
func exactDecimal(f float64) decimal.Decimal {
	return decimal.RequireFromString(new(big.Float).SetFloat64(f).Text('f', 1100))
}

// Predict returns the configured price.
func (p StaticPredictor) Predict(ctx context.Context, _ Request) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	return p.Price, nil
}

var (
	// ErrUpstream wraps every failure of the upstream model service.
	ErrUpstream = errors.New("devserver: upstream predictor failed")
	// ErrNoPrice is returned when an upstream model answers without a
	// numeric price. It wraps ErrUpstream.
	ErrNoPrice = fmt.Errorf("%w: no numeric price", ErrUpstream)
)

// UpstreamPredictor forwards the submitted form to a model service that
// speaks the same /predict contract.
type UpstreamPredictor struct {
	client *predict.Client
}

// NewUpstreamPredictor wraps client.
func NewUpstreamPredictor(client *predict.Client) *UpstreamPredictor {
	return &UpstreamPredictor{client: client}
}

// Predict posts the original values upstream and returns its price.
func (p *UpstreamPredictor) Predict(ctx context.Context, req Request) (decimal.Decimal, error) {
	resp, err := p.client.Predict(ctx, req.Values)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return decimal.Zero, ctxErr
		}
		return decimal.Zero, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	price, ok := resp.Float()
	if !ok || math.IsInf(price, 0) {
		return decimal.Zero, ErrNoPrice
	}
	return exactDecimal(price), nil
}
