package predict

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// PriceField is the response member holding the prediction.
const PriceField = "predicted_price"

// Response is the decoded reply of the prediction endpoint. Only the price
// member is kept; it stays raw so any JSON scalar can be displayed.
type Response struct {
	PredictedPrice json.RawMessage
}

// HasPrice reports whether the response carried a non-null price.
func (r Response) HasPrice() bool {
	trimmed := bytes.TrimSpace(r.PredictedPrice)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// PriceText renders the price the way assigning it to a DOM node's
// textContent would: numbers in their shortest form, strings verbatim,
// missing or null as the empty string.
func (r Response) PriceText() string {
	if !r.HasPrice() {
		return ""
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(r.PredictedPrice))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return string(r.PredictedPrice)
	}
	return displayString(v)
}

// Float returns the price as a number when it is one.
func (r Response) Float() (float64, bool) {
	var n json.Number
	if err := json.Unmarshal(r.PredictedPrice, &n); err != nil {
		return 0, false
	}
	f, err := n.Float64()
	if err != nil {
		return 0, false
	}
	return f, true
}

func displayString(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return t.String()
		}
		return FormatNumber(f)
	case []any:
		parts := make([]string, len(t))
		for i, item := range t {
			if item == nil {
				continue
			}
			parts[i] = displayString(item)
		}
		return strings.Join(parts, ",")
	default:
		return "[object Object]"
	}
}

// FormatNumber formats f like ECMAScript Number.prototype.toString: plain
// decimal notation between 1e-6 and 1e21, exponent notation outside it.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	s := strconv.FormatFloat(f, 'e', -1, 64)
	mantissa, exp, _ := strings.Cut(s, "e")
	sign := exp[:1]
	digits := strings.TrimLeft(exp[1:], "0")
	if digits == "" {
		digits = "0"
	}
	return mantissa + "e" + sign + digits
}
