package formdata

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// DefaultMaxMemory bounds the in-memory portion of parsed multipart bodies.
const DefaultMaxMemory = 1 << 20

// ErrUnsupportedContentType is returned by ParseRequest for bodies that are
// neither multipart nor urlencoded.
var ErrUnsupportedContentType = errors.New("formdata: unsupported content type")

// Encode serialises values as a multipart/form-data body. The returned
// content type carries the generated boundary.
func Encode(v Values) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range v.fields {
		if err := w.WriteField(f.Name, f.Value); err != nil {
			return nil, "", fmt.Errorf("formdata: write field %q: %w", f.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("formdata: close writer: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// Decode reads a multipart/form-data body using the boundary from
// contentType. Part order is preserved; file parts are read as text.
func Decode(body io.Reader, contentType string) (Values, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return Values{}, fmt.Errorf("formdata: parse content type: %w", err)
	}
	if mediaType != "multipart/form-data" {
		return Values{}, fmt.Errorf("%w: %s", ErrUnsupportedContentType, mediaType)
	}
	boundary := params["boundary"]
	if boundary == "" {
		return Values{}, errors.New("formdata: missing multipart boundary")
	}

	var out Values
	reader := multipart.NewReader(body, boundary)
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Values{}, fmt.Errorf("formdata: next part: %w", err)
		}
		name := part.FormName()
		data, err := io.ReadAll(io.LimitReader(part, DefaultMaxMemory))
		part.Close()
		if err != nil {
			return Values{}, fmt.Errorf("formdata: read part %q: %w", name, err)
		}
		out.Add(name, string(data))
	}
	return out, nil
}

// ParseRequest extracts form values from a multipart or urlencoded request
// body.
func ParseRequest(r *http.Request) (Values, error) {
	contentType := r.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return Values{}, fmt.Errorf("formdata: parse content type: %w", err)
	}
	switch {
	case mediaType == "multipart/form-data":
		return Decode(r.Body, contentType)
	case mediaType == "application/x-www-form-urlencoded":
		raw, err := io.ReadAll(io.LimitReader(r.Body, DefaultMaxMemory))
		if err != nil {
			return Values{}, fmt.Errorf("formdata: read body: %w", err)
		}
		parsed, err := url.ParseQuery(string(raw))
		if err != nil {
			return Values{}, fmt.Errorf("formdata: parse urlencoded body: %w", err)
		}
		return orderedQuery(string(raw), parsed), nil
	default:
		return Values{}, fmt.Errorf("%w: %s", ErrUnsupportedContentType, mediaType)
	}
}

// orderedQuery rebuilds Values in body order, falling back to sorted names
// for anything the raw scan could not place.
func orderedQuery(raw string, parsed url.Values) Values {
	var out Values
	seen := make(map[string]bool, len(parsed))
	for _, pair := range strings.Split(raw, "&") {
		key, _, _ := strings.Cut(pair, "=")
		name, err := url.QueryUnescape(key)
		if err != nil || name == "" || seen[name] {
			continue
		}
		seen[name] = true
		for _, value := range parsed[name] {
			out.Add(name, value)
		}
	}
	for _, name := range sortedKeys(parsed) {
		if seen[name] {
			continue
		}
		for _, value := range parsed[name] {
			out.Add(name, value)
		}
	}
	return out
}

func sortedKeys(in url.Values) []string {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
