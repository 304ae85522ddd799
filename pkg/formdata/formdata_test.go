package formdata_test

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-predictform/pkg/formdata"
)

func TestEncodeDecodeKeepsOrderAndRepeats(t *testing.T) {
	values := formdata.New(
		formdata.Field{Name: "b", Value: "2"},
		formdata.Field{Name: "a", Value: "1"},
		formdata.Field{Name: "b", Value: "3"},
		formdata.Field{Name: "note", Value: "line one\nline two"},
	)

	body, contentType, err := formdata.Encode(values)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.HasPrefix(contentType, "multipart/form-data; boundary=") {
		t.Fatalf("unexpected content type %q", contentType)
	}

	decoded, err := formdata.Decode(bytes.NewReader(body), contentType)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(values.All(), decoded.All()); diff != "" {
		t.Fatalf("decoded fields mismatch (-want +got):\n%s", diff)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	original := formdata.New(formdata.Field{Name: "a", Value: "1"})
	clone := original.Clone()
	original.Set("a", "changed")
	original.Add("b", "2")

	got, _ := clone.Get("a")
	if got != "1" {
		t.Fatalf("clone changed with original: got %q", got)
	}
	if clone.Len() != 1 {
		t.Fatalf("expected clone to keep one field, got %d", clone.Len())
	}
}

func TestSetCollapsesRepeatedNames(t *testing.T) {
	values := formdata.New(
		formdata.Field{Name: "x", Value: "1"},
		formdata.Field{Name: "y", Value: "2"},
		formdata.Field{Name: "x", Value: "3"},
	)
	values.Set("x", "9")

	want := []formdata.Field{{Name: "x", Value: "9"}, {Name: "y", Value: "2"}}
	if diff := cmp.Diff(want, values.All()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRequest(t *testing.T) {
	t.Run("urlencoded keeps body order", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader("year=2019&brand=Honda&year=2020"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		values, err := formdata.ParseRequest(req)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		want := []formdata.Field{
			{Name: "year", Value: "2019"},
			{Name: "year", Value: "2020"},
			{Name: "brand", Value: "Honda"},
		}
		if diff := cmp.Diff(want, values.All()); diff != "" {
			t.Fatalf("fields mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("multipart", func(t *testing.T) {
		body, contentType, err := formdata.Encode(formdata.New(formdata.Field{Name: "brand", Value: "Tata"}))
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		req := httptest.NewRequest(http.MethodPost, "/predict", bytes.NewReader(body))
		req.Header.Set("Content-Type", contentType)

		values, err := formdata.ParseRequest(req)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if got, _ := values.Get("brand"); got != "Tata" {
			t.Fatalf("expected brand Tata, got %q", got)
		}
	})

	t.Run("json rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")

		_, err := formdata.ParseRequest(req)
		if !errors.Is(err, formdata.ErrUnsupportedContentType) {
			t.Fatalf("expected ErrUnsupportedContentType, got %v", err)
		}
	})
}

func TestStringKeepsFieldOrder(t *testing.T) {
	values := formdata.New(
		formdata.Field{Name: "model", Value: "Model S"},
		formdata.Field{Name: "brand", Value: "Tesla & Co"},
		formdata.Field{Name: "model", Value: ""},
	)
	if got, want := values.String(), "model=Model+S&brand=Tesla+%26+Co&model="; got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}
