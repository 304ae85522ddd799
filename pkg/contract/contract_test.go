package contract_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-predictform/pkg/contract"
	"github.com/goliatone/go-predictform/pkg/formdata"
	"github.com/goliatone/go-predictform/pkg/testsupport"
)

func TestDefaultContractFields(t *testing.T) {
	c, err := contract.Default()
	if err != nil {
		t.Fatalf("load default contract: %v", err)
	}

	wantNames := []string{
		"brand", "model", "year", "mileage", "fuel_type", "transmission",
		"color", "seating_capacity", "seller_type", "owner", "drivetrain",
		"engine_capacity", "fuel_tank_capacity", "max_power_hp",
		"max_power_rpm", "max_torque_Nm", "max_torque_rpm",
	}
	if diff := cmp.Diff(wantNames, c.Names()); diff != "" {
		t.Fatalf("field order mismatch (-want +got):\n%s", diff)
	}

	fuel, ok := c.Field("fuel_type")
	if !ok {
		t.Fatalf("fuel_type missing")
	}
	want := contract.Field{
		Name:        "fuel_type",
		Title:       "Fuel type",
		Description: "Fuel type of the car",
		Type:        contract.FieldTypeString,
		Enum:        []string{"Petrol", "Diesel", "Electric", "CNG", "LPG"},
	}
	if diff := cmp.Diff(want, fuel); diff != "" {
		t.Fatalf("fuel_type mismatch (-want +got):\n%s", diff)
	}

	if year, _ := c.Field("year"); year.Type != contract.FieldTypeInteger {
		t.Fatalf("year should be an integer field, got %q", year.Type)
	}
	if c.MediaType != "multipart/form-data" {
		t.Fatalf("unexpected media type %q", c.MediaType)
	}
	if c.ResponseField != "predicted_price" {
		t.Fatalf("unexpected response field %q", c.ResponseField)
	}
	if c.OperationID != "predictPrice" {
		t.Fatalf("unexpected operation id %q", c.OperationID)
	}
}

func TestDefaultContractMatchesGolden(t *testing.T) {
	c, err := contract.Default()
	if err != nil {
		t.Fatalf("load default contract: %v", err)
	}
	const golden = "testdata/fields.golden.json"
	if testsupport.WriteGolden(t, golden, c.Fields) {
		return
	}
	var want []contract.Field
	testsupport.MustLoadJSON(t, golden, &want)
	if diff := testsupport.CompareGolden(want, c.Fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeFeatures(t *testing.T) {
	c, err := contract.Default()
	if err != nil {
		t.Fatalf("load default contract: %v", err)
	}

	values := formdata.New(
		formdata.Field{Name: "brand", Value: "  Honda "},
		formdata.Field{Name: "year", Value: "2019"},
		formdata.Field{Name: "mileage", Value: "45000.5"},
		formdata.Field{Name: "fuel_type", Value: "Diesel"},
		formdata.Field{Name: "color", Value: "   "},
		formdata.Field{Name: "unknown", Value: "ignored"},
	)

	features, err := c.Decode(values)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := contract.Features{
		"brand":     "Honda",
		"year":      int64(2019),
		"mileage":   45000.5,
		"fuel_type": "Diesel",
	}
	if diff := cmp.Diff(want, features); diff != "" {
		t.Fatalf("features mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeAcceptsValuesOutsideEnum(t *testing.T) {
	c, err := contract.Default()
	if err != nil {
		t.Fatalf("load default contract: %v", err)
	}
	values := formdata.New(
		formdata.Field{Name: "fuel_type", Value: "Hydrogen"},
		formdata.Field{Name: "drivetrain", Value: "awd"},
	)

	features, err := c.Decode(values)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := contract.Features{"fuel_type": "Hydrogen", "drivetrain": "awd"}
	if diff := cmp.Diff(want, features); diff != "" {
		t.Fatalf("features mismatch (-want +got):\n%s", diff)
	}

	_, err = c.Decode(values, contract.StrictEnums())
	var fieldErrs contract.FieldErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) != 2 {
		t.Fatalf("strict decode should reject both values, got %v", err)
	}
}

func TestDecodeAggregatesFieldErrors(t *testing.T) {
	c, err := contract.Default()
	if err != nil {
		t.Fatalf("load default contract: %v", err)
	}

	_, err = c.Decode(formdata.New(
		formdata.Field{Name: "year", Value: "last year"},
		formdata.Field{Name: "mileage", Value: "NaN"},
		formdata.Field{Name: "drivetrain", Value: "4WD"},
	), contract.StrictEnums())
	if !errors.Is(err, contract.ErrInvalidField) {
		t.Fatalf("expected ErrInvalidField, got %v", err)
	}
	var fieldErrs contract.FieldErrors
	if !errors.As(err, &fieldErrs) {
		t.Fatalf("expected FieldErrors, got %T", err)
	}

	got := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		got[fe.Field] = fe.Type
	}
	want := map[string]string{
		"year":       "int_parsing",
		"mileage":    "float_parsing",
		"drivetrain": "enum",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}
	if fieldErrs[2].Message != "Input should be 'FWD', 'RWD' or 'AWD'" {
		t.Fatalf("unexpected enum message %q", fieldErrs[2].Message)
	}
}

func TestLoadRejectsDocumentsWithoutPredict(t *testing.T) {
	doc := []byte(`openapi: 3.0.3
info: {title: other, version: "1"}
paths:
  /health:
    get:
      responses:
        '200': {description: ok}
`)
	if _, err := contract.Load(context.Background(), doc); err == nil {
		t.Fatalf("expected an error for a document without POST /predict")
	}
	if _, err := contract.Load(context.Background(), nil); err == nil {
		t.Fatalf("expected an error for an empty document")
	}
}

func TestLoadFallsBackToNameOrder(t *testing.T) {
	doc := []byte(`openapi: 3.0.3
info: {title: minimal, version: "1"}
paths:
  /predict:
    post:
      requestBody:
        content:
          application/x-www-form-urlencoded:
            schema:
              type: object
              required: [b]
              properties:
                b: {type: number}
                a: {type: string}
      responses:
        '200': {description: ok}
`)
	c, err := contract.Load(context.Background(), doc)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, c.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	if b, _ := c.Field("b"); !b.Required {
		t.Fatalf("b should be required")
	}
	if _, err := c.Decode(formdata.Values{}); !errors.Is(err, contract.ErrInvalidField) {
		t.Fatalf("missing required field should fail, got %v", err)
	}
}

func TestFieldCheck(t *testing.T) {
	c, err := contract.Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	cases := []struct {
		field string
		raw   string
		ok    bool
	}{
		{field: "year", raw: " 2021 ", ok: true},
		{field: "year", raw: "2021.5"},
		{field: "mileage", raw: "1e3", ok: true},
		{field: "mileage", raw: "NaN"},
		{field: "drivetrain", raw: "AWD", ok: true},
		{field: "drivetrain", raw: "awd", ok: true},
		{field: "brand", raw: "", ok: true},
	}
	for _, tc := range cases {
		f, found := c.Field(tc.field)
		if !found {
			t.Fatalf("field %s missing", tc.field)
		}
		err := f.Check(tc.raw)
		if (err == nil) != tc.ok {
			t.Fatalf("%s=%q: ok=%v, err=%v", tc.field, tc.raw, tc.ok, err)
		}
	}
}
