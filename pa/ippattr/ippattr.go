// Package ippattr provides helpers for building and reading IPP attribute
// groups on top of github.com/OpenPrinting/goipp, the wire-format codec
// used throughout this module.
package ippattr

import (
	"fmt"

	"github.com/OpenPrinting/goipp"
)

// Common string values reused across operation responses.
const (
	None           goipp.String = "none"
	UTF8           goipp.String = "utf-8"
	EnUS           goipp.String = "en-us"
	ApplicationPDF goipp.String = "application/pdf"
	ImageURF       goipp.String = "image/urf"
	ImagePWG       goipp.String = "image/pwg-raster"
)

// StatusClass is the RFC 8011 appendix B status-code family.
//
// https://datatracker.ietf.org/doc/html/rfc8011#section-4.1.6
type StatusClass string

const (
	ClassInformational StatusClass = "informational"
	ClassSuccessful    StatusClass = "successful"
	ClassRedirection   StatusClass = "redirection"
	ClassClientError   StatusClass = "client-error"
	ClassServerError   StatusClass = "server-error"
)

// ClassOf classifies an IPP status code.
func ClassOf(status goipp.Status) StatusClass {
	switch {
	case status < 0x0100:
		return ClassSuccessful
	case status < 0x0300:
		return ClassRedirection
	case status < 0x0500:
		return ClassClientError
	default:
		return ClassServerError
	}
}

// Adder returns a closure that appends attributes of a fixed tag shape to
// attrs, mirroring the teacher's helper of the same purpose: a single
// value is the common case, extra values are folded into the same
// attribute's Values slice.
func Adder(attrs *goipp.Attributes) func(name string, tag goipp.Tag, values ...goipp.Value) {
	return func(name string, tag goipp.Tag, values ...goipp.Value) {
		if len(values) == 0 {
			values = []goipp.Value{goipp.String("")}
		}
		attr := goipp.Attribute{Name: name}
		for _, v := range values {
			attr.Values.Add(tag, v)
		}
		attrs.Add(attr)
	}
}

// MakeAttribute builds a single-value attribute, for call sites that need
// an *Attribute rather than appending through Adder.
func MakeAttribute(name string, tag goipp.Tag, v goipp.Value) goipp.Attribute {
	attr := goipp.Attribute{Name: name}
	attr.Values.Add(tag, v)
	return attr
}

// StringsToValues converts a slice of string-like values into goipp.Value,
// for attributes with multiple string values (e.g. finishings-supported).
func StringsToValues[S ~[]E, E ~string](strs S) []goipp.Value {
	values := make([]goipp.Value, len(strs))
	for i, str := range strs {
		values[i] = goipp.String(str)
	}
	return values
}

// NewResponse builds the common response skeleton: status code plus the
// charset/natural-language attributes every IPP response carries in its
// operation-attributes group.
func NewResponse(status goipp.Status, requestID uint32) *goipp.Message {
	m := goipp.NewResponse(goipp.DefaultVersion, status, requestID)
	add := Adder(m.Operation())
	add("attributes-charset", goipp.TagCharset, UTF8)
	add("attributes-natural-language", goipp.TagLanguage, EnUS)
	return m
}

// FindAttr looks up an attribute's values by name within a group.
func FindAttr(attrs goipp.Attributes, name string) (goipp.Values, bool) {
	for _, attr := range attrs {
		if attr.Name == name && len(attr.Values) > 0 {
			return attr.Values, true
		}
	}
	return nil, false
}

// ExtractValue returns the single, typed value of a named attribute.
func ExtractValue[T any](attrs goipp.Attributes, name string) (T, error) {
	var zero T
	vv, ok := FindAttr(attrs, name)
	if !ok || len(vv) == 0 {
		return zero, fmt.Errorf("attribute %q not found", name)
	}
	if len(vv) > 1 {
		return zero, fmt.Errorf("attribute %q has multiple values: %d", name, len(vv))
	}
	v := vv[0].V
	if val, ok := v.(T); ok {
		return val, nil
	}
	return zero, fmt.Errorf("attribute %q is not of type %T: %T", name, zero, v)
}

// ExtractValues returns all typed values of a named, possibly multi-valued
// attribute (e.g. requested-attributes, finishings).
func ExtractValues[T any](attrs goipp.Attributes, name string) ([]T, error) {
	vv, ok := FindAttr(attrs, name)
	if !ok {
		return nil, fmt.Errorf("attribute %q not found", name)
	}
	out := make([]T, 0, len(vv))
	for _, v := range vv {
		val, ok := v.V.(T)
		if !ok {
			return nil, fmt.Errorf("attribute %q has a non-%T value: %T", name, val, v.V)
		}
		out = append(out, val)
	}
	return out, nil
}

// OperationAttr is a convenience for extracting a string attribute from an
// operation-attributes group and falling back to a default on error.
func OperationAttr(attrs goipp.Attributes, name string, def string) string {
	v, err := ExtractValue[goipp.String](attrs, name)
	if err != nil {
		return def
	}
	return string(v)
}
