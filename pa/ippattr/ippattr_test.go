package ippattr

import (
	"testing"

	"github.com/OpenPrinting/goipp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassOf(t *testing.T) {
	tests := []struct {
		name   string
		status goipp.Status
		want   StatusClass
	}{
		{"ok", goipp.StatusOk, ClassSuccessful},
		{"client error", goipp.StatusErrorNotFound, ClassClientError},
		{"server error", goipp.StatusErrorInternal, ClassServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassOf(tt.status))
		})
	}
}

func TestAdder(t *testing.T) {
	var attrs goipp.Attributes
	add := Adder(&attrs)
	add("job-name", goipp.TagName, goipp.String("report.pdf"))
	add("job-state-reasons", goipp.TagKeyword, goipp.String("job-incoming"), goipp.String("job-queued"))

	require.Len(t, attrs, 2)
	assert.Equal(t, "job-name", attrs[0].Name)
	assert.Equal(t, goipp.String("report.pdf"), attrs[0].Values[0].V)
	assert.Len(t, attrs[1].Values, 2)
}

func TestAdderDefaultsEmptyValueToBlankString(t *testing.T) {
	var attrs goipp.Attributes
	add := Adder(&attrs)
	add("job-name", goipp.TagName)

	require.Len(t, attrs, 1)
	assert.Equal(t, goipp.String(""), attrs[0].Values[0].V)
}

func TestMakeAttribute(t *testing.T) {
	attr := MakeAttribute("printer-name", goipp.TagName, goipp.String("printer1"))
	assert.Equal(t, "printer-name", attr.Name)
	require.Len(t, attr.Values, 1)
	assert.Equal(t, goipp.String("printer1"), attr.Values[0].V)
}

func TestStringsToValues(t *testing.T) {
	values := StringsToValues([]string{"a", "b"})
	require.Len(t, values, 2)
	assert.Equal(t, goipp.String("a"), values[0])
	assert.Equal(t, goipp.String("b"), values[1])
}

func TestNewResponse(t *testing.T) {
	msg := NewResponse(goipp.StatusOk, 42)
	assert.Equal(t, goipp.Code(goipp.StatusOk), msg.Code)
	assert.Equal(t, uint32(42), msg.RequestID)

	vv, ok := FindAttr(*msg.Operation(), "attributes-charset")
	require.True(t, ok)
	assert.Equal(t, UTF8, vv[0].V)
}

func TestFindAttr(t *testing.T) {
	var attrs goipp.Attributes
	Adder(&attrs)("job-id", goipp.TagInteger, goipp.Integer(7))

	vv, ok := FindAttr(attrs, "job-id")
	require.True(t, ok)
	assert.Equal(t, goipp.Integer(7), vv[0].V)

	_, ok = FindAttr(attrs, "missing")
	assert.False(t, ok)
}

func TestExtractValue(t *testing.T) {
	var attrs goipp.Attributes
	Adder(&attrs)("printer-uri", goipp.TagURI, goipp.String("ipp://localhost/ipp/print/p1"))

	v, err := ExtractValue[goipp.String](attrs, "printer-uri")
	require.NoError(t, err)
	assert.Equal(t, goipp.String("ipp://localhost/ipp/print/p1"), v)

	_, err = ExtractValue[goipp.String](attrs, "missing")
	assert.Error(t, err)

	_, err = ExtractValue[goipp.Integer](attrs, "printer-uri")
	assert.Error(t, err)
}

func TestExtractValueRejectsMultipleValues(t *testing.T) {
	var attrs goipp.Attributes
	Adder(&attrs)("job-state-reasons", goipp.TagKeyword, goipp.String("a"), goipp.String("b"))

	_, err := ExtractValue[goipp.String](attrs, "job-state-reasons")
	assert.Error(t, err)
}

func TestExtractValues(t *testing.T) {
	var attrs goipp.Attributes
	Adder(&attrs)("requested-attributes", goipp.TagKeyword, goipp.String("job-id"), goipp.String("job-state"))

	vv, err := ExtractValues[goipp.String](attrs, "requested-attributes")
	require.NoError(t, err)
	assert.Equal(t, []goipp.String{"job-id", "job-state"}, vv)

	_, err = ExtractValues[goipp.String](attrs, "missing")
	assert.Error(t, err)
}

func TestOperationAttr(t *testing.T) {
	var attrs goipp.Attributes
	Adder(&attrs)("job-name", goipp.TagName, goipp.String("my-job"))

	assert.Equal(t, "my-job", OperationAttr(attrs, "job-name", "default"))
	assert.Equal(t, "default", OperationAttr(attrs, "missing", "default"))
}
