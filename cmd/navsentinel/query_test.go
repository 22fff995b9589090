package main

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatLakhs(t *testing.T) {
	got := formatLakhs(decimal.RequireFromString("12.5"))
	assert.Contains(t, got, "1,250,000.00")
	assert.Contains(t, got, "₹")
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, map[string]int{"a": 1}))
	assert.JSONEq(t, `{"a":1}`, buf.String())
}
