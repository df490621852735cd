package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eugenenazirov/pack-fulfillment/internal/calculator"
)

func TestRunJSON(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"--packs", "23,31,53", "--order", "500000", "--format", "json"}, &out)
	require.NoError(t, err)

	var got map[string]int
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, map[string]int{"23": 2, "31": 7, "53": 9429}, got)
}

func TestRunTableUsesDefaultPacks(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"--order", "12001"}, &out))

	lines := strings.Split(out.String(), "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Equal(t, []string{"PACK", "QUANTITY"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"5000", "2"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"2000", "1"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"250", "1"}, strings.Fields(lines[3]))
	assert.Contains(t, out.String(), "excess")
}

func TestRunRejectsInvalidInput(t *testing.T) {
	var out bytes.Buffer

	err := run([]string{"--packs", "250", "--order=-3"}, &out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, calculator.ErrInvalidInput))

	err = run([]string{"--packs", "abc", "--order", "10"}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--packs")

	err = run([]string{"--packs", "250"}, &out)
	require.Error(t, err, "order flag is required")

	err = run([]string{"--order", "10", "--format", "xml"}, &out)
	require.Error(t, err)
	assert.Empty(t, out.String())
}
