package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptionalTime(t *testing.T) {
	got, err := parseOptionalTime("", false)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = parseOptionalTime("2024-03-01", false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *got)

	got, err = parseOptionalTime("2024-03-01", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 23, 59, 59, 999999999, time.UTC), *got)

	got, err = parseOptionalTime("2024-03-01T10:30:00", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC), *got)

	got, err = parseOptionalTime("2024-03-01T10:30:00+07:00", false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 3, 30, 0, 0, time.UTC), *got)

	_, err = parseOptionalTime("01/03/2024", false)
	assert.Error(t, err)
}

func TestParseRequiredTime(t *testing.T) {
	_, err := parseRequiredTime(" ", false)
	assert.Error(t, err)
}
