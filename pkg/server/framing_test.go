package server

import (
	"bufio"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBalancedJSON_Object(t *testing.T) {
	in := `{"type":"get_scene_info"}`
	buf, err := readBalancedJSON(bufio.NewReader(strings.NewReader(in)))
	require.NoError(t, err)
	assert.Equal(t, in, string(buf))
}

func TestReadBalancedJSON_NestedBraces(t *testing.T) {
	in := `{"type":"execute_code","params":{"code":"print({1:2})"}}`
	buf, err := readBalancedJSON(bufio.NewReader(strings.NewReader(in)))
	require.NoError(t, err)
	assert.Equal(t, in, string(buf))
}

func TestReadBalancedJSON_BracesInsideString(t *testing.T) {
	in := `{"code":"x = '{not json}'"}`
	buf, err := readBalancedJSON(bufio.NewReader(strings.NewReader(in)))
	require.NoError(t, err)
	assert.Equal(t, in, string(buf))
}

func TestReadBalancedJSON_EscapedQuoteInString(t *testing.T) {
	in := `{"code":"say \"hi\""}`
	buf, err := readBalancedJSON(bufio.NewReader(strings.NewReader(in)))
	require.NoError(t, err)
	assert.Equal(t, in, string(buf))
}

func TestReadBalancedJSON_StopsAtCompleteValueIgnoringTrailingBytes(t *testing.T) {
	// A second JSON value concatenated on the stream must not be consumed;
	// each connection is one-shot.
	in := `{"type":"get_scene_info"}{"type":"ignored"}`
	buf, err := readBalancedJSON(bufio.NewReader(strings.NewReader(in)))
	require.NoError(t, err)
	assert.Equal(t, `{"type":"get_scene_info"}`, string(buf))
}

func TestReadBalancedJSON_BareScalar(t *testing.T) {
	buf, err := readBalancedJSON(bufio.NewReader(strings.NewReader(`true`)))
	require.NoError(t, err)
	assert.Equal(t, "true", string(buf))
}

func TestReadBalancedJSON_TooLarge(t *testing.T) {
	huge := `{"type":"` + strings.Repeat("a", MaxRequestBytes+1) + `"}`
	_, err := readBalancedJSON(bufio.NewReader(strings.NewReader(huge)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errRequestTooLarge))
}

func TestReadBalancedJSON_IncompleteStreamErrors(t *testing.T) {
	_, err := readBalancedJSON(bufio.NewReader(strings.NewReader(`{"type":"get_scene_info"`)))
	require.Error(t, err)
}
