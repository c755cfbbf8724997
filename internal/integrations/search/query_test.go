package search

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/flight-agent/pkg/util/errorutil"
)

func TestEncodeQuery(t *testing.T) {
	params, err := DecodeParams(json.RawMessage(`{
		"fly_from": "LGA",
		"adults": 2,
		"price_to": 150.50,
		"one_for_city": true,
		"select_airlines": ["AA", "DL"],
		"curr": null
	}`))
	require.NoError(t, err)

	q, err := EncodeQuery(params)
	require.NoError(t, err)
	assert.Equal(t, "adults=2&fly_from=LGA&one_for_city=true&price_to=150.50&select_airlines=AA&select_airlines=DL", q)
}

func TestEncodeQuery_PlainGoValues(t *testing.T) {
	q, err := EncodeQuery(map[string]any{"term": "New Y", "limit": float64(7), "ok": false})
	require.NoError(t, err)
	assert.Equal(t, "limit=7&ok=false&term=New+Y", q)
}

func TestEncodeQuery_RejectsNestedObjects(t *testing.T) {
	_, err := EncodeQuery(map[string]any{"nested": map[string]any{"a": "b"}})
	require.ErrorIs(t, err, ErrInvalidQuery)
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))

	_, err = EncodeQuery(map[string]any{"list": []any{map[string]any{}}})
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestDecodeParams_Invalid(t *testing.T) {
	for _, raw := range []string{"", "null", "[1,2]", `"text"`, "{"} {
		_, err := DecodeParams(json.RawMessage(raw))
		assert.ErrorIsf(t, err, ErrInvalidQuery, "payload %q", raw)
	}
}
