package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsBareJSON(t *testing.T) {
	result, err := Validate(`{"title": "Paper", "authors": ["A", "B"]}`)
	require.NoError(t, err)
	assert.Equal(t, "Paper", result.Title)
	assert.Equal(t, []string{"A", "B"}, result.Authors)
}

func TestValidateAcceptsExtraKeys(t *testing.T) {
	result, err := Validate(`{"title": "Paper", "authors": [], "confidence": 0.9}`)
	require.NoError(t, err)
	assert.Equal(t, "Paper", result.Title)
}

func TestValidateTrimsTitle(t *testing.T) {
	result, err := Validate(`{"title": "  Paper  ", "authors": []}`)
	require.NoError(t, err)
	assert.Equal(t, "Paper", result.Title)
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", "the title is Paper by A and B"},
		{"missing title", `{"authors": ["A"]}`},
		{"missing authors", `{"title": "Paper"}`},
		{"title not string", `{"title": 42, "authors": []}`},
		{"authors not array", `{"authors": "A", "title": "Paper"}`},
		{"authors mixed types", `{"title": "Paper", "authors": ["A", 1]}`},
		{"array root", `["Paper", "A"]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Validate(tc.raw)
			require.Error(t, err)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.NotEmpty(t, verr.Reason)
			assert.Equal(t, tc.raw, verr.Raw)
		})
	}
}

func TestStripFence(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"no fence", `{"title": "T"}`, `{"title": "T"}`},
		{"plain fence", "```\n{\"title\": \"T\"}\n```", `{"title": "T"}`},
		{"json tag", "```json\n{\"title\": \"T\"}\n```", `{"title": "T"}`},
		{"fence same line", "```{\"title\": \"T\"}```", `{"title": "T"}`},
		{"surrounding whitespace", "  ```json\n{\"title\": \"T\"}\n```  ", `{"title": "T"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripFence(tc.in))
		})
	}
}
