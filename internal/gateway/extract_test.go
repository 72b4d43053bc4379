// ABOUTME: Tests for fence stripping and truncated-payload repair.
// ABOUTME: Covers the repair heuristic on complete, cut-mid-record and hopeless inputs.

package gateway

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairTruncated(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		want     string
		repaired bool
	}{
		{
			name: "complete payload untouched",
			in:   `{"contacts":[{"name":"A"}]}`,
			want: `{"contacts":[{"name":"A"}]}`,
		},
		{
			name: "trailing whitespace trimmed only",
			in:   "  {\"contacts\":[]}\n",
			want: `{"contacts":[]}`,
		},
		{
			name:     "cut inside dangling record",
			in:       `{"contacts":[{"name":"A","city":"Paris"},{"name":"B","city":"Paris"},{"name":"C","ci`,
			want:     `{"contacts":[{"name":"A","city":"Paris"},{"name":"B","city":"Paris"}]}`,
			repaired: true,
		},
		{
			name:     "cut after trailing comma",
			in:       `{"contacts":[{"name":"A","city":"Paris"},{"name":"B","city":"Paris"},`,
			want:     `{"contacts":[{"name":"A","city":"Paris"},{"name":"B","city":"Paris"}]}`,
			repaired: true,
		},
		{
			name:     "cut after separating comma",
			in:       `{"contacts":[{"name":"A","city":"Paris"},{`,
			want:     `{"contacts":[{"name":"A","city":"Paris"}]}`,
			repaired: true,
		},
		{
			name:     "top level array is closed as an object",
			in:       `[{"name":"A"}]`,
			want:     `[{"name":"A"}]}`,
			repaired: true,
		},
		{
			name: "ends in brace is taken as complete",
			in:   `{"contacts":[{"name":"A","city":"Paris"}`,
			want: `{"contacts":[{"name":"A","city":"Paris"}`,
		},
		{
			name: "no complete record",
			in:   `{"contacts":[{"name":"A`,
			want: `{"contacts":[{"name":"A`,
		},
		{
			name: "empty",
			in:   "   ",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, repaired := RepairTruncated(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.repaired, repaired)
			if tt.repaired {
				assert.True(t, json.Valid([]byte(got)), "repaired text must parse: %s", got)
			}
		})
	}
}

func TestRepairTruncated_KeepsEveryCompleteRecord(t *testing.T) {
	full := `{"contacts":[{"name":"A","email":"a@x.com"},{"name":"B","email":"b@x.com"},{"name":"C","email":"c@x.com"}]}`

	// Every prefix that ends inside the third record must keep the first two.
	third := len(`{"contacts":[{"name":"A","email":"a@x.com"},{"name":"B","email":"b@x.com"},`)
	for cut := third + 1; cut < len(full)-3; cut++ {
		got, repaired := RepairTruncated(full[:cut])
		require.True(t, repaired, "cut=%d", cut)

		var doc struct {
			Contacts []map[string]string `json:"contacts"`
		}
		require.NoError(t, json.Unmarshal([]byte(got), &doc), "cut=%d text=%s", cut, got)
		require.GreaterOrEqual(t, len(doc.Contacts), 2, "cut=%d", cut)
		assert.Equal(t, "A", doc.Contacts[0]["name"])
		assert.Equal(t, "B", doc.Contacts[1]["name"])
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"```json\n{\"contacts\":[]}\n```", `{"contacts":[]}`},
		{"```\n{\"contacts\":[]}\n```", `{"contacts":[]}`},
		{`{"contacts":[]}`, `{"contacts":[]}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tt := range tests {
		if got := StripCodeFence(tt.in); got != tt.want {
			t.Errorf("StripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSnippetAround(t *testing.T) {
	s := make([]byte, 200)
	for i := range s {
		s[i] = 'x'
	}
	assert.Len(t, snippetAround(string(s), 100), 100)
	assert.Len(t, snippetAround(string(s), 10), 60)
	assert.Empty(t, snippetAround(string(s), -1))
}
