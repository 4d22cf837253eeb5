package customfields

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOptionListUnmarshal(t *testing.T) {
	cases := map[string]OptionList{
		`["a"," b",""]`: {"a", "b"},
		`"a, b ,,c"`:    {"a", "b", "c"},
		`"  "`:          nil,
		`null`:          nil,
		`[]`:            nil,
	}
	for input, want := range cases {
		var req CreateFieldRequest
		require.NoError(t, json.Unmarshal([]byte(`{"fieldOptions":`+input+`}`), &req), input)
		require.Equal(t, want, req.Options, input)
	}
}

func TestOptionListRejectsNumbers(t *testing.T) {
	var req CreateFieldRequest
	require.Error(t, json.Unmarshal([]byte(`{"fieldOptions":42}`), &req))
}
