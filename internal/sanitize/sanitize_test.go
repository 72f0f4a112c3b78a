package sanitize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "no markup", in: "Los personajes del cuento son:", want: "Los personajes del cuento son:"},
		{name: "paragraph tags", in: "<p>Lee el <b>texto</b>.</p>", want: "Lee el texto."},
		{name: "attributes", in: `<span style="color:red">rojo</span>`, want: "rojo"},
		{name: "spans newlines between tags", in: "<p>uno</p>\n<p>dos</p>", want: "uno\ndos"},
		{name: "unclosed tag kept", in: "a < b y c", want: "a < b y c"},
		{name: "shortest span wins", in: "x <a> y > z", want: "x  y > z"},
		{name: "malformed closing", in: "<b>x</b", want: "x</b"},
		{name: "line break tag", in: "uno<br/>dos", want: "unodos"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, String(tt.in))
		})
	}
}

func TestString_Idempotent(t *testing.T) {
	inputs := []string{
		"<p>Lee el <b>texto</b>.</p>",
		"<<b>>doble<</b>>",
		"x <a> y > z",
		"sin etiquetas",
		"<b>x</b",
	}
	for _, in := range inputs {
		once := String(in)
		assert.Equal(t, once, String(once), "input %q", in)
	}
}

func TestValue_NonTextualPassThrough(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	values := []any{nil, 42, 3.5, true, now, []string{"<b>x</b>"}}
	for _, v := range values {
		assert.Equal(t, v, Value(v))
	}
}

func TestValue_Textual(t *testing.T) {
	assert.Equal(t, "texto", Value("<i>texto</i>"))
	assert.Equal(t, "texto", Value("texto"))
}
