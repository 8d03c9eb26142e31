package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{
			name: "plain fields",
			line: "a,b,c",
			want: []string{"a", "b", "c"},
		},
		{
			name: "quoted field with embedded comma",
			line: `a,"b,c",d`,
			want: []string{"a", "b,c", "d"},
		},
		{
			name: "fully quoted fields",
			line: `"one","two"`,
			want: []string{"one", "two"},
		},
		{
			name: "empty fields preserved",
			line: "a,,c,",
			want: []string{"a", "", "c", ""},
		},
		{
			name: "single field no separator",
			line: "solo",
			want: []string{"solo"},
		},
		{
			name: "fields trimmed",
			line: "  a , b ,c  ",
			want: []string{"a", "b", "c"},
		},
		{
			name: "unterminated quote consumes rest of line",
			line: `"unterminated,field`,
			want: []string{"unterminated,field"},
		},
		{
			name: "empty line yields one empty field",
			line: "",
			want: []string{""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLine(tt.line))
		})
	}
}

func TestLooksLikeCSV(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{name: "header plus row", body: "a,b\n1,2", want: true},
		{name: "missing newline", body: "a,b,c", want: false},
		{name: "missing comma", body: "a\nb\nc", want: false},
		{name: "html error page", body: "<html><body>a,b\n1,2</body>", want: false},
		{name: "empty", body: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LooksLikeCSV(tt.body))
		})
	}
}

func TestLooksLikeHTML(t *testing.T) {
	assert.True(t, LooksLikeHTML("<html lang=\"en\">"))
	assert.False(t, LooksLikeHTML("Session ID,Customer\n1,Ada"))
}
