package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"  Spaces  everywhere  ", "spaces-everywhere"},
		{"Go 1.25", "go-1-25"},
		{"C++ & Rust!", "c-rust"},
		{"UPPER", "upper"},
		{"우리말 태그", "우리말-태그"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Slugify(tc.in), "input %q", tc.in)
	}
}
