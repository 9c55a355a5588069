package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanString(t *testing.T) {
	assert.Equal(t, "Awe", CleanString("  Awe\t"))
	assert.Equal(t, "awe", CleanString("  Awe\n", true))
}

func TestParseKeyValues(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want map[string]string
	}{
		{name: "empty", in: "", want: map[string]string{}},
		{name: "one", in: "9:agri", want: map[string]string{"9": "agri"}},
		{name: "many", in: "9:agri, 10 : higher_math", want: map[string]string{"9": "agri", "10": "higher_math"}},
		{name: "skips malformed", in: "9,10:,:x,11:bio", want: map[string]string{"11": "bio"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseKeyValues(tt.in))
		})
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError(nil, FieldError{Field: "year", Error: "invalid"})
	assert.Equal(t, "", err.Error())

	verr, ok := err.(*ValidationError)
	if assert.True(t, ok) {
		assert.Equal(t, []FieldError{{Field: "year", Error: "invalid"}}, verr.Fields)
	}
}

func TestIsShutdown(t *testing.T) {
	assert.True(t, IsShutdown(NewShutdownError("integrity")))
	assert.False(t, IsShutdown(NewValidationError(nil)))
}

func TestOrderByClause(t *testing.T) {
	allowed := map[string]string{"year": "r.year", "created_at": "r.created_at"}
	tests := []struct {
		name      string
		orderings []DBOrdering
		want      string
	}{
		{name: "none", want: " ORDER BY r.created_at DESC"},
		{name: "unknown dropped", orderings: []DBOrdering{{Field: "password"}}, want: " ORDER BY r.created_at DESC"},
		{
			name:      "mapped",
			orderings: []DBOrdering{{Field: "year", Ascending: true}, {Field: "created_at"}},
			want:      " ORDER BY r.year ASC, r.created_at DESC",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OrderByClause(tt.orderings, allowed, "r.created_at DESC"))
		})
	}
}
