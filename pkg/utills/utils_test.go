package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandomString(t *testing.T) {
	a := RandomString(8)
	b := RandomString(8)
	assert.Len(t, a, 8)
	assert.NotEqual(t, a, b)
	for _, r := range a {
		assert.Contains(t, alphanumeric, string(r))
	}
}

func TestValidUsername(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"ab", true},
		{"a", false},
		{"user_01", true},
		{"has space", false},
		{"zażółć", false},
		{"abcdefghijklmnopqrstuvwxyz1234", true},
		{"abcdefghijklmnopqrstuvwxyz12345", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidUsername(tt.name))
		})
	}
}

func TestValidPassword(t *testing.T) {
	assert.False(t, ValidPassword("12345"))
	assert.True(t, ValidPassword("123456"))
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("jan@example.pl"))
	assert.False(t, ValidEmail("jan@localhost"))
	assert.False(t, ValidEmail("@example.pl"))
	assert.False(t, ValidEmail("jan@"))
	assert.False(t, ValidEmail("jan kowalski@example.pl"))
}

func TestEmailDomain(t *testing.T) {
	assert.Equal(t, "example.pl", EmailDomain("jan@example.pl"))
	assert.Equal(t, "", EmailDomain("nope"))
}
