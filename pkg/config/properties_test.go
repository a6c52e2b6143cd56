package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/conduit/pkg/errors"
)

func TestParseProperties(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Properties
	}{
		{
			name:  "key value pairs with bare key",
			input: "a=1;b=2;c",
			want:  Properties{"a": "1", "b": "2", "c": ""},
		},
		{
			name:  "empty string",
			input: "",
			want:  Properties{},
		},
		{
			name:  "single pair",
			input: "sslmode=require",
			want:  Properties{"sslmode": "require"},
		},
		{
			name:  "trailing separator",
			input: "a=1;b=2;",
			want:  Properties{"a": "1", "b": "2"},
		},
		{
			name:  "duplicate keys overwrite",
			input: "a=1;a=2;a=3",
			want:  Properties{"a": "3"},
		},
		{
			name:  "value containing equals",
			input: "query=select 1=1",
			want:  Properties{"query": "select 1=1"},
		},
		{
			name:  "empty value after equals",
			input: "a=;b=2",
			want:  Properties{"a": "", "b": "2"},
		},
		{
			name:  "consecutive separators",
			input: "a=1;;b=2",
			want:  Properties{"a": "1", "b": "2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseProperties(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseProperties_EmptyKey(t *testing.T) {
	for _, input := range []string{"=value", "a=1;=2", ";="} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseProperties(input)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
		})
	}
}

func TestProperties_Clone(t *testing.T) {
	props := Properties{"a": "1", "b": "2"}

	clone := props.Clone()
	clone["a"] = "changed"
	clone["c"] = "3"

	assert.Equal(t, "1", props["a"])
	assert.NotContains(t, props, "c")

	var nilProps Properties
	assert.Nil(t, nilProps.Clone())
}

func TestProperties_Merge(t *testing.T) {
	props := Properties{"user": "explicit"}
	props.Merge(Properties{"user": "injected", "password": "secret"})

	// Existing keys win over merged entries
	assert.Equal(t, "explicit", props["user"])
	assert.Equal(t, "secret", props["password"])
}

func TestProperties_String_RedactsPassword(t *testing.T) {
	props := Properties{
		"user":     "app",
		"password": "secret",
		"sslmode":  "require",
	}

	s := props.String()
	assert.Equal(t, "password=****;sslmode=require;user=app", s)
	assert.NotContains(t, s, "secret")
}
