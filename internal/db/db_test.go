package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitInterests(t *testing.T) {
	likes, dislikes := splitInterests([]interestRow{
		{Kind: InterestLike, Category: "Travel"},
		{Kind: InterestDislike, Category: "Golf"},
		{Kind: InterestLike, Category: "Cooking"},
		{Kind: "unknown", Category: "Ignored"},
	})

	assert.Equal(t, []string{"Travel", "Cooking"}, likes)
	assert.Equal(t, []string{"Golf"}, dislikes)
}

func TestBuildLocation(t *testing.T) {
	city := "Austin"
	empty := ""

	assert.Nil(t, buildLocation(nil, nil, nil))
	assert.Nil(t, buildLocation(&empty, nil, &empty))

	loc := buildLocation(&city, nil, nil)
	if assert.NotNil(t, loc) {
		assert.Equal(t, "Austin", loc.City)
		assert.Equal(t, "Austin", loc.String())
	}
}

func TestNullIfEmpty(t *testing.T) {
	assert.Nil(t, nullIfEmpty(""))
	if p := nullIfEmpty("x"); assert.NotNil(t, p) {
		assert.Equal(t, "x", *p)
	}
}

func TestDerefString(t *testing.T) {
	tests := []struct {
		name     string
		input    *string
		expected string
	}{
		{"nil pointer", nil, ""},
		{"empty string", nullIfEmpty(""), ""},
		{"non-empty string", nullIfEmpty("hello"), "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := derefString(tt.input); got != tt.expected {
				t.Errorf("derefString(%v) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}
