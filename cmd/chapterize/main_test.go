package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTagOverrides(t *testing.T) {
	tags := tagOverrides(map[string]string{
		"title":    "The Lighthouse",
		"artist":   "",
		"narrator": "J. Reader",
		"date":     "",
		"comment":  "",
	})

	assert.Equal(t, map[string]string{
		"title":    "The Lighthouse",
		"narrator": "J. Reader",
	}, tags)
}

func TestTagOverridesAllEmpty(t *testing.T) {
	assert.Nil(t, tagOverrides(map[string]string{"title": "", "artist": ""}))
}
