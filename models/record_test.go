// ABOUTME: Tests for record helpers
// ABOUTME: Covers cloning, titles and JSON decoding of record lists
package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordCloneIsIndependent(t *testing.T) {
	r := Record{ID: "a", SharedWith: []string{"u2"}, Fields: Fields{"name": "Milk"}}

	c := r.Clone()
	c.SharedWith[0] = "u3"
	c.Fields["name"] = "Bread"

	assert.Equal(t, "u2", r.SharedWith[0])
	assert.Equal(t, "Milk", r.String("name"))
}

func TestRecordTitle(t *testing.T) {
	assert.Equal(t, "Milk", Record{Fields: Fields{"name": "Milk"}}.Title())
	assert.Equal(t, "Plan trip", Record{Fields: Fields{"title": "Plan trip"}}.Title())
	assert.Equal(t, "(untitled)", Record{Fields: Fields{"quantity": 2.0}}.Title())

	long := Record{Fields: Fields{"content": strings.Repeat("é", 60)}}.Title()
	assert.Equal(t, 48, len([]rune(long)))
	assert.True(t, strings.HasSuffix(long, "..."))
}

func TestDecodeRecords(t *testing.T) {
	records, err := DecodeRecords([]byte(`null`))
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)

	records, err = DecodeRecords([]byte(`[{"id":"a","owner":"u1","isShared":true,"fields":{"name":"Milk"}}]`))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].IsShared)
	assert.Equal(t, "Milk", records[0].String("name"))

	_, err = DecodeRecords([]byte(`{`))
	assert.Error(t, err)
}
