package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashKeyIsContentAddressed(t *testing.T) {
	hash1, key1 := HashKey("property-images", []byte("stessi byte"), ".jpg")
	hash2, key2 := HashKey("property-images", []byte("stessi byte"), ".jpg")
	assert.Equal(t, hash1, hash2, "same bytes, same hash")
	assert.Equal(t, key1, key2)
	assert.Len(t, hash1, 64)
	assert.Equal(t, "property-images/"+hash1+".jpg", key1)

	hash3, _ := HashKey("property-images", []byte("byte diversi"), ".jpg")
	assert.NotEqual(t, hash1, hash3)
}

func TestHashKeySeparatesEntityFolders(t *testing.T) {
	// Property and post images refcount deletes within their own table,
	// so the same bytes must never share one object across entity types.
	hashProp, keyProp := HashKey("property-images", []byte("stessi byte"), ".jpg")
	hashPost, keyPost := HashKey("post-images", []byte("stessi byte"), ".jpg")
	assert.Equal(t, hashProp, hashPost)
	assert.NotEqual(t, keyProp, keyPost)
}
