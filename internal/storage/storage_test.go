package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	key := ObjectKey("sitrack-reports", "RPT001", "Surat Masuk (final).pdf")

	assert.True(t, strings.HasPrefix(key, "sitrack-reports/RPT001/"))
	assert.True(t, strings.HasSuffix(key, "-Surat_Masuk__final_.pdf"))
	assert.NotContains(t, key, " ")

	// Keys are unique per call even for the same file name.
	other := ObjectKey("sitrack-reports", "RPT001", "Surat Masuk (final).pdf")
	assert.NotEqual(t, key, other)
}

func TestObjectKeyStripsPathTraversal(t *testing.T) {
	key := ObjectKey("p", "RPT001", "../../etc/passwd")
	assert.True(t, strings.HasPrefix(key, "p/RPT001/"))
	assert.True(t, strings.HasSuffix(key, "-passwd"))

	key = ObjectKey("p", "RPT001", `..\..\boot.ini`)
	assert.True(t, strings.HasSuffix(key, "-boot.ini"))
}

func TestObjectKeyEmptyName(t *testing.T) {
	key := ObjectKey("p", "RPT001", "")
	assert.True(t, strings.HasSuffix(key, "-file"))
}

func TestDisabledStorage(t *testing.T) {
	var s ObjectStorage = Disabled{}

	_, err := s.Put(context.Background(), "k", strings.NewReader("x"), "")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = s.PresignGet(context.Background(), "k", 0)
	assert.ErrorIs(t, err, ErrNotConfigured)

	assert.ErrorIs(t, s.Delete(context.Background(), "k"), ErrNotConfigured)
}
