package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeToken(t *testing.T) {
	entryDate := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	createdAt := time.Date(2025, 3, 14, 15, 9, 26, 535897000, time.UTC)

	token := EncodeToken(entryDate, createdAt)
	require.NotEmpty(t, token)

	gotDate, gotCreated, err := DecodeToken(token)
	require.NoError(t, err)
	assert.True(t, entryDate.Equal(gotDate))
	assert.True(t, createdAt.Equal(gotCreated))
}

func TestDecodeTokenInvalidBase64(t *testing.T) {
	_, _, err := DecodeToken("not-base64!!!")
	assert.Error(t, err)
}

func TestDecodeTokenMissingSeparator(t *testing.T) {
	_, _, err := DecodeToken("MjAyNS0wMy0xNFQwMDowMDowMFo=")
	assert.Error(t, err)
}
