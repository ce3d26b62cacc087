package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeAttachment(t *testing.T) {
	got := EncodeAttachment([]byte("hello"))

	assert.True(t, strings.HasPrefix(got, "data:application/octet-stream;base64,"))

	back, err := DecodeAttachment(got)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), back)
}

func TestDecodeAttachment_OtherMarker(t *testing.T) {
	back, err := DecodeAttachment("data:image/png;base64,aGk=")
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), back)
}

func TestDecodeAttachment_Invalid(t *testing.T) {
	_, err := DecodeAttachment("data:application/octet-stream;base64,!!!")
	assert.Error(t, err)
}
