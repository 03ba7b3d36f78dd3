package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestGenerateRecipeImageKey(t *testing.T) {
	a := GenerateRecipeImageKey(".png")
	b := GenerateRecipeImageKey(".png")

	assert.True(t, strings.HasPrefix(a, RecipeImageDir+"/"))
	assert.True(t, strings.HasSuffix(a, ".png"))
	assert.NotEqual(t, a, b)
}

func TestDetectImage(t *testing.T) {
	contentType, ext, err := DetectImage(pngHeader)
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, ".png", ext)

	_, _, err = DetectImage([]byte("not an image at all"))
	assert.Error(t, err)

	_, _, err = DetectImage(nil)
	assert.Error(t, err)
}
