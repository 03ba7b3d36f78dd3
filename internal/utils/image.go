package utils

import (
	"fmt"
	"net/http"
	"path"

	"github.com/google/uuid"
)

// RecipeImageDir is the key prefix under which recipe images are stored
const RecipeImageDir = "uploads/recipe"

// imageTypes maps accepted sniffed content types to file extensions
var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// GenerateRecipeImageKey returns a fresh storage key for a recipe image with the given extension
func GenerateRecipeImageKey(ext string) string {
	return path.Join(RecipeImageDir, uuid.New().String()+ext)
}

// DetectImage sniffs the leading bytes of an upload and returns its content
// type and canonical extension
func DetectImage(head []byte) (contentType, ext string, err error) {
	if len(head) == 0 {
		return "", "", fmt.Errorf("empty file")
	}
	contentType = http.DetectContentType(head)
	ext, ok := imageTypes[contentType]
	if !ok {
		return "", "", fmt.Errorf("unsupported image type %s", contentType)
	}
	return contentType, ext, nil
}
