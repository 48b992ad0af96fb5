package image

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
)

const MaxImageSize = 10 * 1024 * 1024 // 10MB

var (
	ErrFileSize     = errors.New("file size exceeds limit of 10MB")
	ErrFileType     = errors.New("invalid file type. Allowed types: JPG, PNG, WEBP")
	ErrFileRequired = errors.New("no file provided")
)

var AllowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

func Validate(file *multipart.FileHeader) error {
	if file == nil {
		return ErrFileRequired
	}
	if file.Size > MaxImageSize {
		return ErrFileSize
	}
	ext := filepath.Ext(strings.ToLower(file.Filename))
	if !AllowedExtensions[ext] {
		return ErrFileType
	}
	return nil
}

// Process decodes, recompresses and re-encodes an uploaded image.
// Returns the encoded bytes, the extension and the content type.
func Process(file *multipart.FileHeader) ([]byte, string, string, error) {
	src, err := file.Open()
	if err != nil {
		return nil, "", "", fmt.Errorf("could not open file: %v", err)
	}
	defer src.Close()

	img, format, err := image.Decode(src)
	if err != nil {
		return nil, "", "", fmt.Errorf("could not decode image: %v", err)
	}

	buf := new(bytes.Buffer)

	switch format {
	case "jpeg":
		err = jpeg.Encode(buf, img, &jpeg.Options{Quality: 85})
	case "png":
		err = png.Encode(buf, img)
	case "webp":
		err = webp.Encode(buf, img, &webp.Options{Lossless: false, Quality: 85})
	default:
		return nil, "", "", fmt.Errorf("unsupported image format: %s", format)
	}

	if err != nil {
		return nil, "", "", fmt.Errorf("could not encode image: %v", err)
	}

	return buf.Bytes(), "." + format, "image/" + format, nil
}
