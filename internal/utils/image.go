package utils

import (
	"encoding/base64"
	"errors"
	"strings"
)

var ErrInvalidDataURI = errors.New("invalid data uri")

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// DecodeDataURI decodes a base64 data URI such as "data:image/png;base64,iVBO...".
// ext is empty when the content type is not a known image type.
func DecodeDataURI(s string) (data []byte, contentType string, ext string, err error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(s), "data:")
	if !ok {
		return nil, "", "", ErrInvalidDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", "", ErrInvalidDataURI
	}
	contentType, encoding, ok := strings.Cut(meta, ";")
	if !ok || encoding != "base64" || contentType == "" {
		return nil, "", "", ErrInvalidDataURI
	}

	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", "", ErrInvalidDataURI
	}
	if len(data) == 0 {
		return nil, "", "", ErrInvalidDataURI
	}
	contentType = strings.ToLower(contentType)
	return data, contentType, imageExtensions[contentType], nil
}
