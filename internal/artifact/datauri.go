package artifact

import (
	"encoding/base64"
	"errors"
	"strings"
)

// DecodeDataURI splits a base64 data URI into its payload and content type.
// The content type falls back to image/png when the URI omits it.
func DecodeDataURI(uri string) (data []byte, contentType string, err error) {
	if !strings.HasPrefix(uri, "data:") {
		return nil, "", errors.New("not a data uri")
	}
	comma := strings.Index(uri, ",")
	if comma < 0 {
		return nil, "", errors.New("data uri missing payload")
	}
	meta := uri[len("data:"):comma]
	if !strings.Contains(meta, "base64") {
		return nil, "", errors.New("data uri is not base64 encoded")
	}
	contentType = meta
	if semi := strings.Index(meta, ";"); semi >= 0 {
		contentType = meta[:semi]
	}
	if contentType == "" {
		contentType = "image/png"
	}
	data, err = base64.StdEncoding.DecodeString(uri[comma+1:])
	if err != nil {
		return nil, "", err
	}
	return data, contentType, nil
}
