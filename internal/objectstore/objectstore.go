// Package objectstore holds the image stores products upload to. Both
// implementations satisfy domain.ImageStore.
package objectstore

import (
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"
)

// ProductImageKey names an uploaded product image. The millisecond prefix
// keeps repeated uploads of the same file apart.
func ProductImageKey(now time.Time, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if name == "." || name == "/" || name == ".." {
		name = "image"
	}
	return "products/" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + name
}

// escapeKey percent-encodes each path segment of key for use in a URL.
func escapeKey(key string) string {
	return (&url.URL{Path: key}).EscapedPath()
}
