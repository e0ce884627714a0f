package survey

import (
	"fmt"
	"strings"
)

// AssetLocator maps an image identifier to the URL of its picture.
// Identifiers are zero-padded to Width digits: "7" → "<base>/007.jpg".
type AssetLocator struct {
	BaseURL string
	Width   int
	Ext     string
}

// DefaultAssetLocator points at the published image set.
var DefaultAssetLocator = AssetLocator{
	BaseURL: "https://raw.githubusercontent.com/yslee11/hy_urban/main/images",
	Width:   3,
	Ext:     ".jpg",
}

// URL returns the resource locator for imageID.
func (a AssetLocator) URL(imageID string) string {
	id := imageID
	if pad := a.Width - len(id); pad > 0 {
		id = strings.Repeat("0", pad) + id
	}
	return fmt.Sprintf("%s/%s%s", strings.TrimRight(a.BaseURL, "/"), id, a.Ext)
}
