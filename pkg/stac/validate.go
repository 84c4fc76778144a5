package stac

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/geoexhibit/pkg/analyzer"
)

// isAbsolute reports whether an href is a fully qualified URI.
func isAbsolute(href string) bool {
	return strings.Contains(href, "://") || strings.HasPrefix(href, "/")
}

// ValidateCollection enforces the link policy on a collection document:
// every embedded link must be relative.
func ValidateCollection(c *Collection) error {
	for _, link := range c.Links {
		if isAbsolute(link.Href) {
			return fmt.Errorf("%w: collection link rel=%s href=%s", ErrAbsoluteLinkForm, link.Rel, link.Href)
		}
	}

	return nil
}

// ValidateItem enforces the per-item invariants: exactly one primary
// data asset, absolute storage URIs for every asset, relative hrefs for
// every document link, and media types agreeing with file extensions.
func ValidateItem(doc *Item, resolver *HrefResolver) error {
	primaries := 0

	for key, asset := range doc.Assets {
		if slices.Contains(asset.Roles, analyzer.RoleData) && slices.Contains(asset.Roles, analyzer.RolePrimary) {
			primaries++
		}

		jobPrefix := resolver.StoragePrefix() + "jobs/"
		if !strings.HasPrefix(asset.Href, jobPrefix) {
			if !isAbsolute(asset.Href) {
				return fmt.Errorf("%w: item %s asset %s href=%s", ErrRelativeAssetForm, doc.ID, key, asset.Href)
			}

			return fmt.Errorf("%w: item %s asset %s href=%s", ErrForeignAssetHref, doc.ID, key, asset.Href)
		}

		if canonical, known := canonicalByExt[strings.ToLower(path.Ext(asset.Href))]; known && asset.Type != canonical {
			return fmt.Errorf("item %s asset %s: media type %q disagrees with extension (want %q)",
				doc.ID, key, asset.Type, canonical)
		}
	}

	if primaries != 1 {
		return fmt.Errorf("%w: item %s has %d", ErrNoPrimary, doc.ID, primaries)
	}

	for _, link := range doc.Links {
		if isAbsolute(link.Href) {
			return fmt.Errorf("%w: item %s link rel=%s href=%s", ErrAbsoluteLinkForm, doc.ID, link.Rel, link.Href)
		}
	}

	return nil
}
