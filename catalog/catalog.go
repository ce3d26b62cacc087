// Package catalog lists the stickers available to clients.
package catalog

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

// WebPrefix is where the sticker directory is exposed over HTTP.
const WebPrefix = "/static/stickers/"

var imageExts = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}

type Catalog struct {
	dir string
}

func New(dir string) *Catalog {
	return &Catalog{dir: dir}
}

// List returns the web paths of every image file in the sticker directory.
// The extension match is case-insensitive. A missing or unreadable directory
// yields an empty list, not an error; nothing is cached between calls.
func (c *Catalog) List() []string {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return []string{}
	}

	images := lo.Filter(entries, func(e os.DirEntry, _ int) bool {
		return !e.IsDir() && lo.Contains(imageExts, strings.ToLower(filepath.Ext(e.Name())))
	})
	return lo.Map(images, func(e os.DirEntry, _ int) string {
		return path.Join(WebPrefix, e.Name())
	})
}
