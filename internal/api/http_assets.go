package api

import (
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// The example asset catalog is a plain directory tree:
//
//	<assets>/clothes/<category>/<index>_<view>.<ext>
//	<assets>/people/<id>_<kind>.<ext>
//	<assets>/avatars/<id>.<ext>
var assetExtensions = []string{"jpg", "jpeg", "png", "webp"}

// validSegment rejects path segments that could escape the asset directory.
func validSegment(value string) bool {
	if value == "" || value == "." || value == ".." {
		return false
	}
	return !strings.ContainsAny(value, `/\`)
}

// ListClothingCategories handles GET /assets/clothes/categories.
func (h *HTTPHandler) ListClothingCategories(c *gin.Context) {
	entries, err := os.ReadDir(filepath.Join(h.assetsDir, "clothes"))
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusOK, gin.H{"categories": []string{}})
			return
		}
		InternalError(c, "failed to read clothing catalog")
		return
	}

	categories := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			categories = append(categories, entry.Name())
		}
	}
	sort.Strings(categories)
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// ListClothingItems handles GET /assets/clothes/:category.
func (h *HTTPHandler) ListClothingItems(c *gin.Context) {
	category := c.Param("category")
	if !validSegment(category) {
		NotFound(c, "unknown category")
		return
	}

	entries, err := os.ReadDir(filepath.Join(h.assetsDir, "clothes", category))
	if err != nil {
		if os.IsNotExist(err) {
			NotFound(c, "unknown category")
			return
		}
		InternalError(c, "failed to read clothing catalog")
		return
	}

	indexSet := make(map[int]struct{})
	viewSet := make(map[string]struct{})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		parts := strings.SplitN(name, "_", 2)
		if len(parts) != 2 {
			continue
		}
		index, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}
		indexSet[index] = struct{}{}
		viewSet[parts[1]] = struct{}{}
	}

	indices := make([]int, 0, len(indexSet))
	for index := range indexSet {
		indices = append(indices, index)
	}
	sort.Ints(indices)

	views := make([]string, 0, len(viewSet))
	for view := range viewSet {
		views = append(views, view)
	}
	sort.Strings(views)

	c.JSON(http.StatusOK, gin.H{
		"category": category,
		"indices":  indices,
		"views":    views,
	})
}

// GetClothingImage handles GET /assets/clothes/:category/:index/:view.
func (h *HTTPHandler) GetClothingImage(c *gin.Context) {
	category := c.Param("category")
	view := c.Param("view")
	if !validSegment(category) || !validSegment(view) {
		NotFound(c, "unknown garment")
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		NotFound(c, "unknown garment")
		return
	}

	base := filepath.Join(h.assetsDir, "clothes", category, strconv.Itoa(index)+"_"+view)
	h.serveAssetFile(c, base, "unknown garment")
}

// GetPersonImage handles GET /assets/people/:id/:kind.
func (h *HTTPHandler) GetPersonImage(c *gin.Context) {
	id := c.Param("id")
	kind := c.Param("kind")
	if !validSegment(id) || !validSegment(kind) {
		NotFound(c, "unknown person photo")
		return
	}

	base := filepath.Join(h.assetsDir, "people", id+"_"+kind)
	h.serveAssetFile(c, base, "unknown person photo")
}

// GetAvatarImage handles GET /assets/avatars/:id.
func (h *HTTPHandler) GetAvatarImage(c *gin.Context) {
	id := c.Param("id")
	if !validSegment(id) {
		NotFound(c, "unknown avatar")
		return
	}

	base := filepath.Join(h.assetsDir, "avatars", id)
	h.serveAssetFile(c, base, "unknown avatar")
}

// serveAssetFile tries the known image extensions against the base path and
// serves the first match.
func (h *HTTPHandler) serveAssetFile(c *gin.Context, base, notFoundMessage string) {
	for _, ext := range assetExtensions {
		path := base + "." + ext
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			c.File(path)
			return
		}
	}
	NotFound(c, notFoundMessage)
}
