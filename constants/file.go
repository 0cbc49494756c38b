package constants

import "strings"

// CatalogFormats holds the supported formats for the service catalog source.
var CatalogFormats = []string{"XLSX", "JSON"}

// AllowedCatalogExtensions holds the file extensions the catalog loader accepts.
var AllowedCatalogExtensions = map[string]struct{}{
	"xlsx": {},
	"json": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
