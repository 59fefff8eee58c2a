package toktx

import "strings"

// BaseNameNoExt returns the file name of path without directories or the
// last extension. Both / and \ separate directories.
func BaseNameNoExt(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		path = path[i+1:]
	}
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		path = path[:i]
	}

	return path
}
