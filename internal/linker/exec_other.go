//go:build !unix

package linker

import (
	"path/filepath"
	"strings"
)

// executable approximates the execute check by extension where there is no
// permission bit to consult.
func executable(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".exe", ".bat", ".cmd", ".ps1":
		return true
	}
	return false
}
