package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// ParseKeyValues parses "k1:v1,k2:v2" into a map. Blank pairs are skipped; keys and values are cleaned.
func ParseKeyValues(s string) map[string]string {
	kv := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			continue
		}
		k, v := CleanString(parts[0]), CleanString(parts[1])
		if k == "" || v == "" {
			continue
		}
		kv[k] = v
	}
	return kv
}

// Getwd finds the project root: the closest parent directory holding go.mod.
// go-test changes the working directory to the package being tested, so the cwd alone is not enough.
// Falls back to the cwd when no go.mod is found (e.g. a deployed binary).
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	currDir := wd
	for {
		if fi, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil && !fi.IsDir() {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == string(os.PathSeparator) || newDir == currDir {
			return wd
		}
		currDir = newDir
	}
}
