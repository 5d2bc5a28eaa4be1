// # internal/grammar/loader.go
package grammar

import (
	"embed"
	"fmt"
	"sync"

	"pyoutline/internal/shared/observability"
	"pyoutline/internal/token"
)

//go:embed resources
var resources embed.FS

// UnsupportedVersionError reports that no grammar resource exists for the
// requested dialect/version pair. It fails the request, not the process.
type UnsupportedVersionError struct {
	Dialect Dialect
	Version token.Version
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("%s version %s is currently not supported", e.Dialect, e.Version)
}

var (
	cacheMu sync.Mutex
	cache   = map[string]*Grammar{}
)

// resourcePath derives the grammar file location from dialect and
// major.minor version.
func resourcePath(d Dialect, v token.Version) string {
	return fmt.Sprintf("resources/%s/grammar%d%d.txt", d, v.Major, v.Minor)
}

// Load returns the grammar for a dialect/version pair. Successful loads are
// cached per resolved resource path for the process lifetime; concurrent
// callers for the same key get the same instance, and a missing resource
// never leaves a cache entry behind.
func Load(d Dialect, v token.Version) (*Grammar, error) {
	path := resourcePath(d, v)

	cacheMu.Lock()
	defer cacheMu.Unlock()
	if g, ok := cache[path]; ok {
		return g, nil
	}

	data, err := resources.ReadFile(path)
	if err != nil {
		return nil, &UnsupportedVersionError{Dialect: d, Version: v}
	}
	productions, keywords := parseBNF(string(data))
	g := &Grammar{
		Dialect:     d,
		Version:     v,
		productions: productions,
		keywords:    keywords,
		nodeMap:     newNodeMap(d),
		defaultNode: defaultConstructor,
		leafMap:     newLeafMap(),
	}
	cache[path] = g
	observability.GrammarCacheSize.Set(float64(len(cache)))
	return g, nil
}
