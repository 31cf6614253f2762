package emission

import (
	"sort"
	"strings"

	"github.com/gonewx/voxelfx/internal/formula"
)

// Cache memoizes expression compilation. Failed compiles are cached as nil
// so repeated lookups of an unsupported source stay cheap and silent.
// Correctness never depends on the cache; it only avoids recompilation.
type Cache struct {
	entries map[string]*formula.Compiled
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]*formula.Compiled)}
}

// Get returns the compiled form of src under the given block properties
// and loop-index token, compiling on first use. A nil result means the
// source is outside the supported grammar.
func (c *Cache) Get(src string, props map[string]string, loopVar string) *formula.Compiled {
	key := cacheKey(src, props, loopVar)
	if compiled, ok := c.entries[key]; ok {
		return compiled
	}
	compiled := formula.Compile(src, props, loopVar)
	c.entries[key] = compiled
	return compiled
}

// Len returns the number of cached entries, failures included.
func (c *Cache) Len() int {
	return len(c.entries)
}

// cacheKey folds the compile inputs into one string. Block properties
// participate because the same source resolves differently under different
// property maps.
func cacheKey(src string, props map[string]string, loopVar string) string {
	if len(props) == 0 && loopVar == "" {
		return src
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(src)
	b.WriteByte(0)
	b.WriteString(loopVar)
	for _, k := range keys {
		b.WriteByte(0)
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(props[k])
	}
	return b.String()
}
