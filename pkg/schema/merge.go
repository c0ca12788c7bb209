package schema

// Merge copies src into dst. Maps present on both sides are merged
// recursively; any other value in src replaces the one in dst.
func Merge(dst, src *Map) *Map {
	src.Range(func(k string, v Node) bool {
		if incoming, ok := v.(*Map); ok {
			if existing, ok := dst.values[k].(*Map); ok {
				Merge(existing, incoming)
				return true
			}
		}
		dst.Set(k, v)
		return true
	})
	return dst
}
