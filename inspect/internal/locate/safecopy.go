package locate

// Placeholders substituted for non-primitive prop/state values. The
// descriptor must survive structured cloning and must never reference the
// target's runtime memory, so anything that is not a JSON primitive is
// collapsed to an opaque tag.
const (
	PlaceholderArray    = "[Array]"
	PlaceholderObject   = "[Object]"
	PlaceholderFunction = "[Function]"
)

// SanitizeValues applies the safe-copy rule to a decoded prop/state map:
// strings, numbers, booleans and nil pass through verbatim; arrays and
// objects become placeholders. Function values cannot survive JSON at all,
// so the probe tags them as "[Function]" before posting — that string is a
// primitive and passes through here unchanged.
func SanitizeValues(values map[string]any) map[string]any {
	if values == nil {
		return nil
	}
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = sanitizeValue(v)
	}
	return out
}

func sanitizeValue(v any) any {
	switch v.(type) {
	case nil, string, bool, float64, int, int64:
		return v
	case []any:
		return PlaceholderArray
	case map[string]any:
		return PlaceholderObject
	default:
		// Anything else got past JSON decoding in a shape we don't
		// recognise as primitive; treat it as an opaque object.
		return PlaceholderObject
	}
}
