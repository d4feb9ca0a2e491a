package profile

import (
	"fmt"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Value is an opaque, totally-ordered observation unit fed to the profiler.
// Row sources wrap their native column values (int64, float64, string,
// bool, time.Time, ...) into Value; the engine never interprets a Value's
// concrete type beyond comparing it with Compare.
type Value interface{}

// nullSentinel is the concrete type of the single process-wide null marker.
// Its zero value is the only instance ever constructed.
type nullSentinel struct{}

// Null is the distinguished value used to mark SQL NULL in row tuples.
var Null Value = nullSentinel{}

// IsNull reports whether v is the null sentinel.
func IsNull(v Value) bool {
	_, ok := v.(nullSentinel)
	return ok
}

var rootCollator = collate.New(language.Und)

// Compare orders two non-null Values, returning <0, 0, or >0. Numeric
// types compare by value, strings compare under root collation (stable,
// locale-independent ordering for valueSet output), and mismatched or
// unrecognized types fall back to comparing their default string form —
// mirroring the teacher's histogram value comparator.
func Compare(a, b Value) int {
	if an, aok := toFloat64(a); aok {
		if bn, bok := toFloat64(b); bok {
			switch {
			case an < bn:
				return -1
			case an > bn:
				return 1
			default:
				return 0
			}
		}
	}
	if as, aok := a.(string); aok {
		if bs, bok := b.(string); bok {
			return rootCollator.CompareString(as, bs)
		}
	}
	if ab, aok := a.(bool); aok {
		if bb, bok := b.(bool); bok {
			switch {
			case ab == bb:
				return 0
			case !ab:
				return -1
			default:
				return 1
			}
		}
	}
	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

func toFloat64(v Value) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// sortValues sorts a slice of non-null Values in place using Compare.
func sortValues(vs []Value) {
	sort.Slice(vs, func(i, j int) bool { return Compare(vs[i], vs[j]) < 0 })
}

// tupleKey builds a canonical dedup key for a composite collector's
// observed tuple. It only needs to distinguish distinct tuples, not order
// them, so a type-tagged string join is sufficient.
func tupleKey(values []Value) string {
	var buf []byte
	for i, v := range values {
		if i > 0 {
			buf = append(buf, '\x1f')
		}
		buf = append(buf, fmt.Sprintf("%T:%v", v, v)...)
	}
	return string(buf)
}
