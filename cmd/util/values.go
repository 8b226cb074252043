package util

import (
	"fmt"
	"github.com/ValentinKolb/dRPC/lib/registry"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// ParseValue converts a command line argument to an object of a built-in
// type:
//
//	null          -> nil
//	true, false   -> bool
//	i:<n>         -> int32
//	l:<n>         -> int64
//	d:<x>         -> float64
//	s:<text>      -> string (for text that would otherwise be parsed)
//	anything else -> string
func ParseValue(arg string) (any, error) {
	switch arg {
	case "null":
		return nil, nil
	case "true":
		return true, nil
	case "false":
		return false, nil
	}

	prefix, rest, found := strings.Cut(arg, ":")
	if !found {
		return arg, nil
	}

	switch prefix {
	case "i":
		v, err := strconv.ParseInt(rest, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid int32 %q: %w", rest, err)
		}
		return int32(v), nil
	case "l":
		v, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid int64 %q: %w", rest, err)
		}
		return v, nil
	case "d":
		v, err := strconv.ParseFloat(rest, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float64 %q: %w", rest, err)
		}
		return v, nil
	case "s":
		return rest, nil
	default:
		return arg, nil
	}
}

// ParseValues parses every argument with ParseValue
func ParseValues(args []string) ([]any, error) {
	values := make([]any, len(args))
	for i, arg := range args {
		v, err := ParseValue(arg)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// FormatValue renders an object graph on a single line, using the notation
// of ParseValue for numbers. References back into the graph currently being
// printed are shown as <cycle>.
func FormatValue(v any) string {
	var sb strings.Builder
	formatValue(&sb, v, make(map[uintptr]bool))
	return sb.String()
}

func formatValue(sb *strings.Builder, v any, path map[uintptr]bool) {
	switch t := v.(type) {
	case nil:
		sb.WriteString("null")
	case string:
		sb.WriteString(strconv.Quote(t))
	case bool:
		sb.WriteString(strconv.FormatBool(t))
	case int32:
		sb.WriteString("i:" + strconv.FormatInt(int64(t), 10))
	case int64:
		sb.WriteString("l:" + strconv.FormatInt(t, 10))
	case float64:
		sb.WriteString("d:" + strconv.FormatFloat(t, 'g', -1, 64))
	case *registry.ArrayList:
		if t == nil {
			sb.WriteString("null")
			return
		}
		if enter(sb, reflect.ValueOf(t).Pointer(), path) {
			return
		}
		defer delete(path, reflect.ValueOf(t).Pointer())

		sb.WriteString("[")
		for i, item := range *t {
			if i > 0 {
				sb.WriteString(", ")
			}
			formatValue(sb, item, path)
		}
		sb.WriteString("]")
	case registry.StringMap:
		if enter(sb, reflect.ValueOf(t).Pointer(), path) {
			return
		}
		defer delete(path, reflect.ValueOf(t).Pointer())

		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteString("{")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(strconv.Quote(k))
			sb.WriteString(": ")
			formatValue(sb, t[k], path)
		}
		sb.WriteString("}")
	case *registry.RemoteException:
		sb.WriteString("exception(" + t.Error() + ")")
	default:
		fmt.Fprintf(sb, "%v", t)
	}
}

// enter marks p as being printed. It writes <cycle> and returns true if p
// already is.
func enter(sb *strings.Builder, p uintptr, path map[uintptr]bool) bool {
	if path[p] {
		sb.WriteString("<cycle>")
		return true
	}
	path[p] = true
	return false
}
