package querysql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/wherec/internal/queryir"
)

// Attribute keys accept a small syntax on top of plain names:
//
//	$owner.team.name$    association path
//	meta.tags[0]         JSON path
//	meta.name:unquote    JSON text extraction
//	name:lower           lower(...) / upper(...)
//	age::integer         cast, chainable
//
// Keys nested under a JSON attribute use the same syntax without
// association paths.

type keySuffix struct {
	cast     string
	modifier string
}

type parsedKey struct {
	assoc    []string
	path     []queryir.PathSegment
	suffixes []keySuffix
}

// attributeKey builds the left operand for a top-level attribute key.
func (p *pass) attributeKey(key string) (queryir.Operand, error) {
	pk, err := parseKey(key, false)
	if err != nil {
		return nil, err
	}

	var left queryir.Operand
	if len(pk.assoc) > 0 {
		left = queryir.Assoc(pk.assoc...)
	} else {
		left = queryir.Attr(pk.path[0].Key)
		pk.path = pk.path[1:]
	}
	if len(pk.path) > 0 {
		left = queryir.WithPath(left, pk.path...)
	}
	return applySuffixes(key, left, pk.suffixes)
}

// nestedKey extends left with a key found under a JSON attribute.
func (p *pass) nestedKey(left queryir.Operand, key string) (queryir.Operand, error) {
	pk, err := parseKey(key, true)
	if err != nil {
		return nil, err
	}
	return applySuffixes(key, queryir.WithPath(left, pk.path...), pk.suffixes)
}

func applySuffixes(key string, left queryir.Operand, suffixes []keySuffix) (queryir.Operand, error) {
	for _, s := range suffixes {
		switch {
		case s.cast != "":
			left = queryir.Cast{Expr: left, Type: s.cast}
		case s.modifier == "unquote":
			jp, ok := left.(queryir.JSONPath)
			if !ok {
				return nil, malformed(keyNode(key), "the unquote modifier requires a JSON path")
			}
			jp.Unquote = true
			left = jp
		case s.modifier == "lower", s.modifier == "upper":
			left = queryir.Fn{Name: s.modifier, Args: []queryir.Node{left}}
		default:
			return nil, malformed(keyNode(key), "unknown attribute modifier %q", s.modifier)
		}
	}
	return left, nil
}

// parseKey splits key into association path, JSON path and suffixes.
// For a top-level key the first path segment is the attribute name.
func parseKey(key string, nested bool) (parsedKey, error) {
	var pk parsedKey
	fail := func(format string, args ...any) (parsedKey, error) {
		return parsedKey{}, malformed(keyNode(key), format, args...)
	}

	rest := key
	if strings.HasPrefix(rest, "$") {
		if nested {
			return fail("association paths are not allowed in nested keys")
		}
		end := strings.IndexByte(rest[1:], '$')
		if end < 0 {
			return fail("unsupported operator %s", key)
		}
		names := strings.Split(rest[1:end+1], ".")
		if len(names) < 2 {
			return fail("association path %s needs an association and an attribute", key)
		}
		for _, n := range names {
			if n == "" {
				return fail("empty name in association path %s", key)
			}
		}
		pk.assoc = names
		rest = rest[end+2:]
		if rest != "" && rest[0] != ':' {
			return fail("unexpected %q after association path", rest)
		}
	} else {
		var err error
		pk.path, rest, err = parsePath(rest)
		if err != nil {
			return fail("%v", err)
		}
		if len(pk.path) == 0 {
			return fail("empty attribute name")
		}
		if !nested && pk.path[0].IsIndex {
			return fail("attribute name is required before an index")
		}
	}

	for rest != "" {
		if strings.HasPrefix(rest, "::") {
			rest = rest[2:]
			end := strings.IndexByte(rest, ':')
			if end < 0 {
				end = len(rest)
			}
			typ := strings.TrimSpace(rest[:end])
			if typ == "" {
				return fail("empty cast type")
			}
			pk.suffixes = append(pk.suffixes, keySuffix{cast: typ})
			rest = rest[end:]
			continue
		}
		// rest starts with a single ':'
		rest = rest[1:]
		end := strings.IndexByte(rest, ':')
		if end < 0 {
			end = len(rest)
		}
		pk.suffixes = append(pk.suffixes, keySuffix{modifier: rest[:end]})
		rest = rest[end:]
	}
	return pk, nil
}

// parsePath reads "a.b[0].c" up to the first ':' and returns the rest.
func parsePath(s string) ([]queryir.PathSegment, string, error) {
	var path []queryir.PathSegment
	i := 0
	expectName := true
	for i < len(s) && s[i] != ':' {
		switch s[i] {
		case '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return nil, "", fmt.Errorf("unterminated index in %q", s)
			}
			idx, err := strconv.Atoi(s[i+1 : i+end])
			if err != nil || idx < 0 {
				return nil, "", fmt.Errorf("invalid index %q", s[i+1:i+end])
			}
			path = append(path, queryir.PathIndex(idx))
			i += end + 1
			expectName = false
		case '.':
			if expectName {
				return nil, "", fmt.Errorf("empty path segment in %q", s)
			}
			i++
			expectName = true
		default:
			if !expectName {
				return nil, "", fmt.Errorf("missing '.' before %q", s[i:])
			}
			j := i
			for j < len(s) && s[j] != '.' && s[j] != '[' && s[j] != ':' {
				j++
			}
			path = append(path, queryir.PathKey(s[i:j]))
			i = j
			expectName = false
		}
	}
	if expectName && len(path) > 0 {
		return nil, "", fmt.Errorf("empty path segment in %q", s)
	}
	return path, s[i:], nil
}

func keyNode(key string) queryir.Node {
	return queryir.Scalar{V: key}
}
