package dialect

import "github.com/roach88/wherec/internal/queryir"

// NewPostgres returns the PostgreSQL dialect: double-quoted identifiers,
// $n placeholders, JSON arrows, arrays and ranges.
func NewPostgres() Dialect {
	return &dialect{
		name:           Postgres,
		identQuote:     '"',
		numberedParams: true,
		concatFunc:     true,
		jsonStyle:      jsonArrows,
		features: map[Feature]bool{
			FeatureJSON:   true,
			FeatureArrays: true,
			FeatureRanges: true,
		},
		operators: withOperators(map[queryir.Op]string{
			queryir.OpILike:         "ILIKE",
			queryir.OpNotILike:      "NOT ILIKE",
			queryir.OpRegexp:        "~",
			queryir.OpNotRegexp:     "!~",
			queryir.OpIRegexp:       "~*",
			queryir.OpNotIRegexp:    "!~*",
			queryir.OpMatch:         "@@",
			queryir.OpOverlap:       "&&",
			queryir.OpContains:      "@>",
			queryir.OpContained:     "<@",
			queryir.OpAdjacent:      "-|-",
			queryir.OpStrictLeft:    "<<",
			queryir.OpStrictRight:   ">>",
			queryir.OpNoExtendRight: "&<",
			queryir.OpNoExtendLeft:  "&>",
			queryir.OpAnyKeyExists:  "?|",
			queryir.OpAllKeysExist:  "?&",
		}),
	}
}

// NewSQLite returns the SQLite dialect: backtick identifiers, ? placeholders,
// numeric booleans and the ->/->> JSON operators with $-paths.
func NewSQLite() Dialect {
	return &dialect{
		name:            SQLite,
		identQuote:      '`',
		numericBooleans: true,
		jsonStyle:       jsonArrowsPath,
		features:        map[Feature]bool{FeatureJSON: true},
		operators:       withOperators(nil),
	}
}

// NewMySQL returns the MySQL dialect: backtick identifiers, backslash string
// escapes, REGEXP and json_extract.
func NewMySQL() Dialect {
	return &dialect{
		name:            MySQL,
		identQuote:      '`',
		backslashEscape: true,
		concatFunc:      true,
		jsonStyle:       jsonExtractFunc,
		features:        map[Feature]bool{FeatureJSON: true},
		operators: withOperators(map[queryir.Op]string{
			queryir.OpRegexp:    "REGEXP",
			queryir.OpNotRegexp: "NOT REGEXP",
		}),
	}
}

// NewANSI returns a conservative standard SQL dialect with no JSON, array or
// range support.
func NewANSI() Dialect {
	return &dialect{
		name:       ANSI,
		identQuote: '"',
		features:   map[Feature]bool{},
		operators: withOperators(map[queryir.Op]string{
			queryir.OpNe: "<>",
		}),
	}
}
