package graph

import (
	"strings"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
)

// dateTimeFormat es ISO 8601 en UTC con milisegundos: "2020-05-01T10:00:00.250Z".
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// layouts aceptados al parsear.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

var DateTime = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "DateTime",
	Description: "ISO 8601 timestamp in UTC with milliseconds. Input also accepts RFC3339 and a plain date (YYYY-MM-DD).",
	Serialize:   serializeDateTime,
	ParseValue: func(value interface{}) interface{} {
		s, ok := value.(string)
		if !ok {
			return nil
		}
		return parseDateTime(s)
	},
	ParseLiteral: func(valueAST ast.Value) interface{} {
		sv, ok := valueAST.(*ast.StringValue)
		if !ok {
			return nil
		}
		return parseDateTime(sv.Value)
	},
})

func serializeDateTime(value interface{}) interface{} {
	switch t := value.(type) {
	case time.Time:
		return t.UTC().Format(dateTimeFormat)
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.UTC().Format(dateTimeFormat)
	case string:
		return t
	}
	return nil
}

// parseDateTime trunca a milisegundos, la precisión que guardan los stores.
// Devuelve nil si no parsea; graphql-go lo reporta como argumento inválido.
func parseDateTime(s string) interface{} {
	s = strings.TrimSpace(s)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Truncate(time.Millisecond)
		}
	}
	return nil
}
