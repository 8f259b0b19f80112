package main

import (
	"go/ast"
	"go/parser"
	"go/token"
	"regexp"
	"strconv"
	"strings"
)

var (
	sqlKeywordPattern = regexp.MustCompile(`(?i)\b(select|insert|update|delete|with|create|alter|drop)\b`)
	uuidMarkerPattern = regexp.MustCompile(`^--sql ([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})$`)
)

type violation struct {
	file    string
	name    string
	line    int
	message string
}

type statement struct {
	file   string
	name   string
	line   int
	marker string
}

// lintSource reports string constants that look like SQL but lack a
// "--sql <uuid>" first line, and returns the markers it found so callers
// can detect reuse across files.
func lintSource(path string, src any) ([]violation, []statement, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, src, parser.ParseComments)
	if err != nil {
		return nil, nil, err
	}
	var (
		violations []violation
		statements []statement
	)
	ast.Inspect(file, func(n ast.Node) bool {
		vs, ok := n.(*ast.ValueSpec)
		if !ok {
			return true
		}
		for _, value := range vs.Values {
			bl, ok := value.(*ast.BasicLit)
			if !ok || bl.Kind != token.STRING {
				continue
			}
			raw, err := unquote(bl.Value)
			if err != nil || !looksLikeSQL(raw) {
				continue
			}
			pos := fset.Position(bl.Pos())
			m := uuidMarkerPattern.FindStringSubmatch(firstLine(raw))
			if m == nil {
				violations = append(violations, violation{
					file:    path,
					line:    pos.Line,
					name:    joinNames(vs.Names),
					message: "missing or invalid --sql <uuid> marker",
				})
				continue
			}
			statements = append(statements, statement{
				file:   path,
				name:   joinNames(vs.Names),
				line:   pos.Line,
				marker: m[1],
			})
		}
		return true
	})
	return violations, statements, nil
}

// duplicateMarkers reports every statement whose marker was already used.
func duplicateMarkers(statements []statement) []violation {
	seen := make(map[string]statement, len(statements))
	var out []violation
	for _, st := range statements {
		if first, ok := seen[st.marker]; ok {
			out = append(out, violation{
				file:    st.file,
				line:    st.line,
				name:    st.name,
				message: "marker " + st.marker + " already used by " + first.name,
			})
			continue
		}
		seen[st.marker] = st
	}
	return out
}

// looksLikeSQL requires a keyword and a statement shape so ordinary
// strings such as log messages are skipped.
func looksLikeSQL(s string) bool {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "--sql") {
		return true
	}
	return sqlKeywordPattern.MatchString(s) && strings.ContainsAny(s, "\n;")
}

func firstLine(s string) string {
	s = strings.TrimLeft(s, "\n\r \t")
	if idx := strings.IndexAny(s, "\n\r"); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return strings.TrimSpace(s)
}

func unquote(v string) (string, error) {
	if len(v) == 0 {
		return v, nil
	}
	if v[0] == '`' {
		return v[1 : len(v)-1], nil
	}
	return strconv.Unquote(v)
}

func joinNames(idents []*ast.Ident) string {
	parts := make([]string, 0, len(idents))
	for _, ident := range idents {
		if ident == nil {
			continue
		}
		parts = append(parts, ident.Name)
	}
	return strings.Join(parts, ",")
}
