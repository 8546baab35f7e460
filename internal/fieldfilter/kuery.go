package fieldfilter

import "strings"

// KueryFields extracts the field names referenced by a kuery expression.
//
// This is not a full KQL parser. It splits the expression into clauses on
// the boolean connectives (and, or, not) outside quoted strings, then takes
// the text left of the clause's ":" or comparison operator as the field
// name. Bare term clauses name no field and contribute nothing, matching
// how a full parse surfaces them without a field node.
func KueryFields(query string) []string {
	var fields []string
	for _, clause := range splitClauses(query) {
		if field := clauseField(clause); field != "" {
			fields = append(fields, field)
		}
	}
	return fields
}

// splitClauses breaks a kuery expression on and/or/not connectives,
// ignoring connectives inside double-quoted strings.
func splitClauses(query string) []string {
	var clauses []string
	var cur strings.Builder
	inQuote := false

	words := strings.Fields(query)
	for _, word := range words {
		if !inQuote {
			switch strings.ToLower(word) {
			case "and", "or", "not":
				if cur.Len() > 0 {
					clauses = append(clauses, cur.String())
					cur.Reset()
				}
				continue
			}
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(word)
		if strings.Count(word, `"`)%2 == 1 {
			inQuote = !inQuote
		}
	}
	if cur.Len() > 0 {
		clauses = append(clauses, cur.String())
	}

	return clauses
}

// clauseField returns the field name of a single clause, or "" for a bare
// term clause.
func clauseField(clause string) string {
	clause = strings.TrimSpace(clause)
	clause = strings.TrimLeft(clause, "(")
	clause = strings.TrimRight(clause, ")")

	idx := len(clause)
	for _, op := range []string{":", "<=", ">=", "<", ">"} {
		if i := strings.Index(clause, op); i >= 0 && i < idx {
			idx = i
		}
	}
	if idx == len(clause) {
		return ""
	}

	field := strings.TrimSpace(clause[:idx])
	field = strings.Trim(field, `"`)
	return field
}
