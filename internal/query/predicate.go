// Package query builds typed row filters.
//
// A Predicate is an ordered conjunction of field equality clauses. It is
// evaluated directly against dataset rows and rendered to text only for
// display and for the browser-side story renderer, where every value is
// JSON-encoded.
package query

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ppiankov/lifestory/internal/dataset"
)

// Clause is a single Field == Value test
type Clause struct {
	Field dataset.Field `json:"field"`
	Value string        `json:"value"`
}

// UnknownFieldError reports a clause on a column outside the row schema
type UnknownFieldError struct {
	Field dataset.Field
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown filter field %q", e.Field)
}

// Predicate is an immutable AND of clauses. The zero value matches every row.
type Predicate struct {
	clauses []Clause
	err     error
}

// Where starts a predicate with one clause
func Where(field dataset.Field, value string) Predicate {
	return Predicate{}.And(field, value)
}

// And returns a new predicate with one more clause appended
func (p Predicate) And(field dataset.Field, value string) Predicate {
	next := Predicate{
		clauses: make([]Clause, len(p.clauses), len(p.clauses)+1),
		err:     p.err,
	}
	copy(next.clauses, p.clauses)
	next.clauses = append(next.clauses, Clause{Field: field, Value: value})

	if next.err == nil && !dataset.IsField(field) {
		next.err = &UnknownFieldError{Field: field}
	}
	return next
}

// Err returns the first builder error, if any
func (p Predicate) Err() error { return p.err }

// Clauses returns a copy of the clauses in build order
func (p Predicate) Clauses() []Clause {
	out := make([]Clause, len(p.clauses))
	copy(out, p.clauses)
	return out
}

// Fields returns the fields referenced, in build order
func (p Predicate) Fields() []dataset.Field {
	out := make([]dataset.Field, len(p.clauses))
	for i, c := range p.clauses {
		out[i] = c.Field
	}
	return out
}

// Match reports whether the row satisfies every clause. An invalid
// predicate matches nothing.
func (p Predicate) Match(r dataset.Row) bool {
	if p.err != nil {
		return false
	}
	for _, c := range p.clauses {
		if v, _ := r.Get(c.Field); v != c.Value {
			return false
		}
	}
	return true
}

// Filter returns the indices of matching rows. The result may be empty.
func (p Predicate) Filter(rows []dataset.Row) []int {
	var out []int
	for i, r := range rows {
		if p.Match(r) {
			out = append(out, i)
		}
	}
	return out
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// String renders the predicate as Country=='Japan' && Gender=='Female'.
// Backslashes and single quotes inside values are escaped.
func (p Predicate) String() string {
	parts := make([]string, len(p.clauses))
	for i, c := range p.clauses {
		parts[i] = fmt.Sprintf("%s=='%s'", c.Field, quoteEscaper.Replace(c.Value))
	}
	return strings.Join(parts, " && ")
}

// JS renders the predicate as a JavaScript record filter. Field names and
// values are JSON string literals, so no value can break out of the
// expression or the surrounding script element. The empty predicate
// renders as null (no filter).
func (p Predicate) JS() string {
	if len(p.clauses) == 0 {
		return "null"
	}
	parts := make([]string, len(p.clauses))
	for i, c := range p.clauses {
		parts[i] = fmt.Sprintf("record[%s] == %s", jsString(string(c.Field)), jsString(c.Value))
	}
	return "record => " + strings.Join(parts, " && ")
}

func jsString(s string) string {
	// json.Marshal of a string never fails and escapes <, > and &
	b, _ := json.Marshal(s)
	return string(b)
}
