// Package normalize converts loosely shaped server records into the strict
// models used by the rest of the application. Lookups walk an ordered list of
// accessors and take the first value present, so backends that rename fields
// keep working. Nothing here returns an error: unusable records are reported
// with a false ok and are left for the caller to drop.
package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/tgienger/issues/internal/models"
)

const (
	// DefaultProjectName is used when a project record has no name
	DefaultProjectName = "Unbenanntes Projekt"
	// DefaultIssueTitle is used when an issue record has no title
	DefaultIssueTitle = "Unbenanntes Issue"
	// DefaultPriority is used when an issue record has no priority
	DefaultPriority = models.PriorityMedium
)

// Record is a decoded JSON object
type Record = map[string]any

// accessor fetches one candidate value; ok is false when the value is absent
type accessor func(Record) (any, bool)

func field(name string) accessor {
	return func(r Record) (any, bool) {
		v, ok := r[name]
		if !ok || v == nil {
			return nil, false
		}
		return v, true
	}
}

// nested looks up the first present key inside an object-valued field
func nested(parent string, keys ...string) accessor {
	return func(r Record) (any, bool) {
		obj, ok := r[parent].(map[string]any)
		if !ok {
			return nil, false
		}
		for _, k := range keys {
			if v, ok := field(k)(obj); ok {
				return v, true
			}
		}
		return nil, false
	}
}

var (
	idFields = []accessor{field("id"), field("projectId"), field("project_id"), field("uuid")}

	issueIDFields = []accessor{field("id"), field("issueId"), field("issue_id"), field("uuid")}

	projectNameFields = []accessor{field("name"), field("title")}

	issueTitleFields = []accessor{field("title"), field("name")}

	issueProjectFields = []accessor{
		field("projectId"),
		field("project_id"),
		field("projectID"),
		stringField("project"),
		nested("project", "id", "projectId", "project_id", "uuid"),
	}

	issueProjectNameFields = []accessor{
		field("projectName"),
		field("project_name"),
		nested("project", "name", "title"),
	}

	doneFields = []accessor{field("done"), field("completed")}

	dueDateFields = []accessor{field("dueDate"), field("due_date")}

	priorityFields = []accessor{field("priority")}
)

// stringField matches only when the value is a string or number, so an object
// under the same key falls through to a nested accessor
func stringField(name string) accessor {
	return func(r Record) (any, bool) {
		v, ok := field(name)(r)
		if !ok {
			return nil, false
		}
		if _, isObj := v.(map[string]any); isObj {
			return nil, false
		}
		return v, true
	}
}

func first(r Record, chain []accessor) (any, bool) {
	for _, get := range chain {
		if v, ok := get(r); ok {
			return v, true
		}
	}
	return nil, false
}

// firstString returns the first candidate that renders as a non-empty string
func firstString(r Record, chain []accessor) (string, bool) {
	for _, get := range chain {
		v, ok := get(r)
		if !ok {
			continue
		}
		if s, ok := scalarString(v); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// scalarString formats strings and numbers; other types are not scalars
func scalarString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x), true
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<63 {
			return strconv.FormatInt(int64(x), 10), true
		}
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case float32:
		return scalarString(float64(x))
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case json.Number:
		return x.String(), true
	}
	return "", false
}

// Truthy coerces a decoded JSON value to a bool. Strings "true" and "false"
// are matched case-insensitively; everything else follows JSON truthiness.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		s := strings.TrimSpace(x)
		switch strings.ToLower(s) {
		case "true":
			return true
		case "false":
			return false
		}
		return s != ""
	case float64:
		return x != 0 && !math.IsNaN(x)
	case float32:
		return x != 0
	case int:
		return x != 0
	case int64:
		return x != 0
	case json.Number:
		f, err := x.Float64()
		return err != nil || f != 0
	}
	return true
}

func priorityOf(v any) models.Priority {
	s, ok := scalarString(v)
	if !ok {
		return DefaultPriority
	}
	if s == "" {
		return models.PriorityNone
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return DefaultPriority
	}
	switch {
	case f < 1:
		return models.PriorityNone
	case f >= 4:
		return models.PriorityLow
	}
	return models.Priority(strconv.Itoa(int(f)))
}

// Project converts a raw record into a Project. ok is false when no id alias
// is present.
func Project(raw Record) (models.Project, bool) {
	if raw == nil {
		return models.Project{}, false
	}
	id, ok := firstString(raw, idFields)
	if !ok {
		return models.Project{}, false
	}
	name, ok := firstString(raw, projectNameFields)
	if !ok {
		name = DefaultProjectName
	}
	return models.Project{ID: id, Name: name}, true
}

// Active reports whether a project record is active; a missing flag counts as active
func Active(raw Record) bool {
	v, ok := field("active")(raw)
	if !ok {
		return true
	}
	return Truthy(v)
}

// Issue converts a raw record into an Issue. ok is false when no id alias is present.
func Issue(raw Record) (models.Issue, bool) {
	issue, _, ok := IssueFields(raw)
	return issue, ok
}

// IssueFields is like Issue but also reports which fields the record carried
func IssueFields(raw Record) (models.Issue, models.IssueFields, bool) {
	if raw == nil {
		return models.Issue{}, 0, false
	}
	id, ok := firstString(raw, issueIDFields)
	if !ok {
		return models.Issue{}, 0, false
	}

	var fields models.IssueFields
	issue := models.Issue{ID: id, Title: DefaultIssueTitle, Priority: DefaultPriority}

	if title, ok := firstString(raw, issueTitleFields); ok {
		issue.Title = title
		fields |= models.FieldTitle
	}
	if v, ok := first(raw, priorityFields); ok {
		issue.Priority = priorityOf(v)
		fields |= models.FieldPriority
	}
	if v, ok := first(raw, dueDateFields); ok {
		issue.DueDate, _ = scalarString(v)
		fields |= models.FieldDueDate
	}
	if v, ok := first(raw, doneFields); ok {
		issue.Done = Truthy(v)
		fields |= models.FieldDone
	}
	if pid, ok := firstString(raw, issueProjectFields); ok {
		issue.ProjectID = pid
		fields |= models.FieldProjectID
	} else if _, ok := first(raw, issueProjectFields); ok {
		fields |= models.FieldProjectID
	}
	if name, ok := firstString(raw, issueProjectNameFields); ok {
		issue.ProjectName = name
		fields |= models.FieldProjectName
	}
	return issue, fields, true
}

// Records extracts the list of objects from a decoded response body. Bare
// arrays and envelopes carrying the array under "data" or "items" are accepted;
// non-object entries are skipped. ok is false for any other shape.
func Records(body any) ([]Record, bool) {
	switch x := body.(type) {
	case []any:
		out := make([]Record, 0, len(x))
		for _, item := range x {
			if r, ok := item.(map[string]any); ok {
				out = append(out, r)
			}
		}
		return out, true
	case map[string]any:
		for _, k := range []string{"data", "items"} {
			if inner, ok := x[k].([]any); ok {
				return Records(inner)
			}
		}
	}
	return nil, false
}

// Single extracts one object from a decoded response body, unwrapping a "data"
// envelope when the object itself carries no id.
func Single(body any) (Record, bool) {
	r, ok := body.(map[string]any)
	if !ok {
		return nil, false
	}
	if inner, ok := r["data"].(map[string]any); ok {
		if _, hasID := first(r, idFields); !hasID {
			return inner, true
		}
	}
	return r, true
}
