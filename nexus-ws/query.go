package nexusws

import (
	"fmt"
	"strings"
)

// ExtractSubscriptionField provides a basic extraction of the subscription
// field name from the query string. It looks for the first field after
// "subscription" and passes through payload.Variables as arguments. Inline
// arguments in the query text are not parsed; clients are expected to use
// variables, which is what the official graphql-ws client sends.
func ExtractSubscriptionField(payload SubscribePayload) (string, map[string]interface{}, error) {
	query := strings.TrimSpace(payload.Query)

	// Strip "subscription" or "subscription Name" prefix
	lower := strings.ToLower(query)
	if strings.HasPrefix(lower, "subscription") {
		query = strings.TrimSpace(query[len("subscription"):])
		// Skip optional operation name and variable definitions
		if len(query) > 0 && query[0] != '{' {
			idx := strings.IndexByte(query, '{')
			if idx < 0 {
				return "", nil, fmt.Errorf("malformed subscription query")
			}
			query = query[idx:]
		}
	}

	// Strip outer braces
	query = strings.TrimSpace(query)
	if len(query) < 2 || query[0] != '{' {
		return "", nil, fmt.Errorf("malformed subscription query")
	}
	query = strings.TrimSpace(query[1:])

	// Field name runs up to '(' or '{' or whitespace
	fieldEnd := len(query)
	for i, ch := range query {
		if ch == '(' || ch == '{' || ch == ' ' || ch == '\n' || ch == '\t' {
			fieldEnd = i
			break
		}
	}
	fieldName := query[:fieldEnd]
	if fieldName == "" {
		return "", nil, fmt.Errorf("empty subscription field name")
	}

	args := make(map[string]interface{})
	for k, v := range payload.Variables {
		args[k] = v
	}

	return fieldName, args, nil
}
