package authroles

import (
	"fmt"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"

	domainauth "github.com/equinetracker/equinetracker/internal/domain/auth"
	"github.com/equinetracker/equinetracker/internal/ports"
)

// ExpressionMapper evaluates a JMESPath expression against the identity and
// uses the string result as the role. The expression sees:
//
//	{"user_id": "...", "email": "...", "groups": ["..."]}
//
// Results that are not a known role, and evaluation errors, defer to Fallback.
//
// Example: contains(groups, 'barn-admins') && 'admin' || ends_with(email, '@stable.example') && 'user' || 'guest'
type ExpressionMapper struct {
	expr     string
	Fallback ports.RoleMapper
}

// NewExpressionMapper compiles expr once to reject syntax errors at startup.
func NewExpressionMapper(expr string, fallback ports.RoleMapper) (*ExpressionMapper, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("role expression is empty")
	}
	if _, err := jmespath.Compile(expr); err != nil {
		return nil, fmt.Errorf("compile role expression: %w", err)
	}
	return &ExpressionMapper{expr: expr, Fallback: fallback}, nil
}

// Map implements ports.RoleMapper.
func (m *ExpressionMapper) Map(id domainauth.Identity) domainauth.Role {
	groups := make([]any, 0, len(id.Groups))
	for _, g := range id.Groups {
		groups = append(groups, g)
	}
	data := map[string]any{
		"user_id": id.UserID,
		"email":   strings.ToLower(id.Email),
		"groups":  groups,
	}

	out, err := jmespath.Search(m.expr, data)
	if err == nil {
		if s, ok := out.(string); ok {
			switch role := domainauth.Role(strings.ToLower(strings.TrimSpace(s))); role {
			case domainauth.RoleAdmin, domainauth.RoleUser, domainauth.RoleGuest:
				return role
			}
		}
	}
	if m.Fallback != nil {
		return m.Fallback.Map(id)
	}
	return domainauth.RoleGuest
}
