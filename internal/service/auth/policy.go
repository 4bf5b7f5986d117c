package auth

import "strings"

// AccessPolicy decides who may sign in and who acts as evaluator.
type AccessPolicy struct {
	allowedDomain string
	admins        map[string]struct{}
	adminDomains  []string
}

// NewAccessPolicy builds a policy from the allowed email suffix (for example
// "@example.edu") and the admin list. Admin entries starting with "@" admit a
// whole domain without granting the admin role.
func NewAccessPolicy(allowedDomain string, adminEmails []string) *AccessPolicy {
	p := &AccessPolicy{
		allowedDomain: strings.ToLower(strings.TrimSpace(allowedDomain)),
		admins:        make(map[string]struct{}, len(adminEmails)),
	}
	for _, e := range adminEmails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if strings.HasPrefix(e, "@") {
			p.adminDomains = append(p.adminDomains, e)
			continue
		}
		p.admins[e] = struct{}{}
	}
	return p
}

// Allowed reports whether the email may use the service.
func (p *AccessPolicy) Allowed(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	if _, ok := p.admins[email]; ok {
		return true
	}
	for _, d := range p.adminDomains {
		if strings.HasSuffix(email, d) {
			return true
		}
	}
	return p.allowedDomain != "" && strings.HasSuffix(email, p.allowedDomain)
}

// IsAdmin reports whether the email is listed as an admin.
func (p *AccessPolicy) IsAdmin(email string) bool {
	_, ok := p.admins[strings.ToLower(strings.TrimSpace(email))]
	return ok
}
