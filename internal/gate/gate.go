// Package gate classifies request paths and rejects requests whose credentials are
// structurally unfit for the path, before any handler runs. It never verifies signatures.
package gate

import (
	"strings"

	"github.com/sushihentaime/blogsphere/internal/common"
)

type Class int

const (
	Public Class = iota
	// PublicOnly paths are closed to callers that already hold an access credential.
	PublicOnly
	CredentialRequired
	// RefreshOnly paths need the refresh cookie and nothing else.
	RefreshOnly
)

func (c Class) String() string {
	switch c {
	case PublicOnly:
		return "public-only"
	case CredentialRequired:
		return "credential-required"
	case RefreshOnly:
		return "refresh-only"
	default:
		return "public"
	}
}

type rule struct {
	path   string
	prefix bool
	class  Class
}

// Policy maps paths to classes. Exact rules win over prefix rules, and among prefix rules
// the longest match wins. Unmatched paths are Public.
type Policy struct {
	rules []rule
}

func NewPolicy() *Policy {
	return &Policy{}
}

func (p *Policy) Exact(path string, class Class) *Policy {
	p.rules = append(p.rules, rule{path: path, class: class})
	return p
}

func (p *Policy) Prefix(prefix string, class Class) *Policy {
	p.rules = append(p.rules, rule{path: prefix, prefix: true, class: class})
	return p
}

func DefaultPolicy() *Policy {
	return NewPolicy().
		Exact("/v1/auth/sign-in", PublicOnly).
		Exact("/v1/auth/sign-up", PublicOnly).
		Exact("/v1/auth/sign-out", CredentialRequired).
		Exact("/v1/auth/refresh-token", RefreshOnly).
		Prefix("/v1/admin/", CredentialRequired)
}

func (p *Policy) Classify(path string) Class {
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}

	best := -1
	class := Public
	for _, r := range p.rules {
		switch {
		case !r.prefix && r.path == path:
			return r.class
		case r.prefix && strings.HasPrefix(path+"/", r.path) && len(r.path) > best:
			best = len(r.path)
			class = r.class
		}
	}

	return class
}

// Request is everything the gate looks at.
type Request struct {
	Path string
	// HasAccess is true when the Authorization header carries a structurally valid bearer token.
	HasAccess  bool
	HasRefresh bool
}

func (p *Policy) Check(r Request) error {
	switch p.Classify(r.Path) {
	case PublicOnly:
		if r.HasAccess {
			return common.ErrAlreadyAuthenticated
		}
	case CredentialRequired:
		if !r.HasAccess || !r.HasRefresh {
			return common.ErrUnauthorized
		}
	case RefreshOnly:
		if !r.HasRefresh {
			return common.ErrNotSignedIn
		}
	}

	return nil
}

// BearerToken extracts the token from an Authorization header value. ok is false unless
// the value is "Bearer " followed by three non-empty dot separated segments.
func BearerToken(header string) (token string, ok bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", false
	}
	for _, part := range parts {
		if part == "" {
			return "", false
		}
	}

	return token, true
}
