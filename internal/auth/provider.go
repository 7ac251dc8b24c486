package auth

// Provider validates an API token. The ledger holds no user accounts; a
// single shared token guards mutating endpoints.
type Provider interface {
	ValidateToken(token string) bool
}

// StaticProvider accepts exactly one configured token.
type StaticProvider struct {
	token string
}

func NewStaticProvider(token string) *StaticProvider {
	return &StaticProvider{token: token}
}

func (p *StaticProvider) ValidateToken(token string) bool {
	return p.token != "" && token == p.token
}
