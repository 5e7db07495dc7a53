package auth

import (
	"context"
	"fmt"
	"strings"
)

// Identity names the caller behind an API key.
type Identity struct {
	Name string
}

type APIKeyValidator interface {
	Validate(ctx context.Context, apiKey string) (Identity, bool)
}

// StaticAPIKeyValidator accepts keys from a comma separated spec.
// Entries are either "key" or "key:name"; unnamed keys get the name
// "default".
type StaticAPIKeyValidator struct {
	keys map[string]Identity
}

func NewStaticAPIKeyValidator(spec string) (*StaticAPIKeyValidator, error) {
	validator := &StaticAPIKeyValidator{keys: map[string]Identity{}}
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return validator, nil
	}

	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		key, name, _ := strings.Cut(entry, ":")
		key = strings.TrimSpace(key)
		name = strings.TrimSpace(name)
		if key == "" {
			return nil, fmt.Errorf("invalid static key entry %q: empty key", entry)
		}
		if name == "" {
			name = "default"
		}
		validator.keys[key] = Identity{Name: name}
	}

	return validator, nil
}

func (v *StaticAPIKeyValidator) Validate(_ context.Context, apiKey string) (Identity, bool) {
	identity, ok := v.keys[apiKey]
	return identity, ok
}
