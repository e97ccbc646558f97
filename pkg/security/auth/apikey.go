package auth

import (
	"crypto/subtle"
	"sync"

	"primeia/videogate/pkg/config"
)

// APIKeyValidator validates API keys against a configured set of keys.
// Lookups compare against every key in constant time, so response timing
// does not reveal how much of a key matched.
type APIKeyValidator struct {
	mu   sync.RWMutex
	keys []*APIKeyInfo
}

// NewAPIKeyValidator creates a new API key validator with the given keys.
func NewAPIKeyValidator(keys []*APIKeyInfo) *APIKeyValidator {
	v := &APIKeyValidator{}
	for _, k := range keys {
		v.Add(k)
	}
	return v
}

// NewAPIKeyValidatorFromConfig builds a validator from the api_key section.
func NewAPIKeyValidatorFromConfig(cfg config.APIKeyAuthConfig) *APIKeyValidator {
	keys := make([]*APIKeyInfo, 0, len(cfg.Keys))
	for _, k := range cfg.Keys {
		keys = append(keys, &APIKeyInfo{
			Key:     k.Key,
			UserID:  k.UserID,
			Enabled: k.IsEnabled(),
		})
	}
	return NewAPIKeyValidator(keys)
}

// Validate checks if the given API key is valid and returns its info.
func (v *APIKeyValidator) Validate(key string) (*APIKeyInfo, error) {
	if key == "" {
		return nil, ErrMissingCredentials
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	var match *APIKeyInfo
	for _, info := range v.keys {
		if subtle.ConstantTimeCompare([]byte(info.Key), []byte(key)) == 1 {
			match = info
		}
	}

	if match == nil {
		return nil, ErrInvalidAPIKey
	}
	if !match.Enabled {
		return nil, ErrAPIKeyDisabled
	}
	return match, nil
}

// Add adds or replaces an API key.
func (v *APIKeyValidator) Add(info *APIKeyInfo) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for i, existing := range v.keys {
		if existing.Key == info.Key {
			v.keys[i] = info
			return
		}
	}
	v.keys = append(v.keys, info)
}

// Remove removes an API key from the validator.
func (v *APIKeyValidator) Remove(key string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for i, existing := range v.keys {
		if existing.Key == key {
			v.keys = append(v.keys[:i], v.keys[i+1:]...)
			return
		}
	}
}

// Len returns the number of configured keys.
func (v *APIKeyValidator) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.keys)
}
