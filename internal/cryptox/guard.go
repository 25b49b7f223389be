package cryptox

import (
	"encoding/json"

	"golang.org/x/sync/singleflight"
)

// Guard collapses concurrent decryption attempts for the same space into a
// single run; all callers share the one result. Key derivation is CPU-bound,
// so duplicate attempts fired by rapid UI refreshes would otherwise burn a
// core each and could report inconsistent errors. Attempts for different
// spaces proceed independently.
type Guard struct {
	group singleflight.Group
}

func NewGuard() *Guard {
	return &Guard{}
}

// Do runs fn under the single-flight key. While a call for key is in
// flight, further callers wait for it and receive its result instead of
// starting their own run.
func (g *Guard) Do(key string, fn func() (json.RawMessage, error)) (json.RawMessage, error) {
	v, err, _ := g.group.Do(key, func() (any, error) {
		return fn()
	})
	if err != nil {
		return nil, err
	}
	return v.(json.RawMessage), nil
}

// Decrypt is Decrypt(env, password, …) under the space's single-flight key.
// The decrypted JSON is unmarshaled into each caller's own v.
func (g *Guard) Decrypt(spaceID string, env *Envelope, password string, v any) error {
	raw, err := g.Do(spaceID, func() (json.RawMessage, error) {
		var m json.RawMessage
		if err := Decrypt(env, password, &m); err != nil {
			return nil, err
		}
		return m, nil
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return ErrDecryptionFailed
	}
	return nil
}
