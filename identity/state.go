package identity

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// oauthState is carried through the provider round trip in the state
// parameter.
type oauthState struct {
	Nonce       string `json:"n"`
	Provider    string `json:"p"`
	RedirectURL string `json:"r,omitempty"`
	IssuedAt    int64  `json:"iat"`
	ExpiresAt   int64  `json:"exp"`
}

// stateCodec encrypts states with AES-GCM and signs them with HMAC-SHA256.
type stateCodec struct {
	encryptionKey []byte
	hmacKey       []byte
	ttl           time.Duration
}

func newStateCodec(encryptionKey, hmacKey []byte, ttl time.Duration) (*stateCodec, error) {
	switch len(encryptionKey) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: state encryption key must be 16, 24 or 32 bytes", ErrInvalidConfig)
	}
	if len(hmacKey) == 0 {
		return nil, fmt.Errorf("%w: state hmac key is empty", ErrInvalidConfig)
	}
	if ttl == 0 {
		ttl = 10 * time.Minute
	}
	return &stateCodec{
		encryptionKey: encryptionKey,
		hmacKey:       hmacKey,
		ttl:           ttl,
	}, nil
}

func (sc *stateCodec) encode(state *oauthState, now time.Time) (string, error) {
	if state == nil {
		return "", ErrInvalidState
	}

	if state.IssuedAt == 0 {
		state.IssuedAt = now.Unix()
	}
	if state.ExpiresAt == 0 {
		state.ExpiresAt = now.Add(sc.ttl).Unix()
	}
	if state.Nonce == "" {
		state.Nonce = generateNonce()
	}

	plaintext, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("failed to marshal state: %w", err)
	}

	gcm, err := sc.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)

	mac := hmac.New(sha256.New, sc.hmacKey)
	mac.Write(ciphertext)
	signature := mac.Sum(nil)

	return base64.URLEncoding.EncodeToString(append(signature, ciphertext...)), nil
}

func (sc *stateCodec) decode(token string, now time.Time) (*oauthState, error) {
	data, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidState
	}

	if len(data) < sha256.Size {
		return nil, ErrInvalidState
	}

	signature := data[:sha256.Size]
	ciphertext := data[sha256.Size:]

	mac := hmac.New(sha256.New, sc.hmacKey)
	mac.Write(ciphertext)
	if !hmac.Equal(signature, mac.Sum(nil)) {
		return nil, ErrInvalidState
	}

	gcm, err := sc.gcm()
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, ErrInvalidState
	}

	nonce, encrypted := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, encrypted, nil)
	if err != nil {
		return nil, ErrInvalidState
	}

	var state oauthState
	if err := json.Unmarshal(plaintext, &state); err != nil {
		return nil, ErrInvalidState
	}

	if now.Unix() > state.ExpiresAt {
		return nil, ErrStateExpired
	}

	return &state, nil
}

func (sc *stateCodec) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(sc.encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

func generateNonce() string {
	return base64.RawURLEncoding.EncodeToString(randomBytes(16))
}

func randomBytes(n int) []byte {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return b
}
