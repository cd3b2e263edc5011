package repository

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"GeminiStream/config"
	"GeminiStream/logger"
	"GeminiStream/model"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

const sealedPrefix = "sealed:"

// ErrSealedPassword is returned when a stored password cannot be opened
// with the configured secret.
var ErrSealedPassword = errors.New("stored password cannot be decrypted with SETTINGS_SECRET")

// sealedSettingsRepository encrypts the password before it reaches the
// underlying backend. Passwords saved before a secret was configured are
// read back unchanged.
type sealedSettingsRepository struct {
	inner SettingsRepository
	key   [32]byte
}

// NewSealedSettingsRepository wraps inner so passwords are stored with
// NaCl secretbox under a key derived from secret.
func NewSealedSettingsRepository(inner SettingsRepository, secret string) (SettingsRepository, error) {
	if secret == "" {
		return nil, fmt.Errorf("empty settings secret")
	}
	derived, err := scrypt.Key([]byte(secret), []byte(config.AppID), 1<<15, 8, 1, 32)
	if err != nil {
		return nil, fmt.Errorf("derive settings key: %w", err)
	}
	r := &sealedSettingsRepository{inner: inner}
	copy(r.key[:], derived)
	return r, nil
}

func (r *sealedSettingsRepository) seal(password string) (string, error) {
	if password == "" {
		return "", nil
	}
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(password), &nonce, &r.key)
	return sealedPrefix + base64.StdEncoding.EncodeToString(box), nil
}

func (r *sealedSettingsRepository) open(stored string) (string, error) {
	if !strings.HasPrefix(stored, sealedPrefix) {
		return stored, nil
	}
	box, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, sealedPrefix))
	if err != nil || len(box) < 24 {
		return "", ErrSealedPassword
	}
	var nonce [24]byte
	copy(nonce[:], box[:24])
	plain, ok := secretbox.Open(nil, box[24:], &nonce, &r.key)
	if !ok {
		return "", ErrSealedPassword
	}
	return string(plain), nil
}

func (r *sealedSettingsRepository) Load(ctx context.Context) (*model.Credentials, error) {
	creds, err := r.inner.Load(ctx)
	if err != nil || creds == nil {
		return creds, err
	}
	if creds.Password, err = r.open(creds.Password); err != nil {
		return nil, err
	}
	return creds, nil
}

func (r *sealedSettingsRepository) Save(ctx context.Context, creds model.Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}
	sealed, err := r.seal(creds.Password)
	if err != nil {
		return err
	}
	creds.Password = sealed
	return r.inner.Save(ctx, creds)
}

// Watch forwards external edits with the password opened. Backends that
// cannot watch block until ctx is done.
func (r *sealedSettingsRepository) Watch(ctx context.Context, onChange func(model.Credentials)) error {
	w, ok := r.inner.(Watcher)
	if !ok {
		<-ctx.Done()
		return nil
	}
	return w.Watch(ctx, func(c model.Credentials) {
		pw, err := r.open(c.Password)
		if err != nil {
			logger.Warn("[Settings/Watch] Ignoring settings with unreadable password", logger.ErrorField(err))
			return
		}
		c.Password = pw
		onChange(c)
	})
}
