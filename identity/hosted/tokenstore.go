package hosted

import (
	"context"
	"crypto/pbkdf2"
	"crypto/sha256"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cccteam/eduauth/identity"
	"github.com/go-playground/errors/v5"
	"github.com/gorilla/securecookie"
)

// TokenStore persists the end-user session between runs.
type TokenStore interface {
	// Load returns the stored session, or nil when there is none.
	Load(ctx context.Context) (*identity.Session, error)
	Save(ctx context.Context, s *identity.Session) error
	Delete(ctx context.Context) error
}

// MemoryTokenStore keeps the session for the life of the process.
type MemoryTokenStore struct {
	mu      sync.Mutex
	session *identity.Session
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (m *MemoryTokenStore) Load(_ context.Context) (*identity.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.session, nil
}

func (m *MemoryTokenStore) Save(_ context.Context, s *identity.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.session = s

	return nil
}

func (m *MemoryTokenStore) Delete(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.session = nil

	return nil
}

const (
	tokenStoreName = "eduauth-session"
	keyFileSuffix  = ".key"
)

// FileTokenStore keeps the session in a file, encrypted and authenticated with
// keys derived from a master key.
type FileTokenStore struct {
	path string
	sc   *securecookie.SecureCookie
}

// NewFileTokenStore creates a FileTokenStore at path. masterKeyBase64 must decode
// to at least 96 bytes. When it is empty the key is read from path+".key",
// which is created with a random key on first use.
func NewFileTokenStore(path, masterKeyBase64 string) (*FileTokenStore, error) {
	if masterKeyBase64 == "" {
		key, err := loadOrCreateKey(path + keyFileSuffix)
		if err != nil {
			return nil, err
		}
		masterKeyBase64 = key
	}

	sc, err := newSecureCookie(masterKeyBase64)
	if err != nil {
		return nil, err
	}

	return &FileTokenStore{path: path, sc: sc}, nil
}

func (f *FileTokenStore) Load(_ context.Context) (*identity.Session, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, errors.Wrap(err, "os.ReadFile()")
	}

	s := &identity.Session{}
	if err := f.sc.Decode(tokenStoreName, string(data), s); err != nil {
		return nil, errors.Wrap(err, "securecookie.Decode()")
	}

	return s, nil
}

func (f *FileTokenStore) Save(_ context.Context, s *identity.Session) error {
	encoded, err := f.sc.Encode(tokenStoreName, s)
	if err != nil {
		return errors.Wrap(err, "securecookie.Encode()")
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return errors.Wrap(err, "os.MkdirAll()")
	}

	if err := os.WriteFile(f.path, []byte(encoded), 0o600); err != nil {
		return errors.Wrap(err, "os.WriteFile()")
	}

	return nil
}

func (f *FileTokenStore) Delete(_ context.Context) error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrap(err, "os.Remove()")
	}

	return nil
}

// loadOrCreateKey returns the base64 master key stored at path, writing a new
// random one there first if the file does not exist.
func loadOrCreateKey(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return strings.TrimSpace(string(data)), nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", errors.Wrap(err, "os.ReadFile()")
	}

	rKey := securecookie.GenerateRandomKey(96)
	if rKey == nil {
		return "", errors.New("failed to generate random key")
	}
	key := base64.StdEncoding.EncodeToString(rKey)

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", errors.Wrap(err, "os.MkdirAll()")
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			// Another process created it first.
			data, err := os.ReadFile(path)
			if err != nil {
				return "", errors.Wrap(err, "os.ReadFile()")
			}

			return strings.TrimSpace(string(data)), nil
		}

		return "", errors.Wrap(err, "os.OpenFile()")
	}

	if _, err := f.WriteString(key); err != nil {
		_ = f.Close()

		return "", errors.Wrap(err, "os.File.WriteString()")
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrap(err, "os.File.Close()")
	}

	return key, nil
}

func newSecureCookie(masterKeyBase64 string) (*securecookie.SecureCookie, error) {
	k, err := base64.StdEncoding.DecodeString(masterKeyBase64)
	if err != nil {
		return nil, errors.Wrap(err, "base64.StdEncoding.DecodeString()")
	}
	if len(k) < 96 {
		return nil, errors.New("token store key too short. Expect minimum of 96 bytes. (128 bytes when base64 encoded)")
	}

	hSaltIndex := int(k[55] % 4)
	hIndex := int(k[7]%4 + 12)
	saltIndex := int(k[73]%4 + 48)
	index := int(k[37]%4 + 60)

	hash, err := pbkdf2.Key(sha256.New, string(k[hIndex:hIndex+32]), k[hSaltIndex:hSaltIndex+8], 4356+hIndex*saltIndex, 64)
	if err != nil {
		return nil, errors.Wrap(err, "pbkdf2.Key()")
	}

	block, err := pbkdf2.Key(sha256.New, string(k[index:index+32]), k[saltIndex:saltIndex+8], 4491+(hSaltIndex+1)*index, 32)
	if err != nil {
		return nil, errors.Wrap(err, "pbkdf2.Key()")
	}

	sc := securecookie.New(hash, block)
	sc.SetSerializer(securecookie.JSONEncoder{})
	// Refresh tokens outlive the default cookie limits.
	sc.MaxAge(0)
	sc.MaxLength(0)

	return sc, nil
}
