package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jrsteele09/go-lawfirm-console/internal/errors"
	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

// Medium is persistent storage for the credentials that may fail. The
// FallbackStore turns its errors into log lines.
//
// Load returns empty credentials and no error when nothing is stored. Corrupt
// content is reported with ErrPartialCredentials or ErrSealedStore and is
// treated as absent; any other error means the medium is unavailable.
type Medium interface {
	Save(creds Credentials) error
	Load() (Credentials, error)
	Remove() error
	String() string
}

var _ Medium = (*FileMedium)(nil)

// FileMedium stores the credentials as a JSON document in a single file,
// optionally sealed with secretbox.
type FileMedium struct {
	path string
	key  *[32]byte
}

type FileMediumOption func(*FileMedium)

// WithSealPassphrase seals the file contents with a key derived from passphrase.
// An empty passphrase leaves the file in plain JSON.
func WithSealPassphrase(passphrase string) FileMediumOption {
	return func(f *FileMedium) {
		if passphrase == "" {
			return
		}
		key := sha256.Sum256([]byte(passphrase))
		f.key = &key
	}
}

func NewFileMedium(path string, opts ...FileMediumOption) *FileMedium {
	f := &FileMedium{path: path}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *FileMedium) String() string {
	return "file:" + f.path
}

func (f *FileMedium) Save(creds Credentials) error {
	doc, err := json.Marshal(map[string]string{
		KeyAccessToken:  creds.AccessToken,
		KeyRefreshToken: creds.RefreshToken,
	})
	if err != nil {
		return errors.Wrapf(err, "[FileMedium Save] marshal")
	}

	if f.key != nil {
		doc, err = f.seal(doc)
		if err != nil {
			return err
		}
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("[FileMedium Save] %w: %w", errors.ErrStorageUnavailable, err)
	}

	// Write to a sibling file and rename over the target so readers only ever
	// observe the previous or the new document.
	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return fmt.Errorf("[FileMedium Save] %w: %w", errors.ErrStorageUnavailable, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(doc); err != nil {
		tmp.Close()
		return fmt.Errorf("[FileMedium Save] %w: %w", errors.ErrStorageUnavailable, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("[FileMedium Save] %w: %w", errors.ErrStorageUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("[FileMedium Save] %w: %w", errors.ErrStorageUnavailable, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("[FileMedium Save] %w: %w", errors.ErrStorageUnavailable, err)
	}
	return nil
}

func (f *FileMedium) Load() (Credentials, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Credentials{}, nil
		}
		return Credentials{}, fmt.Errorf("[FileMedium Load] %w: %w", errors.ErrStorageUnavailable, err)
	}

	if f.key != nil {
		data, err = f.open(data)
		if err != nil {
			return Credentials{}, err
		}
	}

	var doc map[string]string
	if err := json.Unmarshal(data, &doc); err != nil {
		return Credentials{}, fmt.Errorf("[FileMedium Load] %w: %w", errors.ErrPartialCredentials, err)
	}

	creds := Credentials{AccessToken: doc[KeyAccessToken], RefreshToken: doc[KeyRefreshToken]}
	if !creds.Complete() && !creds.Empty() {
		return Credentials{}, errors.Wrapf(errors.ErrPartialCredentials, "[FileMedium Load] %s", f.path)
	}
	return creds, nil
}

func (f *FileMedium) Remove() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("[FileMedium Remove] %w: %w", errors.ErrStorageUnavailable, err)
	}
	return nil
}

func (f *FileMedium) seal(plain []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, errors.Wrapf(err, "[FileMedium seal] nonce")
	}
	return secretbox.Seal(nonce[:], plain, &nonce, f.key), nil
}

func (f *FileMedium) open(sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, errors.Wrapf(errors.ErrSealedStore, "[FileMedium open] content too short")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, f.key)
	if !ok {
		return nil, errors.Wrapf(errors.ErrSealedStore, "[FileMedium open] %s", f.path)
	}
	return plain, nil
}
