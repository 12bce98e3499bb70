package endpoint

import (
	"crypto/tls"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

var ErrDataDirLocked = errors.New("data directory is in use by another endpoint")

// DataDir is the endpoint's on-disk state,
// locked for the lifetime of the endpoint.
type DataDir struct {
	path string
	lock *flock.Flock
}

func NewDataDir(path string) (*DataDir, error) {
	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, err
	}

	lock := flock.New(filepath.Join(path, ".lock"))

	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock the data directory %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrDataDirLocked, path)
	}

	return &DataDir{
		path: path,
		lock: lock,
	}, nil
}

func (dataDir *DataDir) Path() string {
	return dataDir.path
}

func (dataDir *DataDir) DBPath() string {
	return filepath.Join(dataDir.path, "db")
}

// Initialized returns true once the database was created
// by "vmpower endpoint init" or a previous run.
func (dataDir *DataDir) Initialized() (bool, error) {
	_, err := os.Stat(dataDir.DBPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

func (dataDir *DataDir) certificatePath() string {
	return filepath.Join(dataDir.path, "endpoint.crt")
}

func (dataDir *DataDir) keyPath() string {
	return filepath.Join(dataDir.path, "endpoint.key")
}

// HasCertificate returns true when the endpoint should serve HTTPS.
func (dataDir *DataDir) HasCertificate() (bool, error) {
	_, err := os.Stat(dataDir.certificatePath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

func (dataDir *DataDir) Certificate() (tls.Certificate, error) {
	return tls.LoadX509KeyPair(dataDir.certificatePath(), dataDir.keyPath())
}

func (dataDir *DataDir) SetCertificate(certificate tls.Certificate) error {
	certificatePEMBytes := pem.EncodeToMemory(&pem.Block{
		Type:  "CERTIFICATE",
		Bytes: certificate.Certificate[0],
	})

	if err := os.WriteFile(dataDir.certificatePath(), certificatePEMBytes, 0600); err != nil {
		return err
	}

	keyPEMBytes, err := marshalPrivateKey(certificate)
	if err != nil {
		return err
	}

	return os.WriteFile(dataDir.keyPath(), keyPEMBytes, 0600)
}

func (dataDir *DataDir) Close() error {
	return dataDir.lock.Unlock()
}
