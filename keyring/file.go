package keyring

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/yllada/quicklinks/common"
)

// fileStore is an AES-GCM encrypted JSON map on disk. The key is
// derived from machine-specific data, so the file is only readable by
// the same user on the same host.
type fileStore struct {
	path    string
	key     []byte
	secrets map[string]string
}

func openFileStore(dir string) *fileStore {
	f := &fileStore{
		path:    filepath.Join(dir, common.CredentialsFileName),
		key:     deriveKey(machineSecret()),
		secrets: make(map[string]string),
	}
	f.load()
	return f
}

func machineSecret() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%s-%s-%d", serviceName, hostname, getMachineID(), os.Getuid())
}

// deriveKey stretches the machine secret into a 256-bit AES key.
func deriveKey(secret string) []byte {
	return argon2.IDKey([]byte(secret), []byte(serviceName+"-credentials"), 1, 64*1024, 2, 32)
}

func getMachineID() string {
	for _, p := range []string{"/etc/machine-id", "/var/lib/dbus/machine-id"} {
		data, err := os.ReadFile(p)
		if err == nil {
			return strings.TrimSpace(string(data))
		}
	}
	return "default-machine-id"
}

func (f *fileStore) load() {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return
	}

	decrypted, err := f.decrypt(data)
	if err != nil {
		common.LogWarn("Ignoring unreadable credentials file %s: %v", f.path, err)
		return
	}

	if err := json.Unmarshal(decrypted, &f.secrets); err != nil {
		common.LogWarn("Ignoring corrupt credentials file %s: %v", f.path, err)
		f.secrets = make(map[string]string)
	}
}

func (f *fileStore) save() error {
	data, err := json.Marshal(f.secrets)
	if err != nil {
		return err
	}

	encrypted, err := f.encrypt(data)
	if err != nil {
		return err
	}

	return common.WriteFileAtomic(f.path, encrypted, 0600)
}

func (f *fileStore) set(account, secret string) error {
	f.secrets[account] = secret
	return f.save()
}

func (f *fileStore) get(account string) (string, bool) {
	secret, ok := f.secrets[account]
	return secret, ok
}

func (f *fileStore) delete(account string) error {
	if _, ok := f.secrets[account]; !ok {
		return nil
	}
	delete(f.secrets, account)
	return f.save()
}

func (f *fileStore) encrypt(plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(f.key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)
	return []byte(base64.StdEncoding.EncodeToString(ciphertext)), nil
}

func (f *fileStore) decrypt(data []byte) ([]byte, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(f.key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
