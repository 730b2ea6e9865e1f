package store

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

// ErrDecrypt 口令错误或文件被篡改
var ErrDecrypt = errors.New("decrypt setting")

const (
	fileVersion = 1
	saltSize    = 16
	nonceSize   = 24
	keySize     = 32

	checkValue = "tesdash"
)

// fileData 配置文件结构
type fileData struct {
	Version int               `json:"version"`
	Salt    string            `json:"salt,omitempty"`
	Sealed  bool              `json:"sealed"`
	Check   string            `json:"check,omitempty"`
	Values  map[string]string `json:"values"`
}

// File 文件后端 (0600)，设置口令时值使用 secretbox 加密
type File struct {
	mu   sync.Mutex
	path string
	key  *[keySize]byte
	data fileData
}

// OpenFile 打开或创建配置文件
// 给定口令时，明文文件会被加密重写；口令错误直接返回 ErrDecrypt
func OpenFile(path, passphrase string) (*File, error) {
	f := &File{
		path: path,
		data: fileData{Version: fileVersion, Values: make(map[string]string)},
	}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if passphrase != "" {
			if err := f.sealWith(passphrase); err != nil {
				return nil, err
			}
		}
		return f, nil
	case err != nil:
		return nil, fmt.Errorf("read settings file: %w", err)
	}

	if err := json.Unmarshal(raw, &f.data); err != nil {
		return nil, fmt.Errorf("decode settings file: %w", err)
	}
	if f.data.Values == nil {
		f.data.Values = make(map[string]string)
	}

	if !f.data.Sealed {
		if passphrase == "" {
			return f, nil
		}
		if err := f.sealWith(passphrase); err != nil {
			return nil, err
		}
		if err := f.flush(); err != nil {
			return nil, err
		}
		return f, nil
	}

	if passphrase == "" {
		return nil, fmt.Errorf("settings file %s is encrypted, passphrase required", path)
	}
	salt, err := base64.StdEncoding.DecodeString(f.data.Salt)
	if err != nil || len(salt) != saltSize {
		return nil, fmt.Errorf("settings file %s: bad salt", path)
	}
	key, err := deriveKey(passphrase, salt)
	if err != nil {
		return nil, err
	}
	f.key = key
	if err := f.verify(); err != nil {
		return nil, fmt.Errorf("%w: settings file %s: wrong passphrase: %w", ErrDecrypt, path, err)
	}
	return f, nil
}

// sealWith 生成新盐并加密已有的明文值
func (f *File) sealWith(passphrase string) error {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("generate salt: %w", err)
	}
	key, err := deriveKey(passphrase, salt)
	if err != nil {
		return err
	}
	f.key = key

	values := make(map[string]string, len(f.data.Values))
	for k, v := range f.data.Values {
		sealed, err := f.seal(v)
		if err != nil {
			return err
		}
		values[k] = sealed
	}
	check, err := f.seal(checkValue)
	if err != nil {
		return err
	}

	f.data.Salt = base64.StdEncoding.EncodeToString(salt)
	f.data.Sealed = true
	f.data.Check = check
	f.data.Values = values
	return nil
}

// verify 用校验值确认口令，旧文件没有校验值时尝试解密任一已存值
func (f *File) verify() error {
	if f.data.Check != "" {
		plain, err := f.open(f.data.Check)
		if err != nil {
			return err
		}
		if plain != checkValue {
			return errors.New("check value mismatch")
		}
		return nil
	}
	for _, v := range f.data.Values {
		_, err := f.open(v)
		return err
	}
	return nil
}

func deriveKey(passphrase string, salt []byte) (*[keySize]byte, error) {
	k, err := scrypt.Key([]byte(passphrase), salt, 1<<15, 8, 1, keySize)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	var key [keySize]byte
	copy(key[:], k)
	return &key, nil
}

func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.data.Values[key]
	if !ok {
		return "", false, nil
	}
	if f.key == nil {
		return v, true, nil
	}

	plain, err := f.open(v)
	if err != nil {
		return "", false, fmt.Errorf("%w %s: %w", ErrDecrypt, key, err)
	}
	return plain, true, nil
}

func (f *File) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored := value
	if f.key != nil {
		sealed, err := f.seal(value)
		if err != nil {
			return err
		}
		stored = sealed
	}

	prev, had := f.data.Values[key]
	f.data.Values[key] = stored
	if err := f.flush(); err != nil {
		if had {
			f.data.Values[key] = prev
		} else {
			delete(f.data.Values, key)
		}
		return err
	}
	return nil
}

func (f *File) seal(value string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(value), &nonce, f.key)
	return base64.StdEncoding.EncodeToString(box), nil
}

func (f *File) open(encoded string) (string, error) {
	box, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	if len(box) < nonceSize+secretbox.Overhead {
		return "", errors.New("ciphertext too short")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])
	plain, ok := secretbox.Open(nil, box[nonceSize:], &nonce, f.key)
	if !ok {
		return "", errors.New("authentication failed")
	}
	return string(plain), nil
}

// flush 先写临时文件再 rename
func (f *File) flush() error {
	data, err := json.MarshalIndent(f.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*")
	if err != nil {
		return fmt.Errorf("create temp settings: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod settings: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("rename settings: %w", err)
	}
	return nil
}
