package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"
)

// Local writes uploads under Root and serves them from URLPrefix.
type Local struct {
	Root      string
	URLPrefix string
	Now       func() time.Time
}

func NewLocal(root string) (*Local, error) {
	for _, folder := range []string{FolderFiles, FolderAudio} {
		if err := os.MkdirAll(filepath.Join(root, folder), 0o755); err != nil {
			return nil, err
		}
	}
	return &Local{Root: root, URLPrefix: "/uploads", Now: time.Now}, nil
}

func (l *Local) Save(ctx context.Context, folder, filename, contentType string, body io.Reader) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	file, key, err := l.create(folder, ObjectName(l.Now(), filename))
	if err != nil {
		return Object{}, err
	}
	targetPath := file.Name()
	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(file, hasher), body)
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(targetPath)
		return Object{}, err
	}
	if size == 0 {
		_ = os.Remove(targetPath)
		return Object{}, ErrEmptyFile
	}
	return Object{
		Key:         key,
		URL:         l.URLPrefix + "/" + key,
		Filename:    path.Base(key),
		ContentType: contentType,
		Size:        size,
		SHA256:      hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// create opens a new file for name, adding a counter when an upload with the
// same name landed in the same millisecond.
func (l *Local) create(folder, name string) (*os.File, string, error) {
	for attempt := 0; ; attempt++ {
		candidate := name
		if attempt > 0 {
			candidate = strconv.Itoa(attempt) + "_" + name
		}
		key := objectKey(folder, candidate)
		targetPath := filepath.Join(l.Root, filepath.FromSlash(key))
		if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
			return nil, "", err
		}
		file, err := os.OpenFile(targetPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if os.IsExist(err) && attempt < 100 {
			continue
		}
		if err != nil {
			return nil, "", err
		}
		return file, key, nil
	}
}
