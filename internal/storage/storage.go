// Package storage saves uploaded complaint files and voice notes.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	FolderFiles = ""
	FolderAudio = "audio"
)

var ErrEmptyFile = errors.New("empty file")

type Object struct {
	Key         string
	URL         string
	Filename    string
	ContentType string
	Size        int64
	SHA256      string
}

type Storage interface {
	Save(ctx context.Context, folder, filename, contentType string, body io.Reader) (Object, error)
}

// ObjectName builds the stored file name: upload time in milliseconds, a dash,
// then the client file name with whitespace replaced by underscores.
func ObjectName(now time.Time, original string) string {
	base := filepath.Base(strings.ReplaceAll(original, `\`, "/"))
	if base == "." || base == "/" || base == "" {
		base = "file"
	}
	base = strings.Join(strings.Fields(base), "_")
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + base
}

func objectKey(folder, name string) string {
	if folder == "" {
		return name
	}
	return path.Join(folder, name)
}
