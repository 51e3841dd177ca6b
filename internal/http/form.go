package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"brosolve-backend-go/internal/services"
)

const maxUploadMemory = 32 << 20

// requestForm is the flattened body of a form post: scalar fields plus any
// uploaded files. Multipart, urlencoded and JSON bodies are all accepted.
type requestForm struct {
	values  map[string]string
	fields  []string
	files   []services.Upload
	closers []io.Closer
	multi   *multipart.Form
}

func parseForm(r *http.Request) (*requestForm, error) {
	form := &requestForm{values: map[string]string{}}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			return nil, err
		}
		form.multi = r.MultipartForm
		for key, values := range r.MultipartForm.Value {
			if len(values) > 0 {
				form.values[key] = values[0]
			}
		}
		keys := make([]string, 0, len(r.MultipartForm.File))
		for key := range r.MultipartForm.File {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			for _, header := range r.MultipartForm.File[key] {
				file, err := header.Open()
				if err != nil {
					form.Close()
					return nil, err
				}
				contentType := header.Header.Get("Content-Type")
				if contentType == "" {
					contentType = "application/octet-stream"
				}
				form.closers = append(form.closers, file)
				form.fields = append(form.fields, key)
				form.files = append(form.files, services.Upload{Filename: header.Filename, ContentType: contentType, Body: file})
			}
		}
	case "application/json":
		raw := map[string]interface{}{}
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		for key, value := range raw {
			switch v := value.(type) {
			case string:
				form.values[key] = v
			case bool:
				form.values[key] = strconv.FormatBool(v)
			case float64:
				form.values[key] = strconv.FormatFloat(v, 'f', -1, 64)
			}
		}
	default:
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		for key := range r.PostForm {
			form.values[key] = r.PostForm.Get(key)
		}
	}
	return form, nil
}

func (f *requestForm) Value(key string) string {
	return f.values[key]
}

// Bool returns nil when the field is absent or not a boolean.
func (f *requestForm) Bool(key string) *bool {
	raw, ok := f.values[key]
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	return &value
}

// Files returns every upload regardless of field name.
func (f *requestForm) Files() []services.Upload {
	return f.files
}

// File returns the first upload sent under field.
func (f *requestForm) File(field string) *services.Upload {
	for i, name := range f.fields {
		if name == field {
			upload := f.files[i]
			return &upload
		}
	}
	return nil
}

func (f *requestForm) Close() {
	for _, c := range f.closers {
		_ = c.Close()
	}
	if f.multi != nil {
		_ = f.multi.RemoveAll()
	}
}
