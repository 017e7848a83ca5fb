// Package fileutil reads and writes the files a scrape run leaves behind:
// workbooks, images, page snapshots.
package fileutil

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
)

// Exists reports whether path points at anything at all.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func checkRegular(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", path)
	}
	return nil
}

// ReadBytes reads a regular file whole. Directories and other non-regular
// paths are refused instead of producing confusing downstream errors.
func ReadBytes(path string) ([]byte, error) {
	if err := checkRegular(path); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

func ReadString(path string) (string, error) {
	data, err := ReadBytes(path)
	return string(data), err
}

// WriteBytes writes data to path, creating missing parent directories.
// With replace false an existing file is appended to instead of
// truncated.
func WriteBytes(path string, data []byte, replace bool) error {
	if Exists(path) {
		if err := checkRegular(path); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	flag := os.O_CREATE | os.O_WRONLY
	if replace {
		flag |= os.O_TRUNC
	} else {
		flag |= os.O_APPEND
	}
	f, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func WriteString(path string, data string, replace bool) error {
	return WriteBytes(path, []byte(data), replace)
}

// Ext pulls the file extension, dot included, out of a url or plain path.
// Query strings do not leak into it. Empty when there is none.
func Ext(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err == nil && u.Path != "" {
		return path.Ext(u.Path)
	}
	return path.Ext(rawURL)
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// SafeName flattens s into something usable as a single path element.
func SafeName(s string) string {
	return unsafeNameChars.ReplaceAllString(s, "_")
}
