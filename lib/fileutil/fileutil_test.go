package fileutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadWriteRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.txt")

	require.NoError(t, WriteString(path, "hello", true))
	out, err := ReadString(path)
	require.NoError(t, err)
	require.Equal(t, "hello", out)
}

func TestWriteReplace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")

	require.NoError(t, WriteString(path, "first", true))
	require.NoError(t, WriteString(path, "second", true))

	out, err := ReadString(path)
	require.NoError(t, err)
	require.Equal(t, "second", out)
}

func TestWriteAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")

	require.NoError(t, WriteString(path, "one,", false))
	require.NoError(t, WriteString(path, "two", false))

	out, err := ReadString(path)
	require.NoError(t, err)
	require.Equal(t, "one,two", out)
}

func TestReadMissing(t *testing.T) {
	_, err := ReadBytes(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
	require.True(t, os.IsNotExist(err))
}

func TestReadDirectoryRefused(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadBytes(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not a regular file")

	err = WriteBytes(dir, []byte("x"), true)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not a regular file")
}

func TestExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	require.False(t, Exists(path))
	require.NoError(t, WriteString(path, "x", true))
	require.True(t, Exists(path))
}

func TestExt(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"https://s13emagst.akamaized.net/products/a.jpg?width=720&height=720", ".jpg"},
		{"https://m.media-amazon.com/images/I/81x.png", ".png"},
		{"plain/file.jpeg", ".jpeg"},
		{"https://allegro.pl/oferta/12345678901", ""},
		{"noext", ""},
	}
	for _, test := range cases {
		require.Equal(t, test.expected, Ext(test.in), "input: %q", test.in)
	}
}

func TestSafeName(t *testing.T) {
	require.Equal(t, "usb_stick_64gb", SafeName("usb stick/64gb"))
	require.Equal(t, "a.b-c_d", SafeName("a.b-c?d"))
}
