package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// LoadHex returns the bytes of a hex fixture from the testdata directory.
func LoadHex(t *testing.T, rel string) []byte {
	t.Helper()
	return DecodeHex(t, string(readTestdata(t, rel)))
}

// LoadFile returns a testdata file as stored.
func LoadFile(t *testing.T, rel string) []byte {
	t.Helper()
	return readTestdata(t, rel)
}

func readTestdata(t *testing.T, rel string) []byte {
	t.Helper()
	candidates := []string{
		filepath.Join("testdata", rel),
		filepath.Join("..", "testdata", rel),
		filepath.Join("..", "..", "testdata", rel),
	}
	for _, path := range candidates {
		if data, err := os.ReadFile(path); err == nil {
			return data
		}
	}
	t.Fatalf("unable to locate testdata file %s", rel)
	return nil
}
