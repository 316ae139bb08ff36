package testsupport

import (
	"bytes"
	"os"
)

// LoadFixture returns the raw fixture bytes with surrounding whitespace
// removed, so golden files may end with a newline.
func LoadFixture(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return bytes.TrimSpace(data), nil
}
