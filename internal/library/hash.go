package library

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
)

// hashBytes is how much of a file identifies it.
const hashBytes = 8192

// ComputeHash returns 32 hex chars of the sha256 of the first 8KB of a
// file. Two files with the same opening are treated as the same document.
func ComputeHash(filename string) (string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return hashReader(f)
}

func hashReader(r io.Reader) (string, error) {
	buf := make([]byte, hashBytes)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	sum := sha256.Sum256(buf[:n])
	return hex.EncodeToString(sum[:16]), nil
}
