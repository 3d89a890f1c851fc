package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// NewProjectID generates a human-readable public ID for a project,
// e.g. "prj-12345-6789".
func NewProjectID() (string, error) {
	a, err := randInt(10000, 99999)
	if err != nil {
		return "", err
	}
	b, err := randInt(1000, 9999)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("prj-%05d-%04d", a, b), nil
}

// NewTaskID generates an opaque task id, e.g. "tsk_a1b2c3...".
func NewTaskID() (string, error) {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "tsk_" + hex.EncodeToString(b), nil
}

func randInt(min, max int64) (int64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(max-min+1))
	if err != nil {
		return 0, err
	}
	return min + n.Int64(), nil
}
