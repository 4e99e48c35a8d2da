package application

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

type CodeSource interface {
	Generate() (string, error)
}

// CodeGenerator produces fixed-length numeric codes. Uniqueness is left to
// the store.
type CodeGenerator struct {
	length int
}

func NewCodeGenerator(length int) *CodeGenerator {
	return &CodeGenerator{length: length}
}

func (g *CodeGenerator) Generate() (string, error) {
	var sb strings.Builder
	sb.Grow(g.length)
	ten := big.NewInt(10)
	for i := 0; i < g.length; i++ {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("failed to generate code: %w", err)
		}
		sb.WriteByte(byte('0' + d.Int64()))
	}
	return sb.String(), nil
}
