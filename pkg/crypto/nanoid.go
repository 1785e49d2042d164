package crypto

import (
	"crypto/rand"
	"errors"
	"math"
)

const (
	// URLAlphabet is safe to use unescaped in paths, cookies and JSON
	URLAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"

	DefaultIDSize   = 22 // 22 * 6 = 132 bits, more than a UUID
	minAlphabetSize = 8
)

var (
	ErrAlphabetTooShort  = errors.New("alphabet must contain at least 8 characters")
	ErrAlphabetNotASCII  = errors.New("alphabet must contain only ASCII characters")
	ErrAlphabetDuplicate = errors.New("alphabet must not repeat characters")
	ErrInvalidIDSize     = errors.New("id size must be positive")
)

// IDGenerator produces random identifiers drawn uniformly from an alphabet
type IDGenerator struct {
	alphabet string
	mask     int
}

// NewIDGenerator validates alphabet. An empty alphabet selects URLAlphabet.
func NewIDGenerator(alphabet string) (*IDGenerator, error) {
	if alphabet == "" {
		alphabet = URLAlphabet
	}

	// NewSize indexes by byte, so multi-byte runes are out. That also caps
	// the alphabet at 128 characters.
	seen := make(map[rune]bool, len(alphabet))
	for _, r := range alphabet {
		if r > 127 {
			return nil, ErrAlphabetNotASCII
		}
		if seen[r] {
			return nil, ErrAlphabetDuplicate
		}
		seen[r] = true
	}

	if len(alphabet) < minAlphabetSize {
		return nil, ErrAlphabetTooShort
	}

	return &IDGenerator{
		alphabet: alphabet,
		mask:     maskFor(len(alphabet)),
	}, nil
}

// maskFor returns the smallest 2^n-1 covering every alphabet index
func maskFor(alphabetLen int) int {
	mask := 1
	for mask < alphabetLen-1 {
		mask = mask<<1 | 1
	}
	return mask
}

func (g *IDGenerator) New() (string, error) {
	return g.NewSize(DefaultIDSize)
}

func (g *IDGenerator) NewSize(size int) (string, error) {
	if size <= 0 {
		return "", ErrInvalidIDSize
	}

	alphabetLen := len(g.alphabet)
	step := int(math.Ceil(1.6 * float64(g.mask*size) / float64(alphabetLen)))

	id := make([]byte, 0, size)
	buf := make([]byte, step)

	for len(id) < size {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}

		// rejection sampling keeps the distribution uniform
		for _, b := range buf {
			idx := int(b) & g.mask
			if idx >= alphabetLen {
				continue
			}
			id = append(id, g.alphabet[idx])
			if len(id) == size {
				break
			}
		}
	}

	return string(id), nil
}
