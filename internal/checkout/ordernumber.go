package checkout

import (
	"math/rand/v2"
	"strconv"
)

// Order numbers are six digits with no leading zero.
const (
	minOrderNumber = 100000
	maxOrderNumber = 999999
)

// OrderNumberGenerator produces order numbers.
type OrderNumberGenerator interface {
	Next() string
}

// OrderNumberFunc adapts a function to OrderNumberGenerator.
type OrderNumberFunc func() string

// Next calls f.
func (f OrderNumberFunc) Next() string { return f() }

// RandomOrderNumbers draws uniformly from 100000–999999.
var RandomOrderNumbers OrderNumberGenerator = OrderNumberFunc(func() string {
	return strconv.Itoa(minOrderNumber + rand.IntN(maxOrderNumber-minOrderNumber+1))
})
