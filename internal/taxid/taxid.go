// Package taxid validates and formats 14-digit CNPJ tax identifiers.
package taxid

import "strings"

const length = 14

var (
	firstWeights  = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	secondWeights = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// Digits strips every non-digit character from id
func Digits(id string) string {
	var b strings.Builder
	b.Grow(len(id))
	for _, r := range id {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsValid reports whether id holds exactly 14 digits whose two trailing
// check digits match the weighted modulo-11 sums of the preceding ones.
func IsValid(id string) bool {
	digits := Digits(id)
	if len(digits) != length {
		return false
	}

	nums := make([]int, length)
	for i := range digits {
		nums[i] = int(digits[i] - '0')
	}

	if checkDigit(nums[:12], firstWeights) != nums[12] {
		return false
	}
	return checkDigit(nums[:13], secondWeights) == nums[13]
}

func checkDigit(nums, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += nums[i] * w
	}
	d := 11 - sum%11
	if d > 9 {
		return 0
	}
	return d
}

// Format renders id as NN.NNN.NNN/NNNN-NN. Input that does not reduce to
// 14 digits is returned unchanged.
func Format(id string) string {
	d := Digits(id)
	if len(d) != length {
		return id
	}
	return d[0:2] + "." + d[2:5] + "." + d[5:8] + "/" + d[8:12] + "-" + d[12:14]
}
