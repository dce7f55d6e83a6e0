package normalize

import "strings"

// ISBN keeps digits of the ISBN-13 number.
type ISBN struct {
	Digits string
	valid  bool
}

// ParseISBN removes everything but decimal digits and validates checksum.
func ParseISBN(raw string) ISBN {
	digits := strings.Map(func(r rune) rune {
		if '0' <= r && r <= '9' {
			return r
		}
		return -1
	}, raw)
	return ISBN{Digits: digits, valid: checkISBN13(digits)}
}

// IsValid reports whether number has exactly 13 digits and correct checksum.
func (i ISBN) IsValid() bool {
	return i.valid
}

func (i ISBN) String() string {
	return i.Digits
}

func checkISBN13(digits string) bool {
	if len(digits) != 13 {
		return false
	}
	sum := 0
	for i := range 12 {
		c := digits[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if i%2 == 0 {
			sum += d
		} else {
			sum += 3 * d
		}
	}
	last := digits[12]
	if last < '0' || last > '9' {
		return false
	}
	return (10-sum%10)%10 == int(last-'0')
}
