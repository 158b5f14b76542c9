package market

import (
	"fmt"
	"strings"
)

// Side is the direction of a signal or position.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

func (s Side) String() string { return string(s) }

// Sign is +1 for BUY and -1 for SELL.
func (s Side) Sign() float64 {
	if s == Sell {
		return -1
	}
	return 1
}

func (s Side) Valid() bool { return s == Buy || s == Sell }

func ParseSide(v string) (Side, error) {
	switch Side(strings.ToUpper(strings.TrimSpace(v))) {
	case Buy:
		return Buy, nil
	case Sell:
		return Sell, nil
	}
	return "", fmt.Errorf("unknown side %q", v)
}
