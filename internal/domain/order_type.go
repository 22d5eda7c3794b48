package domain

import (
	"errors"
	"strconv"
	"strings"
)

type OrderType uint8

const (
	OrderTypeMarket OrderType = iota
	OrderTypeLimit
)

var orderTypeNames = map[OrderType]string{
	OrderTypeMarket: "market",
	OrderTypeLimit:  "limit",
}

func (t OrderType) String() string {
	if s, ok := orderTypeNames[t]; ok {
		return s
	}
	return "order_type(" + strconv.Itoa(int(t)) + ")"
}

func (t OrderType) MarshalJSON() ([]byte, error) {
	s, ok := orderTypeNames[t]
	if !ok {
		return nil, errors.New("invalid order type json conversion: " + strconv.Itoa(int(t)))
	}
	return []byte(strconv.Quote(s)), nil
}

func (t *OrderType) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return errors.New("unsupported order type: " + string(data))
	}
	v, err := ParseOrderType(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseOrderType accepts "market" or "limit", case-insensitively.
func ParseOrderType(value string) (OrderType, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	for t, name := range orderTypeNames {
		if name == v {
			return t, nil
		}
	}
	return 0, errors.New("unsupported order type: " + value)
}
