package domain

import (
	"bytes"
	"errors"
	"strconv"
)

type Side uint8

const (
	SideBuy Side = iota
	SideSell

	sideBuyStr  = "buy"
	sideSellStr = "sell"
)

var (
	sideBuyBytes  = []byte(`"buy"`)
	sideSellBytes = []byte(`"sell"`)
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return sideBuyStr
	case SideSell:
		return sideSellStr
	}
	return "side(" + strconv.Itoa(int(s)) + ")"
}

func (s Side) MarshalJSON() ([]byte, error) {
	switch s {
	case SideBuy:
		return sideBuyBytes, nil
	case SideSell:
		return sideSellBytes, nil
	}
	return nil, errors.New("invalid order side json conversion: " + strconv.Itoa(int(s)))
}

func (s *Side) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, sideBuyBytes) {
		*s = SideBuy
		return nil
	}
	if bytes.Equal(data, sideSellBytes) {
		*s = SideSell
		return nil
	}
	return errors.New("unsupported order side: " + string(data))
}
