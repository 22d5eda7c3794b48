package domain

import (
	"errors"
	"strconv"
	"strings"
)

type TimeInForce uint8

const (
	TimeInForceDay TimeInForce = iota // expires at the end of the regular session
	TimeInForceGTC                    // good till cancelled
	TimeInForceOPG                    // market/limit on open
	TimeInForceCLS                    // market/limit on close
	TimeInForceIOC                    // immediate or cancel
	TimeInForceFOK                    // fill or kill
)

var timeInForceNames = map[TimeInForce]string{
	TimeInForceDay: "day",
	TimeInForceGTC: "gtc",
	TimeInForceOPG: "opg",
	TimeInForceCLS: "cls",
	TimeInForceIOC: "ioc",
	TimeInForceFOK: "fok",
}

func (tif TimeInForce) String() string {
	if s, ok := timeInForceNames[tif]; ok {
		return s
	}
	return "time_in_force(" + strconv.Itoa(int(tif)) + ")"
}

func (tif TimeInForce) MarshalJSON() ([]byte, error) {
	s, ok := timeInForceNames[tif]
	if !ok {
		return nil, errors.New("invalid time in force json conversion: " + strconv.Itoa(int(tif)))
	}
	return []byte(strconv.Quote(s)), nil
}

func (tif *TimeInForce) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return errors.New("unsupported time in force: " + string(data))
	}
	v, err := ParseTimeInForce(s)
	if err != nil {
		return err
	}
	*tif = v
	return nil
}

func ParseTimeInForce(value string) (TimeInForce, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	for tif, name := range timeInForceNames {
		if name == v {
			return tif, nil
		}
	}
	return 0, errors.New("unsupported time in force: " + value)
}
