package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// Seat layouts per class: seats per row and the letters used for them.
// Sleeper classes use berth labels instead.
var seatLayouts = map[string]struct {
	seatsPerRow int
	letters     []string
}{
	"second_class": {5, []string{"A", "B", "C", "D", "F"}},
	"first_class":  {4, []string{"A", "C", "D", "F"}},
	"business":     {2, []string{"A", "F"}},
}

var hardSleeperBerths = []string{"upper", "middle", "lower"}

// FormatSeatNumber converts a raw seat number ("7") into its display form
// for the class: "02B" for seated classes, "04 lower" for sleepers.
// Unparseable input is returned unchanged.
func FormatSeatNumber(seatNo, seatClass string) string {
	clean := seatNo
	if i := strings.Index(seatNo, "-"); i >= 0 {
		clean = seatNo[i+1:]
	}

	num, err := strconv.Atoi(clean)
	if err != nil {
		return seatNo
	}

	if layout, ok := seatLayouts[seatClass]; ok {
		row := (num + layout.seatsPerRow - 1) / layout.seatsPerRow
		letter := layout.letters[(num-1)%layout.seatsPerRow]
		return fmt.Sprintf("%02d%s", row, letter)
	}

	switch seatClass {
	case "soft_sleeper":
		berth := "lower"
		if num%2 == 1 {
			berth = "upper"
		}
		return fmt.Sprintf("%02d %s", num, berth)
	case "hard_sleeper":
		// three berths per compartment number
		compartment := (num + 2) / 3
		berth := hardSleeperBerths[(num-1)%3]
		return fmt.Sprintf("%02d %s", compartment, berth)
	}

	return fmt.Sprintf("%02d", num)
}

// FormatFullSeatNumber renders "car 03, seat 01A" from a car number and a raw
// seat number.
func FormatFullSeatNumber(carNo int, seatNo, seatClass string) string {
	return fmt.Sprintf("car %02d, seat %s", carNo, FormatSeatNumber(seatNo, seatClass))
}
