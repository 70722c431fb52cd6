package service

import (
	"fmt"
	"strings"
)

func f2(v float64) string { // для красивого вывода
	return fmt.Sprintf("%+.2f", v)
}

// normNumber: "100,5" -> "100.5".
func normNumber(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
}
