package handlers

import (
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
)

func parseLocale(raw string) (language.Tag, error) {
	return language.Parse(strings.ReplaceAll(strings.TrimSpace(raw), "_", "-"))
}

func itoaCeil(d time.Duration) string {
	return strconv.Itoa(int(math.Ceil(d.Seconds())))
}
