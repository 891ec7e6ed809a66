package utils

import (
	"strconv"

	"github.com/geocoder89/fintrack/internal/domain/transaction"
)

// generation keys never expire; rotating one orphans every report key built from the old value.
func BuildReportGenerationKey(userID int64) string {
	return "reports:v1:gen:user=" + strconv.FormatInt(userID, 10)
}

func BuildReportCacheKey(kind string, userID int64, generation string, w transaction.Window) string {
	return "reports:v1:" + kind +
		":user=" + strconv.FormatInt(userID, 10) +
		":gen=" + generation +
		":year=" + strconv.Itoa(w.Year) +
		":month=" + strconv.Itoa(w.Month)
}
