package batch

import (
	"log"
	"strconv"
	"strings"
	"time"

	"zsw/internal/failure"
)

// timeFile logs one line per processed file when the returned func runs.
// A failure is logged with its chain, root cause first.
func timeFile(l *log.Logger, path string) func(errp *error) {
	start := time.Now()

	return func(errp *error) {
		dur := time.Since(start)

		if errp != nil && *errp != nil {
			l.Printf("path=%s op=mutate dur=%dms err=%s", path, dur.Milliseconds(), quoteChain(*errp))
			return
		}
		l.Printf("path=%s op=mutate dur=%dms", path, dur.Milliseconds())
	}
}

func quoteChain(err error) string {
	return strconv.Quote(strings.Join(failure.Chain(err), "; while "))
}
