package aspects

import (
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"github.com/prebid/prebid-response-engine/config"
)

// QueuedRequestTimeout rejects requests which waited in the proxy queue for longer than the proxy
// allowed. Requests without both headers are served as usual.
func QueuedRequestTimeout(f httprouter.Handle, headers config.RequestTimeoutHeaders) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		timeInQueue := r.Header.Get(headers.RequestTimeInQueue)
		timeoutInQueue := r.Header.Get(headers.RequestTimeoutInQueue)

		if timeInQueue == "" || timeoutInQueue == "" {
			f(w, r, params)
			return
		}

		waited, waitedErr := strconv.ParseFloat(timeInQueue, 64)
		allowed, allowedErr := strconv.ParseFloat(timeoutInQueue, 64)
		if waitedErr != nil || allowedErr != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("Request timeout headers are not numbers"))
			return
		}

		if waited >= allowed {
			w.WriteHeader(http.StatusRequestTimeout)
			w.Write([]byte("Queued request processing time exceeded maximum"))
			return
		}

		f(w, r, params)
	}
}
