package endpoints

import (
	"net/http"

	"github.com/golang/glog"

	"github.com/prebid/prebid-response-engine/util/jsonutil"
)

const versionNotSet = "not-set"

type versionResponse struct {
	Revision string `json:"revision"`
	Version  string `json:"version"`
}

// NewVersionEndpoint serves the build version and revision of the binary as json.
func NewVersionEndpoint(version, revision string) http.HandlerFunc {
	body, err := jsonutil.Marshal(versionResponse{
		Revision: valueOrNotSet(revision),
		Version:  valueOrNotSet(version),
	})
	if err != nil {
		glog.Fatalf("error creating /version endpoint response: %v", err)
	}

	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}
}

func valueOrNotSet(value string) string {
	if value == "" {
		return versionNotSet
	}
	return value
}
