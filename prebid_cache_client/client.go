package prebid_cache_client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/buger/jsonparser"
	"github.com/golang/glog"
	"github.com/prebid/prebid-response-engine/config"
	"github.com/prebid/prebid-response-engine/metrics"
	"github.com/prebid/prebid-response-engine/openrtb_ext"
	"golang.org/x/net/context/ctxhttp"
)

// Client stores values in Prebid Cache. For more info, see https://github.com/prebid/prebid-cache
type Client interface {
	// PutJson stores JSON values for the given openrtb2.Bids in the cache.
	//
	// The returned string slice will always have the same number of elements as the values argument. If a
	// value could not be saved, the element will be an empty string. Implementations are responsible for
	// logging any relevant errors to the app logs
	PutJson(ctx context.Context, values []Cacheable) ([]string, []error)

	// PutJsonWithDebug works like PutJson and also returns the exchanged payloads, nil when no call was made.
	PutJsonWithDebug(ctx context.Context, values []Cacheable) ([]string, []error, *openrtb_ext.ExtHttpCall)

	// GetExtCacheData returns the scheme, host and path of the cache as seen by the creatives.
	GetExtCacheData() (scheme string, host string, path string)
}

type PayloadType string

const (
	TypeJSON PayloadType = "json"
	TypeXML  PayloadType = "xml"
)

type Cacheable struct {
	Type       PayloadType
	Data       json.RawMessage
	TTLSeconds int64
	Key        string
}

func NewClient(httpClient *http.Client, conf *config.Configuration, metrics metrics.MetricsEngine) Client {
	putUrl := conf.GetCacheBaseURL() + conf.CacheURL.Path
	if strings.HasPrefix(putUrl, "//") {
		putUrl = "http:" + putUrl
	}
	return &clientImpl{
		httpClient: httpClient,
		putUrl:     putUrl,
		scheme:     conf.CacheURL.Scheme,
		host:       conf.CacheURL.Host,
		path:       conf.CacheURL.Path,
		timeout:    time.Duration(conf.CacheURL.TimeoutMS) * time.Millisecond,
		metrics:    metrics,
	}
}

type clientImpl struct {
	httpClient *http.Client
	putUrl     string
	scheme     string
	host       string
	path       string
	timeout    time.Duration
	metrics    metrics.MetricsEngine
}

func (c *clientImpl) GetExtCacheData() (string, string, string) {
	path := c.path
	if path == "/" {
		// Only the slash for the path, remove it to empty
		path = ""
	} else if len(path) > 0 && !strings.HasPrefix(path, "/") {
		// Path defined but does not start with "/", prepend it
		path = "/" + path
	}

	return c.scheme, c.host, path
}

func (c *clientImpl) PutJson(ctx context.Context, values []Cacheable) ([]string, []error) {
	uuids, errs, _ := c.PutJsonWithDebug(ctx, values)
	return uuids, errs
}

func (c *clientImpl) PutJsonWithDebug(ctx context.Context, values []Cacheable) (uuids []string, errs []error, call *openrtb_ext.ExtHttpCall) {
	errs = make([]error, 0, 1)
	if len(values) < 1 {
		return nil, errs, nil
	}

	uuidsToReturn := make([]string, len(values))

	postBody := encodeValues(values)
	httpReq, err := http.NewRequest("POST", c.putUrl, bytes.NewReader(postBody))
	if err != nil {
		errs = append(errs, logError("Error creating POST request to prebid cache: %v", err))
		return uuidsToReturn, errs, nil
	}

	httpReq.Header.Add("Content-Type", "application/json;charset=utf-8")
	httpReq.Header.Add("Accept", "application/json")

	call = &openrtb_ext.ExtHttpCall{
		Uri:            c.putUrl,
		RequestBody:    string(postBody),
		RequestHeaders: httpReq.Header.Clone(),
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	startTime := time.Now()
	anResp, err := ctxhttp.Do(ctx, c.httpClient, httpReq)
	elapsedTime := time.Since(startTime)
	if err != nil {
		c.metrics.RecordPrebidCacheRequestTime(false, elapsedTime)
		errs = append(errs, logError("Error sending the request to Prebid Cache: %v; Duration=%v", err, elapsedTime))
		return uuidsToReturn, errs, call
	}
	defer anResp.Body.Close()
	c.metrics.RecordPrebidCacheRequestTime(true, elapsedTime)

	responseBody, err := io.ReadAll(anResp.Body)
	call.Status = anResp.StatusCode
	call.ResponseBody = string(responseBody)
	if err != nil {
		errs = append(errs, logError("Error reading the Prebid Cache response: %v", err))
		return uuidsToReturn, errs, call
	}
	if anResp.StatusCode != http.StatusOK {
		errs = append(errs, logError("Prebid Cache call to %s returned %d: %s", c.putUrl, anResp.StatusCode, responseBody))
		return uuidsToReturn, errs, call
	}

	currentIndex := 0
	processResponse := func(uuidObj []byte, _ jsonparser.ValueType, _ int, err error) {
		if currentIndex >= len(uuidsToReturn) {
			errs = append(errs, logError("Prebid Cache returned more than the %d values sent", len(uuidsToReturn)))
			return
		}
		if uuid, valueType, _, err := jsonparser.Get(uuidObj, "uuid"); err != nil {
			errs = append(errs, logError("Prebid Cache returned a bad value at index %d. Error was: %v. Response body was: %s", currentIndex, err, string(responseBody)))
		} else if valueType != jsonparser.String {
			errs = append(errs, logError("Prebid Cache returned a %v at index %d in: %v", valueType, currentIndex, string(responseBody)))
		} else {
			if uuidsToReturn[currentIndex], err = jsonparser.ParseString(uuid); err != nil {
				errs = append(errs, logError("Prebid Cache response index %d could not be parsed as string: %v", currentIndex, err))
				uuidsToReturn[currentIndex] = ""
			}
		}
		currentIndex++
	}

	if _, err := jsonparser.ArrayEach(responseBody, processResponse, "responses"); err != nil {
		errs = append(errs, logError("Error interpreting Prebid Cache response: %v\nResponse was: %s", err, string(responseBody)))
		return uuidsToReturn, errs, call
	}

	return uuidsToReturn, errs, call
}

func logError(format string, args ...interface{}) error {
	err := fmt.Errorf(format, args...)
	glog.Error(err)
	return err
}

func encodeValues(values []Cacheable) []byte {
	// values holds at least one element, PutJsonWithDebug returns early otherwise.
	var buf bytes.Buffer
	buf.WriteString(`{"puts":[`)
	for i := 0; i < len(values); i++ {
		encodeValueToBuffer(values[i], i != 0, &buf)
	}
	buf.WriteString("]}")
	return buf.Bytes()
}

func encodeValueToBuffer(value Cacheable, leadingComma bool, buffer *bytes.Buffer) {
	if leadingComma {
		buffer.WriteByte(',')
	}

	buffer.WriteString(`{"type":"`)
	buffer.WriteString(string(value.Type))
	if value.TTLSeconds > 0 {
		buffer.WriteString(`","ttlseconds":`)
		buffer.WriteString(strconv.FormatInt(value.TTLSeconds, 10))
		buffer.WriteString(`,"value":`)
	} else {
		buffer.WriteString(`","value":`)
	}
	buffer.Write(value.Data)
	if len(value.Key) > 0 {
		buffer.WriteString(`,"key":"`)
		buffer.WriteString(value.Key)
		buffer.WriteString(`"`)
	}
	buffer.WriteByte('}')
}
