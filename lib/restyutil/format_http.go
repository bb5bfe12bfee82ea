package restyutil

import (
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// exchange is one request/response pair as it is written to a dump file.
type exchange struct {
	method      string
	requestUrl  string
	requestHead http.Header
	requestBody string

	status       string
	finalUrl     string
	elapsed      time.Duration
	responseHead http.Header
	responseBody []byte
}

func newExchange(res *resty.Response) exchange {
	raw := res.Request.RawRequest

	finalUrl := res.Request.URL
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		finalUrl = res.RawResponse.Request.URL.String()
	}

	return exchange{
		method:       res.Request.Method,
		requestUrl:   res.Request.URL,
		requestHead:  raw.Header,
		requestBody:  requestBody(raw),
		status:       res.Status(),
		finalUrl:     finalUrl,
		elapsed:      res.Time(),
		responseHead: res.Header(),
		responseBody: res.Body(),
	}
}

// requestBody is empty for the GETs the extractor makes.
func requestBody(req *http.Request) string {
	if req.GetBody == nil {
		return ""
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Sprintf("<unreadable body: %s>", err)
	}
	defer body.Close()
	contents, err := io.ReadAll(body)
	if err != nil {
		return fmt.Sprintf("<unreadable body: %s>", err)
	}
	return string(contents)
}

func writeHeaders(out *strings.Builder, prefix string, headers http.Header) {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		for _, v := range headers[k] {
			fmt.Fprintf(out, "%s%s: %s\n", prefix, k, v)
		}
	}
}

// String renders the exchange as:
//
//	> GET <url>
//	> Header: value
//	(request body)
//
//	< 200 OK <final url> (<elapsed>, <n> bytes)
//	< Header: value
//
//	(response body)
func (e exchange) String() string {
	var out strings.Builder

	fmt.Fprintf(&out, "> %s %s\n", e.method, e.requestUrl)
	writeHeaders(&out, "> ", e.requestHead)
	if e.requestBody != "" {
		out.WriteString(e.requestBody)
		out.WriteString("\n")
	}
	out.WriteString("\n")

	fmt.Fprintf(
		&out, "< %s %s (%s, %d bytes)\n",
		e.status, e.finalUrl, e.elapsed.Round(time.Millisecond), len(e.responseBody),
	)
	writeHeaders(&out, "< ", e.responseHead)
	out.WriteString("\n")
	out.Write(e.responseBody)

	return out.String()
}
