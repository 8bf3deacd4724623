package xgoesi

import (
	"net/http"
	"strings"
)

const (
	datasourceParam   = "datasource"
	DatasourceDefault = "tranquility"
	esiHost           = "esi.evetech.net"
)

// DatasourceTransport is a transport which adds the datasource query parameter
// to all requests to ESI which do not specify one.
type DatasourceTransport struct {
	// The RoundTripper interface actually used to make requests
	// If nil, http.DefaultTransport is used
	Transport http.RoundTripper

	// Datasource to use. Defaults to tranquility.
	Datasource string
}

var _ http.RoundTripper = (*DatasourceTransport)(nil)

func (dt *DatasourceTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	transport := dt.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if !strings.EqualFold(req.URL.Hostname(), esiHost) {
		return transport.RoundTrip(req)
	}
	q := req.URL.Query()
	if q.Has(datasourceParam) {
		return transport.RoundTrip(req)
	}
	ds := dt.Datasource
	if ds == "" {
		ds = DatasourceDefault
	}
	q.Set(datasourceParam, ds)
	req2 := req.Clone(req.Context())
	req2.URL.RawQuery = q.Encode()
	return transport.RoundTrip(req2)
}
