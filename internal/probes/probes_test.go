package probes

import (
	"net/http"
	"net/http/httptest"

	"github.com/blackcoderx/apisentinel/internal/authinject"
	"github.com/blackcoderx/apisentinel/internal/httpclient"
	"github.com/blackcoderx/apisentinel/internal/model"
)

// newTestContext builds a Context pointed at srv, with a generous rate
// and budget so probe tests never trip the limiter or the budget cap.
func newTestContext(srv *httptest.Server, snap model.SpecSnapshot, flags model.Flags) *Context {
	client := httpclient.New(srv.URL, 1000, 1000)
	return &Context{
		Snapshot: snap,
		Client:   client,
		Auth:     authinject.New(snap.Schemes, flags.FuzzAuth),
		BaseURL:  srv.URL,
		Flags:    flags,
	}
}

func handlerFunc(fn func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(fn))
}
