package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/n1k61n/web3-sosial/host"
	"github.com/n1k61n/web3-sosial/ledger"
	"github.com/n1k61n/web3-sosial/logger"
	"github.com/n1k61n/web3-sosial/social"
)

func TestRequestMetricsUseRouteTemplate(t *testing.T) {
	logger.Logger = zap.NewNop()

	clock := func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	tokenLedger := ledger.New("0xowner", 1_000_000, ledger.DefaultPolicy(), clock)
	graph := social.NewGraph(tokenLedger, clock)
	h := NewHandler(host.New(tokenLedger, graph, nil, nil, clock, 0))

	if _, err := h.Host.CreateProfile("0xauthor", "author", "ipfs://a"); err != nil {
		t.Fatalf("create profile failed: %v", err)
	}
	if _, err := h.Host.CreatePost("0xauthor", "ipfs://post1"); err != nil {
		t.Fatalf("create post failed: %v", err)
	}

	const tpl = "/posts/{id:[0-9]+}"
	router := mux.NewRouter()
	router.HandleFunc(tpl, h.GetPost).Methods("GET")

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/posts/1", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body: %s", res.Code, res.Body.String())
	}

	// The counter is labeled with the route template, never the raw path:
	// raw paths would push every post ID and address into the label space.
	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", tpl, "200")); got < 1 {
		t.Fatalf("expected template-labeled counter >= 1, got %v", got)
	}
	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/posts/1", "200")); got != 0 {
		t.Fatalf("expected no raw-path series, got %v", got)
	}
}
