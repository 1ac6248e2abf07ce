package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi"
	chirender "github.com/go-chi/render"
	chitrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/go-chi/chi"

	"github.com/nikolaydubina/bag-treemap/bagtreemap"
	"github.com/nikolaydubina/bag-treemap/logging"
)

const shutdownTimeout = 5 * time.Second

// showServer serves rendered page until it is fetched once.
type showServer struct {
	page        []byte
	contentType string
	nodes       []bagtreemap.HierarchyNode
	served      chan struct{}
	once        sync.Once
}

func newShowServer(page []byte, contentType string, nodes []bagtreemap.HierarchyNode) *showServer {
	return &showServer{
		page:        page,
		contentType: contentType,
		nodes:       nodes,
		served:      make(chan struct{}),
	}
}

func (s *showServer) Router() http.Handler {
	router := chi.NewRouter()

	router.Use(
		chitrace.Middleware(chitrace.WithServiceName(serviceName)),
	)

	router.Get("/", s.pageHandler)
	router.Get("/nodes", s.nodesHandler)

	return router
}

func (s *showServer) pageHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", s.contentType)
	if _, err := w.Write(s.page); err != nil {
		logging.Logger.Warn("can not write page", "err", err)
		return
	}
	s.once.Do(func() { close(s.served) })
}

func (s *showServer) nodesHandler(w http.ResponseWriter, r *http.Request) {
	if s.nodes == nil {
		chirender.Status(r, http.StatusNotFound)
		chirender.JSON(w, r, "no hierarchy for this format")
		return
	}
	chirender.JSON(w, r, s.nodes)
}

// show serves page on addr and returns after page is fetched once or ctx is done.
func show(ctx context.Context, addr string, page []byte, contentType string, nodes []bagtreemap.HierarchyNode) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("can not listen: %w", err)
	}

	s := newShowServer(page, contentType, nodes)
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	logging.Logger.Info("serving treemap, open it in browser", "url", "http://"+ln.Addr().String()+"/")

	var result error
	select {
	case <-s.served:
	case <-ctx.Done():
		result = fmt.Errorf("page was not opened: %w", ctx.Err())
	case err := <-errc:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Join(result, err)
	}
	return result
}
