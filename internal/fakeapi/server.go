// Package fakeapi provides an in-process Sendspace API double for tests. It
// serves scripted XML responses on the REST endpoint and accepts multipart
// uploads on a separate path, recording everything it receives.
package fakeapi

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

const (
	restPath   = "/rest/"
	uploadPath = "/upload"
)

// Server is a fake Sendspace API backed by a gin router.
type Server struct {
	router *gin.Engine
	srv    *httptest.Server

	mu         sync.Mutex
	responses  map[string][]string
	uploadBody string
	calls      []Call
	uploads    []Upload
}

// New starts a fake API server. Callers must Close it.
func New() *Server {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		router:    router,
		responses: make(map[string][]string),
	}

	handler := &Handler{server: s}
	router.GET(restPath, handler.Method)
	router.POST(uploadPath, handler.Upload)

	s.srv = httptest.NewServer(router)
	return s
}

// Close shuts the server down.
func (s *Server) Close() {
	s.srv.Close()
}

// APIURL is the REST endpoint to hand to the client.
func (s *Server) APIURL() string {
	return s.srv.URL + restPath
}

// UploadURL is the multipart upload endpoint.
func (s *Server) UploadURL() string {
	return s.srv.URL + uploadPath
}

// GetRouter returns the underlying gin router (useful for testing)
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Respond queues a raw response body for method. Queued bodies are served in
// order; the last one is repeated once the queue is drained.
func (s *Server) Respond(method, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[method] = append(s.responses[method], body)
}

// RespondOK queues a successful result document with the given children.
func (s *Server) RespondOK(method string, children ...string) {
	s.Respond(method, Result(method, "ok", children...))
}

// RespondFail queues a failed result document with an error entry.
func (s *Server) RespondFail(method string, code int, text string) {
	s.Respond(method, Result(method, "fail", fmt.Sprintf(`<error code="%d" text="%s"/>`, code, text)))
}

// RespondUpload sets the body returned by the upload endpoint.
func (s *Server) RespondUpload(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploadBody = body
}

// Calls returns every REST call received so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsFor returns the REST calls received for method.
func (s *Server) CallsFor(method string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Uploads returns every upload received so far.
func (s *Server) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Upload(nil), s.uploads...)
}

func (s *Server) nextResponse(method string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue := s.responses[method]
	if len(queue) == 0 {
		return "", false
	}
	body := queue[0]
	if len(queue) > 1 {
		s.responses[method] = queue[1:]
	}
	return body, true
}

func (s *Server) recordCall(c Call) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, c)
}

func (s *Server) recordUpload(u Upload) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads = append(s.uploads, u)
	return s.uploadBody
}

// Result renders a result document.
func Result(method, status string, children ...string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<result method="%s" status="%s">
%s
</result>`, method, status, strings.Join(children, "\n"))
}

// UploadInfo renders the <upload> entry of an upload.getinfo response.
func UploadInfo(uploadURL string, maxFileSize int64) string {
	return fmt.Sprintf(`<upload url="%s" progress_url="%s?progress=1" max_file_size="%d" upload_identifier="upl-42" extra_info="opaque|blob"/>`,
		uploadURL, uploadURL, maxFileSize)
}
