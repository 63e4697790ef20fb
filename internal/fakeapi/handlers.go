package fakeapi

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

const maxMemory = 32 << 20

// Call is a recorded REST request.
type Call struct {
	Method   string
	RawQuery string
	Query    map[string][]string
}

// Upload is a recorded multipart upload.
type Upload struct {
	Fields        map[string]string
	FileField     string
	FileName      string
	FileSize      int64
	UserAgent     string
	ContentLength int64
}

// Handler contains the HTTP handlers of the fake API.
type Handler struct {
	server *Server
}

// Method answers GET /rest/?method=... with the scripted response.
func (h *Handler) Method(c *gin.Context) {
	method := c.Query("method")
	h.server.recordCall(Call{
		Method:   method,
		RawQuery: c.Request.URL.RawQuery,
		Query:    c.Request.URL.Query(),
	})

	body, ok := h.server.nextResponse(method)
	if !ok {
		body = Result(method, "fail", `<error code="2" text="Unknown method"/>`)
	}

	c.Data(http.StatusOK, "text/xml; charset=utf-8", []byte(body))
}

// Upload accepts the multipart file POST.
func (h *Handler) Upload(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(maxMemory); err != nil {
		c.String(http.StatusBadRequest, "upload_status=fail\nerror=%s", err.Error())
		return
	}

	upload := Upload{
		Fields:        make(map[string]string),
		UserAgent:     c.GetHeader("User-Agent"),
		ContentLength: c.Request.ContentLength,
	}
	for key, values := range c.Request.MultipartForm.Value {
		if len(values) > 0 {
			upload.Fields[key] = values[0]
		}
	}
	for field, headers := range c.Request.MultipartForm.File {
		if len(headers) == 0 {
			continue
		}
		f, err := headers[0].Open()
		if err != nil {
			c.String(http.StatusInternalServerError, "upload_status=fail\nerror=%s", err.Error())
			return
		}
		n, err := io.Copy(io.Discard, f)
		f.Close()
		if err != nil {
			c.String(http.StatusInternalServerError, "upload_status=fail\nerror=%s", err.Error())
			return
		}
		upload.FileField = field
		upload.FileName = headers[0].Filename
		upload.FileSize = n
	}

	body := h.server.recordUpload(upload)
	if body == "" {
		body = "upload_status=ok\nfile_id=0\n"
	}
	c.String(http.StatusOK, "%s", body)
}
