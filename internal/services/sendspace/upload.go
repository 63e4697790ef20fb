package sendspace

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Recognized upload.getinfo options.
const (
	OptionDescription    = "description"
	OptionPassword       = "password"
	OptionFolderID       = "folder_id"
	OptionRecipientEmail = "recipient_email"
	OptionNotifyUploader = "notify_uploader"
	OptionRedirectURL    = "redirect_url"
)

// uploadOptionKeys is both the allow-list and the order options are sent in.
var uploadOptionKeys = []string{
	OptionDescription,
	OptionPassword,
	OptionFolderID,
	OptionRecipientEmail,
	OptionNotifyUploader,
	OptionRedirectURL,
}

const (
	uploadFailedMarker = "upload_status=fail"
	fileIDMarker       = "file_id="
	uploadFileField    = "userfile"
)

// UploadOptions holds optional named upload.getinfo parameters. Empty values
// are not sent.
type UploadOptions map[string]string

// Validate rejects any key outside the recognized option set.
func (o UploadOptions) Validate() error {
	for key := range o {
		if !isUploadOption(key) {
			return fmt.Errorf("%w: %s", ErrInvalidArgument, key)
		}
	}
	return nil
}

func (o UploadOptions) args() Args {
	var args Args
	for _, key := range uploadOptionKeys {
		if value := o[key]; value != "" {
			args = args.Add(key, value)
		}
	}
	return args
}

func isUploadOption(key string) bool {
	for _, k := range uploadOptionKeys {
		if k == key {
			return true
		}
	}
	return false
}

// UploadInfo describes a one-time upload slot returned by upload.getinfo.
type UploadInfo struct {
	URL              string
	ProgressURL      string
	UploadIdentifier string
	MaxFileSize      int64
	// ExtraInfo is opaque and must be echoed back verbatim.
	ExtraInfo string
}

// UploadRequest describes a single file upload.
type UploadRequest struct {
	Path string
	// Target overrides the POST URL returned by upload.getinfo.
	Target string
	// UserAgent overrides the client's default User-Agent.
	UserAgent string
	Options   UploadOptions
}

// UploadResult is the outcome of a successful upload.
type UploadResult struct {
	FileID string
	URL    string
	Path   string
	Size   int64
	// Warnings records non-fatal anomalies such as an oversize file.
	Warnings []string
}

// FileURL returns the public download page for a file id.
func FileURL(fileID string) string {
	return fmt.Sprintf(FileURLTemplate, fileID)
}

// GetUploadInfo requests a new upload slot for the active session.
func (c *Client) GetUploadInfo(ctx context.Context, opts UploadOptions) (*UploadInfo, error) {
	sessionKey := c.SessionKey()
	if sessionKey == "" {
		return nil, ErrNotLoggedIn
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	args := Args{
		{"session_key", sessionKey},
		{"speed_limit", strconv.Itoa(c.speedLimit)},
	}
	args = append(args, opts.args()...)

	env, err := c.call(ctx, "upload.getinfo", args)
	if err != nil {
		return nil, err
	}

	upload, err := env.First("upload")
	if err != nil {
		return nil, err
	}

	info := &UploadInfo{}
	for _, field := range []struct {
		key string
		dst *string
	}{
		{"url", &info.URL},
		{"progress_url", &info.ProgressURL},
		{"upload_identifier", &info.UploadIdentifier},
		{"extra_info", &info.ExtraInfo},
	} {
		v, err := upload.Attr(field.key)
		if err != nil {
			return nil, fmt.Errorf("upload.getinfo: %w", err)
		}
		*field.dst = v
	}

	rawMax, err := upload.Attr("max_file_size")
	if err != nil {
		return nil, fmt.Errorf("upload.getinfo: %w", err)
	}
	info.MaxFileSize, err = strconv.ParseInt(strings.TrimSpace(rawMax), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: upload.getinfo: invalid max_file_size %q", ErrProtocol, rawMax)
	}

	return info, nil
}

// UploadFile uploads a local file and returns its public URL.
func (c *Client) UploadFile(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	path, err := resolvePath(req.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFileAccess, req.Path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFileAccess, path, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFileAccess, path, err)
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrFileAccess, path)
	}

	info, err := c.GetUploadInfo(ctx, req.Options)
	if err != nil {
		return nil, err
	}

	result := &UploadResult{
		Path: path,
		Size: stat.Size(),
	}

	if stat.Size() > info.MaxFileSize {
		msg := fmt.Sprintf("%s size is greater than max file size of %d bytes", path, info.MaxFileSize)
		if c.strictFileSize {
			return nil, fmt.Errorf("%w: %s", ErrFileTooLarge, msg)
		}
		c.logger.Warn(msg)
		result.Warnings = append(result.Warnings, msg)
	}

	target := info.URL
	if req.Target != "" {
		target = req.Target
	}
	userAgent := c.userAgent
	if req.UserAgent != "" {
		userAgent = req.UserAgent
	}

	content, err := c.postFile(ctx, target, userAgent, info, f, stat.Size())
	if err != nil {
		return nil, err
	}

	if strings.Contains(content, uploadFailedMarker) {
		return nil, fmt.Errorf("%w: %s", ErrUploadFailed, content)
	}

	fileID := scanFileID(content)
	if fileID == "" {
		return nil, ErrFileIDMissing
	}

	result.FileID = fileID
	result.URL = FileURL(fileID)
	c.logger.WithField("file_id", fileID).Debugf("uploaded %s", path)

	return result, nil
}

// postFile streams the multipart form to target and returns the response body.
// The form is assembled around the open file so the request has an exact
// Content-Length without buffering the file in memory.
func (c *Client) postFile(ctx context.Context, target, userAgent string, info *UploadInfo, f *os.File, size int64) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	_ = writer.WriteField("MAX_FILE_SIZE", strconv.FormatInt(info.MaxFileSize, 10))
	_ = writer.WriteField("UPLOAD_IDENTIFIER", info.UploadIdentifier)
	_ = writer.WriteField("extra_info", info.ExtraInfo)
	if _, err := writer.CreateFormFile(uploadFileField, filepath.Base(f.Name())); err != nil {
		return "", err
	}
	head := bytes.Clone(buf.Bytes())

	buf.Reset()
	if err := writer.Close(); err != nil {
		return "", err
	}
	tail := bytes.Clone(buf.Bytes())

	body := io.MultiReader(bytes.NewReader(head), io.LimitReader(f, size), bytes.NewReader(tail))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, body)
	if err != nil {
		return "", err
	}
	req.ContentLength = int64(len(head)) + size + int64(len(tail))
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("User-Agent", userAgent)

	c.logger.WithField("target", target).Debugf("posting %d bytes", req.ContentLength)

	resp, err := c.uploadClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error uploading file to sendspace: %w", err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading upload response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debugf("upload responded with %s", resp.Status)
	}

	// A redirect carries the upload result in its query string.
	if location := resp.Header.Get("Location"); location != "" {
		return location + "\n" + string(content), nil
	}

	return string(content), nil
}

// scanFileID returns the value of the first file_id= assignment in content.
func scanFileID(content string) string {
	for _, line := range strings.Split(content, "\n") {
		idx := strings.Index(line, fileIDMarker)
		if idx < 0 {
			continue
		}
		value := line[idx+len(fileIDMarker):]
		if end := strings.IndexAny(value, "&=\"'<> \t\r"); end >= 0 {
			value = value[:end]
		}
		// Only the first line mentioning file_id= is considered.
		return value
	}
	return ""
}

func resolvePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
