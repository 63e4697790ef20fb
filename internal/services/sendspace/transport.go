package sendspace

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Arg is one query parameter of an API call.
type Arg struct {
	Key   string
	Value string
}

// Args is an ordered parameter list. Unlike url.Values it keeps the order
// the parameters were added in and allows duplicate keys.
type Args []Arg

// Add appends a parameter.
func (a Args) Add(key, value string) Args {
	return append(a, Arg{Key: key, Value: value})
}

// Encode URL-encodes the parameters in order, e.g. "a=1&b=x+y".
func (a Args) Encode() string {
	var sb strings.Builder
	for i, arg := range a {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(arg.Key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(arg.Value))
	}
	return sb.String()
}

// methodURL builds the GET URL for a remote method call.
func (c *Client) methodURL(method string, args Args) string {
	u := fmt.Sprintf("%s?method=%s", c.baseURL, url.QueryEscape(method))
	if len(args) > 0 {
		u += "&" + args.Encode()
	}
	return u
}

// call executes a remote API method and returns its validated envelope.
func (c *Client) call(ctx context.Context, method string, args Args) (*Envelope, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.methodURL(method, args), nil)
	if err != nil {
		return nil, err
	}

	log := c.logger.WithField("method", method)
	log.Debug("calling sendspace API")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error calling sendspace method %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: method %s: unexpected HTTP status %s", ErrProtocol, method, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response for method %s: %w", method, err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: nothing returned for method %s", ErrEmptyResponse, method)
	}

	env, err := ParseEnvelope(body)
	if err != nil {
		return nil, fmt.Errorf("method %s: %w", method, err)
	}
	if env == nil {
		return nil, fmt.Errorf("%w: method %s: response is not a result document", ErrProtocol, method)
	}

	if env.Method() != method {
		return nil, fmt.Errorf("%w: method received %q is not the same as method sent %q", ErrProtocol, env.Method(), method)
	}

	if env.Status() != statusOK {
		apiErr := newAPIError(method, env)
		log.WithFields(logrus.Fields{
			"status": apiErr.Status,
			"code":   int(apiErr.Code),
		}).Debug("sendspace API returned an error")
		return nil, apiErr
	}

	log.WithField("status", env.Status()).Debug("sendspace API call succeeded")
	return env, nil
}

func newAPIError(method string, env *Envelope) *APIError {
	apiErr := &APIError{
		Method: method,
		Status: env.Status(),
		Text:   "unknown error",
	}

	entry, err := env.First("error")
	if err != nil {
		return apiErr
	}
	if text, err := entry.Attr("text"); err == nil && text != "" {
		apiErr.Text = text
	} else if strings.TrimSpace(entry.Value) != "" {
		apiErr.Text = strings.TrimSpace(entry.Value)
	}
	if raw, err := entry.Attr("code"); err == nil {
		if code, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
			apiErr.Code = ErrorCode(code)
		}
	}

	return apiErr
}
