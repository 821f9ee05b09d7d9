package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/suite"

	"signbot/internal/domain"
)

const (
	testToken = "123:secret"
	apiBase   = "https://api.telegram.test"
)

type ClientTestSuite struct {
	suite.Suite
	client    *Client
	transport *httpmock.MockTransport
}

func (ts *ClientTestSuite) SetupTest() {
	ts.client = New(Options{
		Token:        testToken,
		APIBaseURL:   apiBase,
		MaxRetries:   2,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 2 * time.Millisecond,
	})
	ts.transport = httpmock.NewMockTransport()
	ts.client.http.HTTPClient.Transport = ts.transport
}

func (ts *ClientTestSuite) methodURL(method string) string {
	return apiBase + "/bot" + testToken + "/" + method
}

func (ts *ClientTestSuite) TestSendMessage() {
	var got map[string]any
	ts.transport.RegisterResponder(http.MethodPost, ts.methodURL("sendMessage"),
		func(req *http.Request) (*http.Response, error) {
			ts.Require().Equal("application/json", req.Header.Get("Content-Type"))
			ts.Require().NoError(json.NewDecoder(req.Body).Decode(&got))
			return httpmock.NewStringResponse(200, `{"ok":true,"result":{"message_id":1}}`), nil
		})

	err := ts.client.SendMessage(context.Background(), 42, "Привет")
	ts.Require().NoError(err)
	ts.Require().Equal(float64(42), got["chat_id"])
	ts.Require().Equal("Привет", got["text"])
}

func (ts *ClientTestSuite) TestSendMessageAPIError() {
	ts.transport.RegisterResponder(http.MethodPost, ts.methodURL("sendMessage"),
		httpmock.NewStringResponder(400, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))

	err := ts.client.SendMessage(context.Background(), 1, "x")
	ts.Require().Error(err)
	ts.Require().True(errors.Is(err, domain.ErrTelegramAPI))
	ts.Require().Contains(err.Error(), "chat not found")
	ts.Require().Equal(1, ts.transport.GetTotalCallCount(), "4xx must not be retried")
}

func (ts *ClientTestSuite) TestRetriesOnServerError() {
	calls := 0
	ts.transport.RegisterResponder(http.MethodPost, ts.methodURL("sendMessage"),
		func(req *http.Request) (*http.Response, error) {
			calls++
			if calls < 3 {
				return httpmock.NewStringResponse(502, `bad gateway`), nil
			}
			return httpmock.NewStringResponse(200, `{"ok":true}`), nil
		})

	ts.Require().NoError(ts.client.SendMessage(context.Background(), 1, "x"))
	ts.Require().Equal(3, calls)
}

func (ts *ClientTestSuite) TestTransportErrorHidesToken() {
	ts.transport.RegisterResponder(http.MethodPost, ts.methodURL("sendMessage"),
		httpmock.NewErrorResponder(errors.New("connection refused")))

	err := ts.client.SendMessage(context.Background(), 1, "x")
	ts.Require().Error(err)
	ts.Require().NotContains(err.Error(), testToken)
}

func (ts *ClientTestSuite) TestSendDocumentMultipart() {
	ts.transport.RegisterResponder(http.MethodPost, ts.methodURL("sendDocument"),
		func(req *http.Request) (*http.Response, error) {
			ts.Require().NoError(req.ParseMultipartForm(1 << 20))
			ts.Require().Equal("42", req.FormValue("chat_id"))
			f, hdr, err := req.FormFile("document")
			ts.Require().NoError(err)
			defer f.Close()
			ts.Require().Equal("Соглашение.pdf", hdr.Filename)
			body, _ := io.ReadAll(f)
			ts.Require().Equal("%PDF-1.4", string(body))
			return httpmock.NewStringResponse(200, `{"ok":true}`), nil
		})

	err := ts.client.SendDocument(context.Background(), 42, "Соглашение.pdf", strings.NewReader("%PDF-1.4"))
	ts.Require().NoError(err)
}

func (ts *ClientTestSuite) TestGetFileAndDownload() {
	ts.transport.RegisterResponder(http.MethodPost, ts.methodURL("getFile"),
		httpmock.NewStringResponder(200, `{"ok":true,"result":{"file_id":"abc","file_path":"documents/file_7.pdf"}}`))
	ts.transport.RegisterResponder(http.MethodGet, apiBase+"/file/bot"+testToken+"/documents/file_7.pdf",
		httpmock.NewStringResponder(200, "signed-bytes"))

	path, err := ts.client.GetFile(context.Background(), "abc")
	ts.Require().NoError(err)
	ts.Require().Equal("documents/file_7.pdf", path)

	content, err := ts.client.Download(context.Background(), path, 1024)
	ts.Require().NoError(err)
	ts.Require().Equal("signed-bytes", string(content))
}

func (ts *ClientTestSuite) TestGetFileMissingPath() {
	ts.transport.RegisterResponder(http.MethodPost, ts.methodURL("getFile"),
		httpmock.NewStringResponder(200, `{"ok":true,"result":{"file_id":"abc"}}`))

	_, err := ts.client.GetFile(context.Background(), "abc")
	ts.Require().True(errors.Is(err, domain.ErrTelegramAPI))
}

func (ts *ClientTestSuite) TestDownloadTooLarge() {
	ts.transport.RegisterResponder(http.MethodGet, apiBase+"/file/bot"+testToken+"/photos/p.jpg",
		httpmock.NewStringResponder(200, strings.Repeat("x", 11)))

	_, err := ts.client.Download(context.Background(), "photos/p.jpg", 10)
	ts.Require().True(errors.Is(err, domain.ErrFileTooLarge))
}

func (ts *ClientTestSuite) TestDownloadNotFound() {
	ts.transport.RegisterResponder(http.MethodGet, apiBase+"/file/bot"+testToken+"/photos/gone.jpg",
		httpmock.NewStringResponder(404, "not found"))

	_, err := ts.client.Download(context.Background(), "photos/gone.jpg", 0)
	ts.Require().True(errors.Is(err, domain.ErrTelegramAPI))
}

func (ts *ClientTestSuite) TestSetWebhook() {
	var got map[string]any
	ts.transport.RegisterResponder(http.MethodPost, ts.methodURL("setWebhook"),
		func(req *http.Request) (*http.Response, error) {
			ts.Require().NoError(json.NewDecoder(req.Body).Decode(&got))
			return httpmock.NewStringResponse(200, `{"ok":true,"result":true}`), nil
		})

	ts.Require().NoError(ts.client.SetWebhook(context.Background(), "https://bot.example/webhook", "s3"))
	ts.Require().Equal("https://bot.example/webhook", got["url"])
	ts.Require().Equal("s3", got["secret_token"])
}

func TestClientTestSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func TestLeveledLoggerScrubsToken(t *testing.T) {
	l := leveledLogger{token: testToken}
	out := l.scrub([]interface{}{"url", "https://x/bot" + testToken + "/getMe", "n", 3})
	if strings.Contains(out[1].(string), testToken) {
		t.Fatalf("token leaked: %v", out[1])
	}
	if out[3] != 3 {
		t.Fatalf("non-string values must be kept, got %v", out[3])
	}
}
