package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meikuraledutech/dagcheck"
	"github.com/meikuraledutech/dagcheck/config"
	"github.com/meikuraledutech/dagcheck/logging"
	"github.com/meikuraledutech/dagcheck/memory"
)

const cyclePipeline = `{"nodes":[{"id":"a"},{"id":"b"}],"edges":[{"source":"a","target":"b"},{"source":"b","target":"a"}]}`

func formRequest(t *testing.T, payload string) *http.Request {
	t.Helper()
	body := url.Values{PipelineField: {payload}}.Encode()
	req := httptest.NewRequest(http.MethodPost, "/pipelines/parse", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	return req
}

func do(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) == 0 {
		return resp, nil
	}
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	return resp, body
}

func TestPing(t *testing.T) {
	app := New(config.Default(), nil)

	resp, body := do(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]any{"Ping": "Pong"}, body)
	assert.NotEmpty(t, resp.Header.Get(HeaderRequestID))
}

func TestParse_FormField(t *testing.T) {
	app := New(config.Default(), nil)

	t.Run("acyclic", func(t *testing.T) {
		payload := `{"nodes":[{"id":"a","type":"input","data":{}},{"id":"b"}],"edges":[{"id":"e1","source":"a","target":"b"}]}`
		resp, body := do(t, app, formRequest(t, payload))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, map[string]any{"num_nodes": 2.0, "num_edges": 1.0, "is_dag": true}, body)
	})

	t.Run("cycle", func(t *testing.T) {
		_, body := do(t, app, formRequest(t, cyclePipeline))
		assert.Equal(t, map[string]any{"num_nodes": 2.0, "num_edges": 2.0, "is_dag": false}, body)
	})

	t.Run("malformed", func(t *testing.T) {
		resp, body := do(t, app, formRequest(t, "{not json"))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, map[string]any{"error": dagcheck.InvalidJSONMessage}, body)
	})

	t.Run("missing field", func(t *testing.T) {
		_, body := do(t, app, formRequest(t, ""))
		assert.Equal(t, map[string]any{"error": dagcheck.InvalidJSONMessage}, body)
	})

	t.Run("wrong shape", func(t *testing.T) {
		_, body := do(t, app, formRequest(t, `{"nodes":[{"name":"a"}]}`))
		assert.Equal(t, map[string]any{"error": "node 0: missing id"}, body)
	})
}

func TestParse_Multipart(t *testing.T) {
	app := New(config.Default(), nil)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField(PipelineField, `{"nodes":[{"id":"a"}],"edges":[{"source":"a","target":"a"}]}`))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/pipelines/parse", &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())

	_, body := do(t, app, req)
	assert.Equal(t, map[string]any{"num_nodes": 1.0, "num_edges": 1.0, "is_dag": false}, body)
}

func TestParse_JSONBody(t *testing.T) {
	app := New(config.Default(), nil)

	req := httptest.NewRequest(http.MethodPost, "/pipelines/parse",
		strings.NewReader(`{"nodes":[{"id":"a"},{"id":"b"},{"id":"c"}],"edges":[{"source":"a","target":"b"},{"source":"b","target":"c"}]}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)

	_, body := do(t, app, req)
	assert.Equal(t, map[string]any{"num_nodes": 3.0, "num_edges": 2.0, "is_dag": true}, body)
}

func TestParse_UsesConfiguredOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Validation = dagcheck.Options{CollapseDuplicates: true, IgnoreDangling: true}
	app := New(cfg, nil)

	payload := `{"nodes":[{"id":"a"},{"id":"a"},{"id":"b"}],"edges":[{"source":"a","target":"b"},{"source":"ghost","target":"b"}]}`
	_, body := do(t, app, formRequest(t, payload))
	assert.Equal(t, map[string]any{"num_nodes": 3.0, "num_edges": 2.0, "is_dag": true}, body)
}

func TestCORS(t *testing.T) {
	app := New(config.Default(), nil)

	req := formRequest(t, cyclePipeline)
	req.Header.Set(fiber.HeaderOrigin, "http://localhost:3000")
	resp, _ := do(t, app, req)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "true", resp.Header.Get(fiber.HeaderAccessControlAllowCredentials))

	req = formRequest(t, cyclePipeline)
	req.Header.Set(fiber.HeaderOrigin, "http://evil.example.com")
	resp, _ = do(t, app, req)
	assert.Empty(t, resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
}

func TestHistoryRoutesDisabledWithoutStore(t *testing.T) {
	app := New(config.Default(), nil)

	resp, _ := do(t, app, httptest.NewRequest(http.MethodGet, "/validations", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHistory(t *testing.T) {
	store := memory.New()
	app := New(config.Default(), store)

	resp, _ := do(t, app, formRequest(t, cyclePipeline))
	id := resp.Header.Get(HeaderValidationID)
	require.NotEmpty(t, id)

	resp, _ = do(t, app, formRequest(t, "oops"))
	badID := resp.Header.Get(HeaderValidationID)
	require.NotEmpty(t, badID)

	t.Run("get", func(t *testing.T) {
		resp, body := do(t, app, httptest.NewRequest(http.MethodGet, "/validations/"+id, nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, id, body["id"])
		assert.Equal(t, 2.0, body["num_nodes"])
		assert.Equal(t, false, body["is_dag"])
		assert.NotContains(t, body, "error")

		_, body = do(t, app, httptest.NewRequest(http.MethodGet, "/validations/"+badID, nil))
		assert.Equal(t, dagcheck.InvalidJSONMessage, body["error"])
	})

	t.Run("list", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/validations?limit=1", nil))
		require.NoError(t, err)
		defer resp.Body.Close()

		var records []dagcheck.Record
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&records))
		assert.Len(t, records, 1)
	})

	t.Run("invalid limit", func(t *testing.T) {
		resp, _ := do(t, app, httptest.NewRequest(http.MethodGet, "/validations?limit=zero", nil))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("delete", func(t *testing.T) {
		resp, _ := do(t, app, httptest.NewRequest(http.MethodDelete, "/validations/"+id, nil))
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp, body := do(t, app, httptest.NewRequest(http.MethodDelete, "/validations/"+id, nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "validation not found", body["error"])

		resp, _ = do(t, app, httptest.NewRequest(http.MethodGet, "/validations/"+id, nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestUnknownRouteRendersJSONError(t *testing.T) {
	app := New(config.Default(), nil)

	resp, body := do(t, app, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "error")
}

func TestParse_OversizedBodyIsAnErrorResponse(t *testing.T) {
	cfg := config.Default()
	cfg.Server.BodyLimit = 256
	app := New(cfg, nil)

	nodes := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		nodes = append(nodes, `{"id":"node-`+strconv.Itoa(i)+`"}`)
	}
	payload := `{"nodes":[` + strings.Join(nodes, ",") + `],"edges":[]}`

	resp, body := do(t, app, formRequest(t, payload))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]any{"error": BodyTooLargeMessage}, body)

	// Small payloads still go through under the same limit.
	_, body = do(t, app, formRequest(t, `{"nodes":[{"id":"a"}],"edges":[]}`))
	assert.Equal(t, map[string]any{"num_nodes": 1.0, "num_edges": 0.0, "is_dag": true}, body)
}

func TestRequestLogger_LogsPanickingRequests(t *testing.T) {
	var buf bytes.Buffer
	logging.Init(logging.LevelInfo, &buf)
	t.Cleanup(func() { logging.Init(logging.LevelInfo, io.Discard) })

	app := New(config.Default(), nil)
	app.Get("/explode", func(c fiber.Ctx) error {
		panic("handler exploded")
	})

	resp, body := do(t, app, httptest.NewRequest(http.MethodGet, "/explode", nil))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body, "error")
	assert.NotEmpty(t, resp.Header.Get(HeaderRequestID))

	out := buf.String()
	assert.Contains(t, out, "GET /explode")
	assert.Contains(t, out, "handler exploded")
}
