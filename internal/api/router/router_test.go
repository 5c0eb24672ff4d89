package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"resume-tailor/internal/api/handler"
	"resume-tailor/internal/api/router"
	"resume-tailor/internal/config"
	"resume-tailor/internal/extract"
	"resume-tailor/internal/storage"
	"resume-tailor/internal/tailor"
	"resume-tailor/pkg/llm"
	"resume-tailor/pkg/normalizer"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResume = `Here is the final, document-ready content that will generate perfect files:
**Jane Doe**
Senior Backend Engineer | Go Specialist
jane@x.com | +234 801 234 5678 | Lagos, Nigeria

## PROFESSIONAL SUMMARY
Backend engineer with 8 years of experience building payment systems.

## SKILLS
Languages: Go, Python

## EXPERIENCE
Senior Software Engineer — Paystack
* Built settlement service handling 40% more volume`

type testEnv struct {
	srv   *server.Hertz
	model *llm.MockChatModel
	store *storage.LocalStore
}

func newTestEnv(t *testing.T, apiKeys []string, withService bool) *testEnv {
	t.Helper()
	ctx := context.Background()

	cfg := config.Default()
	cfg.Server.Address = "127.0.0.1:0"
	cfg.Server.APIKeys = apiKeys

	n := normalizer.Default()
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	extractor, err := extract.New(ctx)
	require.NoError(t, err)

	history := storage.NewMemoryHistory(10)
	env := &testEnv{store: store}
	opts := []handler.Option{
		handler.WithExtractor(extractor),
		handler.WithArtifactStore(store),
		handler.WithRunHistory(history),
	}
	if withService {
		env.model = llm.NewMockChatModel(sampleResume, nil)
		svc, err := tailor.NewService(env.model, "qwen-plus", n,
			tailor.WithCache(storage.NewMemoryCache(), 0),
			tailor.WithArtifactStore(store),
			tailor.WithRunHistory(history),
		)
		require.NoError(t, err)
		opts = append(opts, handler.WithTailorService(svc))
	}

	env.srv = router.NewServer(cfg, handler.NewHandler(n, opts...), zerolog.Nop())
	return env
}

func (e *testEnv) do(method, url string, body []byte, headers ...ut.Header) *ut.ResponseRecorder {
	var b *ut.Body
	if body != nil {
		b = &ut.Body{Body: bytes.NewReader(body), Len: len(body)}
	}
	return ut.PerformRequest(e.srv.Engine, method, url, b, headers...)
}

func jsonHeader() ut.Header {
	return ut.Header{Key: "Content-Type", Value: "application/json"}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func multipartBody(t *testing.T, fileField, fileName string, content []byte, fields map[string]string) ([]byte, string) {
	t.Helper()
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	if fileField != "" {
		part, err := w.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return body.Bytes(), w.FormDataContentType()
}

func TestHealthAndOptions(t *testing.T) {
	env := newTestEnv(t, nil, false)

	resp := env.do(http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, false, health["tailor"])
	assert.NotEmpty(t, resp.Header().Get(router.RequestIDHeader), "每个响应都应带请求 ID")

	resp = env.do(http.MethodGet, "/api/v1/options", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var options map[string][]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &options))
	assert.Equal(t, []string{"professional", "confident", "friendly"}, options["tones"])
	assert.Equal(t, []string{"md", "html", "pdf", "docx"}, options["formats"])
}

func TestRequestIDIsPropagated(t *testing.T) {
	env := newTestEnv(t, nil, false)
	resp := env.do(http.MethodGet, "/api/v1/health", nil, ut.Header{Key: router.RequestIDHeader, Value: "req-42"})
	assert.Equal(t, "req-42", resp.Header().Get(router.RequestIDHeader))
}

func TestNormalizeJSON(t *testing.T) {
	env := newTestEnv(t, nil, false)

	resp := env.do(http.MethodPost, "/api/v1/normalize", mustJSON(t, handler.NormalizeRequest{Text: sampleResume}), jsonHeader())
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var out struct {
		Sections struct {
			Header   normalizer.HeaderBlock `json:"header"`
			Sections []normalizer.Section   `json:"sections"`
		} `json:"sections"`
		Text string `json:"text"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Equal(t, "Jane Doe", out.Sections.Header.Name)
	assert.Equal(t, []string{"Senior Backend Engineer", "Go Specialist"}, out.Sections.Header.Titles)
	require.Len(t, out.Sections.Sections, 3)
	assert.Equal(t, normalizer.SectionSummary, out.Sections.Sections[0].Key)
	assert.NotContains(t, out.Text, "document-ready")
}

func TestNormalizeRejectsBadInput(t *testing.T) {
	env := newTestEnv(t, nil, false)

	resp := env.do(http.MethodPost, "/api/v1/normalize", []byte("{not json"), jsonHeader())
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = env.do(http.MethodPost, "/api/v1/normalize", mustJSON(t, handler.NormalizeRequest{Text: "  "}), jsonHeader())
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestNormalizeMultipartUpload(t *testing.T) {
	env := newTestEnv(t, nil, false)

	body, ct := multipartBody(t, "file", "resume.txt", []byte(sampleResume), nil)
	resp := env.do(http.MethodPost, "/api/v1/normalize", body, ut.Header{Key: "Content-Type", Value: ct})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Body.String(), "Jane Doe")

	body, ct = multipartBody(t, "file", "resume.exe", []byte("MZ"), nil)
	resp = env.do(http.MethodPost, "/api/v1/normalize", body, ut.Header{Key: "Content-Type", Value: ct})
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.Code)

	body, ct = multipartBody(t, "", "", nil, map[string]string{"text": sampleResume})
	resp = env.do(http.MethodPost, "/api/v1/normalize", body, ut.Header{Key: "Content-Type", Value: ct})
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestRender(t *testing.T) {
	env := newTestEnv(t, nil, false)

	resp := env.do(http.MethodPost, "/api/v1/render", mustJSON(t, handler.RenderRequest{Text: sampleResume, Format: "markdown"}), jsonHeader())
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.True(t, strings.HasPrefix(resp.Body.String(), "# Jane Doe"))
	assert.Equal(t, "text/markdown; charset=utf-8", resp.Header().Get("Content-Type"))
	assert.Contains(t, resp.Header().Get("Content-Disposition"), `filename="resume.md"`)

	resp = env.do(http.MethodPost, "/api/v1/render", mustJSON(t, handler.RenderRequest{Text: sampleResume, Format: "html", Style: "classic"}), jsonHeader())
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `href="mailto:jane@x.com"`)

	resp = env.do(http.MethodPost, "/api/v1/render", mustJSON(t, handler.RenderRequest{Text: sampleResume, Format: "rtf"}), jsonHeader())
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = env.do(http.MethodPost, "/api/v1/render", mustJSON(t, handler.RenderRequest{Text: sampleResume, Style: "neon"}), jsonHeader())
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAPIKeyAuth(t *testing.T) {
	env := newTestEnv(t, []string{"secret-1", "secret-2"}, false)
	body := mustJSON(t, handler.NormalizeRequest{Text: sampleResume})

	resp := env.do(http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, resp.Code, "健康检查不需要鉴权")

	resp = env.do(http.MethodPost, "/api/v1/normalize", body, jsonHeader())
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = env.do(http.MethodPost, "/api/v1/normalize", body, jsonHeader(), ut.Header{Key: "Authorization", Value: "Bearer wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = env.do(http.MethodPost, "/api/v1/normalize", body, jsonHeader(), ut.Header{Key: "Authorization", Value: "Bearer secret-2"})
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestTailorDisabled(t *testing.T) {
	env := newTestEnv(t, nil, false)
	resp := env.do(http.MethodPost, "/api/v1/tailor", mustJSON(t, handler.TailorRequest{Resume: "r", JobDescription: "jd"}), jsonHeader())
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestTailorAndDownload(t *testing.T) {
	env := newTestEnv(t, nil, true)

	req := handler.TailorRequest{
		Resume:         "Jane Doe\nEngineer\njane@x.com\n\nEXPERIENCE\n• Wrote Python",
		JobDescription: "Senior Go engineer for payment systems",
		Tone:           "confident",
		FocusAreas:     []string{"Technical Skills"},
		Formats:        []string{"markdown", "html"},
		IncludeFiles:   true,
	}
	resp := env.do(http.MethodPost, "/api/v1/tailor", mustJSON(t, req), jsonHeader())
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var out struct {
		RunID     string `json:"run_id"`
		Model     string `json:"model"`
		Tone      string `json:"tone"`
		Cached    bool   `json:"cached"`
		Artifacts []struct {
			Format   string `json:"format"`
			Location string `json:"location"`
		} `json:"artifacts"`
		Files map[string][]byte `json:"files"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	require.NotEmpty(t, out.RunID)
	assert.Equal(t, "qwen-plus", out.Model)
	assert.Equal(t, "confident", out.Tone)
	assert.False(t, out.Cached)
	require.Len(t, out.Artifacts, 2)
	assert.NotEmpty(t, out.Artifacts[0].Location)
	require.Contains(t, out.Files, "md")
	assert.True(t, strings.HasPrefix(string(out.Files["md"]), "# Jane Doe"))

	dl := env.do(http.MethodGet, "/api/v1/runs/"+out.RunID+"/resume.md", nil)
	require.Equal(t, http.StatusOK, dl.Code, dl.Body.String())
	assert.Equal(t, out.Files["md"], dl.Body.Bytes())

	dl = env.do(http.MethodGet, "/api/v1/runs/"+out.RunID+"/resume.pdf", nil)
	assert.Equal(t, http.StatusNotFound, dl.Code, "未生成的格式")

	dl = env.do(http.MethodGet, "/api/v1/runs/not-a-uuid/resume.md", nil)
	assert.Equal(t, http.StatusBadRequest, dl.Code)

	dl = env.do(http.MethodGet, "/api/v1/runs/"+out.RunID+"/other.md", nil)
	assert.Equal(t, http.StatusNotFound, dl.Code)

	// 相同输入命中缓存
	req.IncludeFiles = false
	resp = env.do(http.MethodPost, "/api/v1/tailor", mustJSON(t, req), jsonHeader())
	require.Equal(t, http.StatusOK, resp.Code)
	var second map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &second))
	assert.Equal(t, true, second["cached"])
	assert.NotContains(t, second, "files")
	assert.Equal(t, 1, env.model.Calls())
}

func TestRunHistory(t *testing.T) {
	env := newTestEnv(t, nil, true)

	req := handler.TailorRequest{
		Resume:         "Jane Doe\nEngineer\n\nEXPERIENCE\n• Wrote Python",
		JobDescription: "Senior Go engineer",
		Formats:        []string{"md"},
	}
	resp := env.do(http.MethodPost, "/api/v1/tailor", mustJSON(t, req), jsonHeader())
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var out struct {
		RunID string `json:"run_id"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))

	resp = env.do(http.MethodGet, "/api/v1/runs/"+out.RunID, nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var run struct {
		RunID       string   `json:"run_id"`
		Model       string   `json:"model"`
		Tone        string   `json:"tone"`
		SectionKeys []string `json:"section_keys"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &run))
	assert.Equal(t, out.RunID, run.RunID)
	assert.Equal(t, "qwen-plus", run.Model)
	assert.Equal(t, "professional", run.Tone)
	assert.Equal(t, []string{"summary", "skills", "experience"}, run.SectionKeys)

	resp = env.do(http.MethodGet, "/api/v1/runs?limit=5", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var list struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/v1/runs?limit=abc", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/v1/runs/not-a-uuid", nil).Code)
	assert.Equal(t, http.StatusNotFound,
		env.do(http.MethodGet, "/api/v1/runs/0190d6a4-7b3c-7c2e-9f00-000000000000", nil).Code)
}

func TestTailorMultipart(t *testing.T) {
	env := newTestEnv(t, nil, true)

	body, ct := multipartBody(t, "resume", "resume.md", []byte("Jane Doe\nEngineer\njane@x.com"), map[string]string{
		"job_description": "Go engineer",
		"focus_areas":     "Leadership, leadership, Cloud",
		"formats":         "md",
		"tone":            "friendly",
	})
	resp := env.do(http.MethodPost, "/api/v1/tailor", body, ut.Header{Key: "Content-Type", Value: ct})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	msgs := env.model.ReceivedMessages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0][1].Content, "Use a friendly tone throughout")
	assert.Contains(t, msgs[0][1].Content, "Leadership, Cloud")
	assert.Contains(t, msgs[0][1].Content, "Jane Doe\nEngineer\njane@x.com")
}

func TestTailorErrors(t *testing.T) {
	env := newTestEnv(t, nil, true)

	tests := []struct {
		name string
		req  handler.TailorRequest
		want int
	}{
		{"missing resume", handler.TailorRequest{JobDescription: "jd"}, http.StatusBadRequest},
		{"bad tone", handler.TailorRequest{Resume: "r", JobDescription: "jd", Tone: "angry"}, http.StatusBadRequest},
		{"bad format", handler.TailorRequest{Resume: "r", JobDescription: "jd", Formats: []string{"rtf"}}, http.StatusBadRequest},
		{"bad style", handler.TailorRequest{Resume: "r", JobDescription: "jd", Style: "neon"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(http.MethodPost, "/api/v1/tailor", mustJSON(t, tt.req), jsonHeader())
			assert.Equal(t, tt.want, resp.Code, resp.Body.String())
		})
	}
	assert.Zero(t, env.model.Calls())
}

func TestTailorModelFailure(t *testing.T) {
	n := normalizer.Default()
	svc, err := tailor.NewService(llm.NewMockChatModel("", errors.New("upstream down")), "qwen-plus", n)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Server.Address = "127.0.0.1:0"
	srv := router.NewServer(cfg, handler.NewHandler(n, handler.WithTailorService(svc)), zerolog.Nop())

	body := mustJSON(t, handler.TailorRequest{Resume: "r", JobDescription: "jd"})
	resp := ut.PerformRequest(srv.Engine, http.MethodPost, "/api/v1/tailor",
		&ut.Body{Body: bytes.NewReader(body), Len: len(body)}, jsonHeader())
	assert.Equal(t, http.StatusBadGateway, resp.Code)
	assert.Contains(t, resp.Body.String(), "upstream down")

	resp = ut.PerformRequest(srv.Engine, http.MethodGet, "/api/v1/runs/"+"0b6f2d4e-8f4b-4b8e-9a39-2f0d0a1c7e11"+"/resume.md", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code, "未配置存储时下载返回 404")
}
