package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinrec-advisor/internal/config"
	"github.com/clinrec-advisor/internal/domain"
	"github.com/clinrec-advisor/internal/knowledge"
	"github.com/clinrec-advisor/internal/service"
)

const testDocument = `{
  "КлинРек II ур": {
    "Заболевание": {
      "Хронический вирусный гепатит C": {
        "Стадия": {
          "Общая схема": {
            "Инструкция": {
              "1": {
                "План лечебных действий": {
                  "вариант лечения": {"Схема": {"Действующее вещество": ["Софосбувир"]}}
                }
              }
            }
          }
        }
      },
      "Мигрень": {}
    }
  }
}`

type staticKnowledge struct {
	kb  *domain.KnowledgeBase
	err error
}

func (s staticKnowledge) Current() (*domain.KnowledgeBase, error) {
	return s.kb, s.err
}

type fakeRecommender struct {
	record *domain.VisitRecord
	reply  string
	err    error
}

func (f *fakeRecommender) Recommend(_ context.Context, record *domain.VisitRecord) (string, error) {
	f.record = record
	return f.reply, f.err
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return logger
}

func newTestServer(t *testing.T, provider domain.KnowledgeBaseProvider, recommender domain.RecommendationService) http.Handler {
	t.Helper()
	logger := newTestLogger()
	cfg := config.DefaultLiteConfig().ToConfig()
	engine := service.NewExplanationService(logger, cfg.Analysis.SurgicalHistoryPolicy, nil)
	server, err := NewServer(cfg, logger, engine, provider, recommender)
	require.NoError(t, err)
	return server.Handler()
}

func loadedKnowledge(t *testing.T) staticKnowledge {
	t.Helper()
	kb, err := knowledge.NewLoader(newTestLogger()).Parse([]byte(testDocument))
	require.NoError(t, err)
	return staticKnowledge{kb: kb}
}

func doRequest(handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestServer_Health(t *testing.T) {
	handler := newTestServer(t, loadedKnowledge(t), nil)

	w := doRequest(handler, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, 2.0, body["diseases"])
	assert.NotEmpty(t, w.Header().Get("X-Correlation-ID"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestServer_HealthWithoutKnowledgeBase(t *testing.T) {
	handler := newTestServer(t, staticKnowledge{err: errors.New("file not found")}, nil)

	w := doRequest(handler, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "degraded", decodeBody(t, w)["status"])
}

func TestServer_ListDiseases(t *testing.T) {
	handler := newTestServer(t, loadedKnowledge(t), nil)

	w := doRequest(handler, http.MethodGet, "/api/v1/diseases", "")

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, []interface{}{"Хронический вирусный гепатит C", "Мигрень"}, body["diseases"])
}

func TestServer_Analyze(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedCode   string
	}{
		{"Resolved diagnosis", `{"patient": {"Клинический диагноз": "ХВГС", "Возраст": 45}}`, http.StatusOK, ""},
		{"Empty patient", `{"patient": {}}`, http.StatusUnprocessableEntity, domain.ErrMissingInput},
		{"Unknown diagnosis", `{"patient": {"Клинический диагноз": "Подагра"}}`, http.StatusUnprocessableEntity, domain.ErrUnresolvedDiagnosis},
	}

	handler := newTestServer(t, loadedKnowledge(t), nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(handler, http.MethodPost, "/api/v1/analyze", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			var analysis domain.Analysis
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &analysis))
			assert.Equal(t, tt.expectedCode, analysis.ErrorCode)
			assert.NotEmpty(t, analysis.ID)
			assert.NotEmpty(t, analysis.Report)
		})
	}
}

func TestServer_AnalyzeReturnsRankedCandidates(t *testing.T) {
	handler := newTestServer(t, loadedKnowledge(t), nil)

	w := doRequest(handler, http.MethodPost, "/api/v1/analyze", `{"patient": {"Клинический диагноз": ["", "ХВГС"]}}`)

	require.Equal(t, http.StatusOK, w.Code)
	var analysis domain.Analysis
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &analysis))
	require.Len(t, analysis.Candidates, 1)
	assert.Equal(t, domain.SeverityClarification, analysis.Candidates[0].Severity)
	assert.Equal(t, "Хронический вирусный гепатит C", analysis.Disease)
}

func TestServer_AnalyzeInvalidBody(t *testing.T) {
	handler := newTestServer(t, loadedKnowledge(t), nil)

	for _, body := range []string{`not json`, `{"patient": {"a": {"nested": true}}}`} {
		w := doRequest(handler, http.MethodPost, "/api/v1/analyze", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		errBody := decodeBody(t, w)["error"].(map[string]interface{})
		assert.Equal(t, domain.ErrInvalidInput, errBody["code"])
		assert.NotEmpty(t, errBody["request_id"])
	}
}

func TestServer_AnalyzeWithoutKnowledgeBase(t *testing.T) {
	handler := newTestServer(t, staticKnowledge{err: errors.New("missing")}, nil)

	w := doRequest(handler, http.MethodPost, "/api/v1/analyze", `{"patient": {"Диагноз": "ХВГС"}}`)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestServer_Enhance(t *testing.T) {
	handler := newTestServer(t, loadedKnowledge(t), nil)

	w := doRequest(handler, http.MethodPost, "/api/v1/patients/enhance", `{"patient": {"Возраст": "45 лет", "Операции": "нет"}}`)

	require.Equal(t, http.StatusOK, w.Code)
	patient := decodeBody(t, w)["patient"].(map[string]interface{})
	assert.Equal(t, 45.0, patient[service.DerivedAgeYears])
	assert.Equal(t, service.ValueNotPerformed, patient[service.DerivedLiverTransplant])

	w = doRequest(handler, http.MethodPost, "/api/v1/patients/enhance", `{"patient": {}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestServer_Recommendation(t *testing.T) {
	t.Run("Not configured", func(t *testing.T) {
		handler := newTestServer(t, loadedKnowledge(t), nil)
		w := doRequest(handler, http.MethodPost, "/api/v1/recommendation", `{"patient": {"Диагноз": "ХВГС"}}`)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		errBody := decodeBody(t, w)["error"].(map[string]interface{})
		assert.Equal(t, domain.ErrServiceNotConfigured, errBody["code"])
	})

	t.Run("Forwards visit record", func(t *testing.T) {
		recommender := &fakeRecommender{reply: "Рекомендована терапия софосбувиром"}
		handler := newTestServer(t, loadedKnowledge(t), recommender)

		w := doRequest(handler, http.MethodPost, "/api/v1/recommendation", `{"patient_id": "p-1", "patient": {"Диагноз": "ХВГС"}}`)

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "Рекомендована терапия софосбувиром", body["recommendation"])

		require.NotNil(t, recommender.record)
		assert.Equal(t, "p-1", recommender.record.PatientID)
		require.Len(t, recommender.record.Visits, 1)
		assert.Equal(t, "ХВГС", recommender.record.Visits[0].Data["Диагноз"])
		assert.Contains(t, recommender.record.Visits[0].Data, service.DerivedLiverTransplant)
	})

	t.Run("Remote failure", func(t *testing.T) {
		recommender := &fakeRecommender{err: errors.New("circuit breaker is open")}
		handler := newTestServer(t, loadedKnowledge(t), recommender)

		w := doRequest(handler, http.MethodPost, "/api/v1/recommendation", `{"patient": {"Диагноз": "ХВГС"}}`)

		assert.Equal(t, http.StatusBadGateway, w.Code)
		errBody := decodeBody(t, w)["error"].(map[string]interface{})
		assert.Equal(t, domain.ErrExternalAPI, errBody["code"])
		assert.Contains(t, errBody["details"], "circuit breaker")
	})
}

func TestServer_RateLimit(t *testing.T) {
	logger := newTestLogger()
	cfg := config.DefaultLiteConfig().ToConfig()
	cfg.Server.RateLimit = 0.001
	cfg.Server.RateBurst = 1
	engine := service.NewExplanationService(logger, "", nil)
	server, err := NewServer(cfg, logger, engine, loadedKnowledge(t), nil)
	require.NoError(t, err)
	handler := server.Handler()

	first := doRequest(handler, http.MethodGet, "/api/v1/diseases", "")
	second := doRequest(handler, http.MethodGet, "/api/v1/diseases", "")

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestNewServer_InvalidRateLimitCapacity(t *testing.T) {
	logger := newTestLogger()
	cfg := config.DefaultLiteConfig().ToConfig()
	cfg.Server.RateLimit = 1
	cfg.Server.RateClients = 0
	engine := service.NewExplanationService(logger, "", nil)

	server, err := NewServer(cfg, logger, engine, loadedKnowledge(t), nil)

	assert.Error(t, err)
	assert.Nil(t, server)
}
