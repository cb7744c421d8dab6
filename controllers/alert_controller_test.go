package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockstream/services/alerts"
)

func alertRouter(engine *alerts.Engine) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	controller := NewAlertController(engine)
	router.POST("/api/alerts", controller.CreateAlert)
	router.GET("/api/alerts/:user_id", controller.GetUserAlerts)
	router.DELETE("/api/alerts/:symbol/:user_id", controller.DeleteAlerts)
	return router
}

func postAlert(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/alerts", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateAlertAndListForUser(t *testing.T) {
	router := alertRouter(alerts.NewEngine(50))

	w := postAlert(router, `{"symbol":"AAPL","target_price":150,"condition":"above","user_id":"u1"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/alerts/u1", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Alerts []struct {
			Symbol   string `json:"symbol"`
			IsActive bool   `json:"is_active"`
		} `json:"alerts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Alerts, 1)
	assert.Equal(t, "AAPL", response.Alerts[0].Symbol)
	assert.True(t, response.Alerts[0].IsActive)
}

func TestCreateAlertValidation(t *testing.T) {
	router := alertRouter(alerts.NewEngine(50))

	assert.Equal(t, http.StatusBadRequest, postAlert(router, `not json`).Code)
	assert.Equal(t, http.StatusBadRequest,
		postAlert(router, `{"symbol":"","target_price":150,"condition":"above","user_id":"u1"}`).Code)
	assert.Equal(t, http.StatusBadRequest,
		postAlert(router, `{"symbol":"AAPL","target_price":150,"condition":"sideways","user_id":"u1"}`).Code)
	assert.Equal(t, http.StatusBadRequest,
		postAlert(router, `{"symbol":"AAPL","target_price":-5,"condition":"above","user_id":"u1"}`).Code)
}

func TestCreateAlertOverCapacity(t *testing.T) {
	router := alertRouter(alerts.NewEngine(1))

	require.Equal(t, http.StatusCreated,
		postAlert(router, `{"symbol":"AAPL","target_price":150,"condition":"above","user_id":"u1"}`).Code)

	w := postAlert(router, `{"symbol":"GOOGL","target_price":2700,"condition":"below","user_id":"u1"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "capacity")
}

func TestDeleteAlertsReturnsRemovedCount(t *testing.T) {
	engine := alerts.NewEngine(50)
	router := alertRouter(engine)

	postAlert(router, `{"symbol":"AAPL","target_price":150,"condition":"above","user_id":"u1"}`)
	postAlert(router, `{"symbol":"AAPL","target_price":140,"condition":"below","user_id":"u1"}`)

	req := httptest.NewRequest(http.MethodDelete, "/api/alerts/AAPL/u1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var response struct {
		Removed int `json:"removed"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 2, response.Removed)
	assert.Empty(t, engine.Active("u1"))
}
