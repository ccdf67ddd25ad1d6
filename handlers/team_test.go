package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/phonginreallife/sentinel/services"
)

func newTeamRouter(t *testing.T) *gin.Engine {
	t.Helper()
	h := NewTeamHandler(services.NewTeamService(newTestStore(t), "teams", nil), nil)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_email", "me@example.com")
		c.Next()
	})
	g := r.Group("/team")
	g.GET("", h.ListTeams)
	g.POST("", h.CreateTeam)
	g.GET("/:key", h.GetTeam)
	g.PUT("/:key", h.UpdateTeam)
	g.DELETE("/:key", h.DeleteTeam)
	return r
}

func TestTeamHandler_Lifecycle(t *testing.T) {
	r := newTeamRouter(t)

	w := serve(t, r, http.MethodPost, "/team", map[string]interface{}{
		"team_name": "Platform",
		"members":   []interface{}{"a@example.com"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	created := w.Body.String()
	key := gjson.Get(created, "key").String()
	require.NotEmpty(t, key)
	assert.Equal(t, "me@example.com", gjson.Get(created, "created_by").String())

	w = serve(t, r, http.MethodPost, "/team", map[string]interface{}{"team_name": "Platform", "members": []interface{}{}})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Team 'Platform' already exists", gjson.Get(w.Body.String(), "detail").String())

	w = serve(t, r, http.MethodPut, "/team/"+key, map[string]interface{}{
		"team_name":     "Platform",
		"members":       []interface{}{"a@example.com", "b@example.com"},
		"created_by":    "me@example.com",
		"create_date":   gjson.Get(created, "create_date").String(),
		"modified_date": gjson.Get(created, "modified_date").String(),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(2), gjson.Get(w.Body.String(), "members.#").Int())

	w = serve(t, r, http.MethodGet, "/team", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `["Platform"]`, gjson.Get(w.Body.String(), "#.team_name").Raw)

	w = serve(t, r, http.MethodDelete, "/team/"+key, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `"Team deleted"`, w.Body.String())

	w = serve(t, r, http.MethodGet, "/team/"+key, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTeamHandler_MissingFields(t *testing.T) {
	r := newTeamRouter(t)

	w := serve(t, r, http.MethodPost, "/team", map[string]interface{}{"members": []interface{}{}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = serve(t, r, http.MethodPut, "/team/nope", map[string]interface{}{"team_name": "x", "members": []interface{}{}})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Team with key 'nope' does not exist", gjson.Get(w.Body.String(), "detail").String())
}
