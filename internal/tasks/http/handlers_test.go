package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskhq/desk-backend/internal/auth"
	"github.com/deskhq/desk-backend/internal/liststate"
	"github.com/deskhq/desk-backend/internal/projects/domain"
	projectrepo "github.com/deskhq/desk-backend/internal/projects/repository"
	"github.com/deskhq/desk-backend/internal/store/memstore"
	taskdomain "github.com/deskhq/desk-backend/internal/tasks/domain"
	"github.com/deskhq/desk-backend/internal/tasks/repository"
	"github.com/deskhq/desk-backend/internal/workspace"
)

type response struct {
	OK    bool             `json:"ok"`
	Added *bool            `json:"added"`
	Error string           `json:"error"`
	Task  *taskdomain.Task `json:"task"`
	Tasks *struct {
		Items []taskdomain.Task `json:"items"`
		Total int               `json:"total"`
		State string            `json:"state"`
	} `json:"tasks"`
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	client := memstore.New()
	subtasks := projectrepo.NewSubtaskRepository(client)
	reg := workspace.NewRegistry(workspace.Sources{
		Tasks:    repository.NewTaskRepository(client),
		Projects: projectrepo.NewProjectRepository(client),
		Subtasks: func(id string) liststate.Source[domain.ProjectTask] { return subtasks.ForProject(id) },
	}, time.Minute)

	r := gin.New()
	g := r.Group("/tasks", func(c *gin.Context) {
		if uid := c.GetHeader("X-User-Id"); uid != "" {
			c.Set(auth.CtxUserID, uid)
		}
	})
	New(reg).Register(g)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path, body string) (int, response) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-User-Id", "user-1")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	var out response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return rr.Code, out
}

func TestTasksHandler_CreateAndFilter(t *testing.T) {
	r := setupRouter(t)

	code, res := do(t, r, http.MethodPost, "/tasks", `{"title":"Prepare tax documents","category":"finance"}`)
	require.Equal(t, http.StatusCreated, code)
	require.NotNil(t, res.Task)
	assert.NotEmpty(t, res.Task.ID)

	code, _ = do(t, r, http.MethodPost, "/tasks", `{"title":"Schedule photoshoot","category":"design","completed":true}`)
	require.Equal(t, http.StatusCreated, code)
	code, _ = do(t, r, http.MethodPost, "/tasks", `{"title":"Team meeting","category":"business"}`)
	require.Equal(t, http.StatusCreated, code)

	t.Run("newest first", func(t *testing.T) {
		_, res := do(t, r, http.MethodGet, "/tasks", "")
		require.Len(t, res.Tasks.Items, 3)
		assert.Equal(t, "Team meeting", res.Tasks.Items[0].Title)
		assert.Equal(t, "loaded", res.Tasks.State)
	})

	t.Run("category filter", func(t *testing.T) {
		_, res := do(t, r, http.MethodGet, "/tasks?category=finance", "")
		require.Len(t, res.Tasks.Items, 1)
		assert.Equal(t, "Prepare tax documents", res.Tasks.Items[0].Title)
		assert.Equal(t, 3, res.Tasks.Total)
	})

	t.Run("criteria persist in the session", func(t *testing.T) {
		_, res := do(t, r, http.MethodGet, "/tasks", "")
		assert.Len(t, res.Tasks.Items, 1)

		_, res = do(t, r, http.MethodGet, "/tasks?category=all&q=SCHED&status=completed", "")
		require.Len(t, res.Tasks.Items, 1)
		assert.Equal(t, "Schedule photoshoot", res.Tasks.Items[0].Title)
	})

	t.Run("view update via body", func(t *testing.T) {
		code, res := do(t, r, http.MethodPut, "/tasks/view", `{"search":"","status":"pending"}`)
		require.Equal(t, http.StatusOK, code)
		assert.Len(t, res.Tasks.Items, 2)
	})

	t.Run("invalid filters", func(t *testing.T) {
		code, _ := do(t, r, http.MethodGet, "/tasks?category=chores", "")
		assert.Equal(t, http.StatusBadRequest, code)
		code, _ = do(t, r, http.MethodPut, "/tasks/view", `{"status":"someday"}`)
		assert.Equal(t, http.StatusBadRequest, code)
	})
}

func TestTasksHandler_EmptyTitleIsIgnored(t *testing.T) {
	r := setupRouter(t)

	code, res := do(t, r, http.MethodPost, "/tasks", `{"title":"   ","category":"urgent"}`)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, res.Added)
	assert.False(t, *res.Added)

	_, res = do(t, r, http.MethodGet, "/tasks", "")
	assert.Empty(t, res.Tasks.Items)
}

func TestTasksHandler_UpdateAndComplete(t *testing.T) {
	r := setupRouter(t)
	_, created := do(t, r, http.MethodPost, "/tasks", `{"title":"Call accountant","category":"finance","description":"Q1 receipts","due_date":"2026-04-02T09:00:00Z"}`)
	id := created.Task.ID

	code, res := do(t, r, http.MethodPatch, "/tasks/"+id, `{"title":"Call the accountant","description":null}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Call the accountant", res.Task.Title)
	assert.Nil(t, res.Task.Description)
	require.NotNil(t, res.Task.DueDate, "absent fields are kept")

	code, res = do(t, r, http.MethodPatch, "/tasks/"+id+"/complete", "")
	require.Equal(t, http.StatusOK, code)
	assert.True(t, res.Task.Completed)

	code, res = do(t, r, http.MethodPatch, "/tasks/"+id+"/complete", `{"completed":true}`)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, res.Task.Completed)

	code, _ = do(t, r, http.MethodPatch, "/tasks/missing/complete", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, r, http.MethodPatch, "/tasks/"+id, `{"category":"hobby"}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestTasksHandler_Selection(t *testing.T) {
	r := setupRouter(t)
	_, created := do(t, r, http.MethodPost, "/tasks", `{"title":"Walk the dog"}`)
	assert.Equal(t, "personal", string(created.Task.Category))

	_, res := do(t, r, http.MethodGet, "/tasks/selected", "")
	assert.Nil(t, res.Task)

	code, _ := do(t, r, http.MethodPost, "/tasks/"+created.Task.ID+"/select", "")
	require.Equal(t, http.StatusOK, code)
	_, res = do(t, r, http.MethodGet, "/tasks/selected", "")
	require.NotNil(t, res.Task)
	assert.Equal(t, created.Task.ID, res.Task.ID)

	code, _ = do(t, r, http.MethodPost, "/tasks/nope/select", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, res = do(t, r, http.MethodPost, "/tasks/refresh", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, res.Tasks.Items, 1)
}

func TestTasksHandler_RequiresUser(t *testing.T) {
	r := setupRouter(t)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/tasks", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"ok":false,"error":"authentication required"}`, rr.Body.String())
}
