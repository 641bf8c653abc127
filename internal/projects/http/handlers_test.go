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
	"github.com/deskhq/desk-backend/internal/projects/repository"
	"github.com/deskhq/desk-backend/internal/store/memstore"
	taskrepo "github.com/deskhq/desk-backend/internal/tasks/repository"
	"github.com/deskhq/desk-backend/internal/workspace"
)

type listView[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

type response struct {
	OK       bool                          `json:"ok"`
	Added    *bool                         `json:"added"`
	Error    string                        `json:"error"`
	Project  *domain.Project               `json:"project"`
	Projects *listView[domain.Project]     `json:"projects"`
	Task     *domain.ProjectTask           `json:"task"`
	Tasks    *listView[domain.ProjectTask] `json:"tasks"`
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	client := memstore.New()
	subtasks := repository.NewSubtaskRepository(client)
	reg := workspace.NewRegistry(workspace.Sources{
		Tasks:    taskrepo.NewTaskRepository(client),
		Projects: repository.NewProjectRepository(client),
		Subtasks: func(id string) liststate.Source[domain.ProjectTask] { return subtasks.ForProject(id) },
	}, time.Minute)

	r := gin.New()
	g := r.Group("/projects", func(c *gin.Context) { c.Set(auth.CtxUserID, "user-1") })
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
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	var out response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return rr.Code, out
}

func TestProjectsHandler_Lifecycle(t *testing.T) {
	r := setupRouter(t)

	code, res := do(t, r, http.MethodPost, "/projects", `{"title":"Website redesign","category":"design","progress":20}`)
	require.Equal(t, http.StatusCreated, code)
	id := res.Project.ID
	assert.Equal(t, domain.TaskCounts{}, res.Project.Tasks)

	code, _ = do(t, r, http.MethodPost, "/projects", `{"title":"Tax filing","category":"finance"}`)
	require.Equal(t, http.StatusCreated, code)

	t.Run("filter by category and search", func(t *testing.T) {
		_, res := do(t, r, http.MethodGet, "/projects?category=design", "")
		require.Len(t, res.Projects.Items, 1)
		assert.Equal(t, id, res.Projects.Items[0].ID)

		_, res = do(t, r, http.MethodPut, "/projects/view", `{"category":"all","search":"tax"}`)
		require.Len(t, res.Projects.Items, 1)
		assert.Equal(t, "Tax filing", res.Projects.Items[0].Title)
		assert.Equal(t, 2, res.Projects.Total)
	})

	t.Run("progress is validated", func(t *testing.T) {
		code, _ := do(t, r, http.MethodPatch, "/projects/"+id, `{"progress":150}`)
		assert.Equal(t, http.StatusBadRequest, code)

		code, res := do(t, r, http.MethodPatch, "/projects/"+id, `{"progress":80,"description":"New landing page"}`)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, 80, res.Project.Progress)
		assert.Equal(t, "New landing page", *res.Project.Description)
	})

	t.Run("subtasks move counters only", func(t *testing.T) {
		code, res := do(t, r, http.MethodPost, "/projects/"+id+"/tasks", `{"title":"Wireframes"}`)
		require.Equal(t, http.StatusCreated, code)
		taskID := res.Task.ID
		assert.Equal(t, domain.TaskCounts{Total: 1, Completed: 0}, res.Project.Tasks)

		code, res = do(t, r, http.MethodPatch, "/projects/"+id+"/tasks/"+taskID+"/complete", "")
		require.Equal(t, http.StatusOK, code)
		assert.True(t, res.Task.Completed)
		assert.Equal(t, domain.TaskCounts{Total: 1, Completed: 1}, res.Project.Tasks)
		assert.Equal(t, 80, res.Project.Progress)

		code, res = do(t, r, http.MethodPatch, "/projects/"+id+"/tasks/"+taskID+"/complete", `{"completed":false}`)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, 0, res.Project.Tasks.Completed)

		_, res = do(t, r, http.MethodGet, "/projects/"+id+"/tasks", "")
		require.Len(t, res.Tasks.Items, 1)

		code, res = do(t, r, http.MethodPost, "/projects/"+id+"/tasks", `{"title":""}`)
		require.Equal(t, http.StatusOK, code)
		assert.False(t, *res.Added)
	})

	t.Run("select and delete", func(t *testing.T) {
		code, _ := do(t, r, http.MethodPost, "/projects/"+id+"/select", "")
		require.Equal(t, http.StatusOK, code)
		_, res := do(t, r, http.MethodGet, "/projects/selected", "")
		require.NotNil(t, res.Project)

		code, _ = do(t, r, http.MethodDelete, "/projects/"+id, "")
		require.Equal(t, http.StatusOK, code)

		_, res = do(t, r, http.MethodGet, "/projects/selected", "")
		assert.Nil(t, res.Project)

		code, _ = do(t, r, http.MethodGet, "/projects/"+id+"/tasks", "")
		assert.Equal(t, http.StatusNotFound, code)

		code, _ = do(t, r, http.MethodDelete, "/projects/"+id, "")
		assert.Equal(t, http.StatusNotFound, code)
	})
}

func TestProjectsHandler_CreateValidation(t *testing.T) {
	r := setupRouter(t)

	code, _ := do(t, r, http.MethodPost, "/projects", `{"title":"x","progress":-5}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, r, http.MethodPost, "/projects", `{"title":"x","category":"garden"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, res := do(t, r, http.MethodPost, "/projects", `{"title":"  "}`)
	assert.Equal(t, http.StatusOK, code)
	assert.False(t, *res.Added)
}
