package routes

import (
	"github.com/gin-gonic/gin"

	authhttp "github.com/deskhq/desk-backend/internal/auth/http"
	authmw "github.com/deskhq/desk-backend/internal/auth/middleware"
	authservice "github.com/deskhq/desk-backend/internal/auth/service"
	"github.com/deskhq/desk-backend/internal/calendar"
	"github.com/deskhq/desk-backend/internal/commerce"
	"github.com/deskhq/desk-backend/internal/finances"
	projecthttp "github.com/deskhq/desk-backend/internal/projects/http"
	taskhttp "github.com/deskhq/desk-backend/internal/tasks/http"
	"github.com/deskhq/desk-backend/internal/workspace"
)

type V1Deps struct {
	// Auth resolves the caller; every /api/v1 route sits behind it.
	Auth     gin.HandlerFunc
	Users    *authservice.AuthService // nil without a database
	Sessions *workspace.Registry
	Commerce *commerce.Service
	Tracker  *commerce.Tracker
	Finances *finances.Service
}

func RegisterV1(r *gin.Engine, dep V1Deps) {
	api := r.Group("/api/v1")
	api.Use(dep.Auth)

	if dep.Users != nil {
		api.Use(authmw.EnsureUser(dep.Users))
		authhttp.New(dep.Users).Register(api.Group("/auth"))
	}

	workspace.Register(api, dep.Sessions)
	taskhttp.New(dep.Sessions).Register(api.Group("/tasks"))
	projecthttp.New(dep.Sessions).Register(api.Group("/projects"))
	calendar.NewHandler(dep.Sessions).Register(api.Group("/calendar"))

	fin := finances.NewHandler(dep.Finances, dep.Sessions)
	fin.RegisterDashboard(api.Group("/dashboard"))
	financesGroup := api.Group("/finances")
	fin.RegisterFinances(financesGroup)
	commerce.NewHandler(dep.Commerce, dep.Tracker, dep.Sessions).Register(financesGroup.Group("/store"))
}
