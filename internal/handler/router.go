package handler

import (
	"healthwatch/internal/middleware"
	"healthwatch/internal/model"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth    *AuthHandler
	Report  *ReportHandler
	Alert   *AlertHandler
	Contact *ContactHandler
	Support *SupportHandler
	Stats   *StatsHandler
}

// NewRouter mounts the full route surface with authentication and role gates.
func NewRouter(h Handlers, jwtSecret string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())

	r.GET("/health", Health)

	api := r.Group("/api")

	auth := middleware.Authenticate(jwtSecret)
	staff := middleware.Authorize(model.RoleHealthWorker, model.RoleAdmin, model.RoleNationalAdmin)
	admins := middleware.Authorize(model.RoleAdmin, model.RoleNationalAdmin)
	anyRole := middleware.Authorize(model.RoleCommunity, model.RoleHealthWorker, model.RoleAdmin, model.RoleNationalAdmin)

	// Identity
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	api.GET("/auth/me", auth, h.Auth.Me)
	api.GET("/users", auth, admins, h.Auth.ListUsers)

	// Reports
	api.GET("/reports", auth, staff, h.Report.GetReports)
	api.POST("/reports", auth, staff, h.Report.CreateReport)
	api.DELETE("/reports/location/:location", auth, middleware.Authorize(model.RoleNationalAdmin), h.Report.DeleteByLocation)
	api.GET("/map-data", h.Report.GetMapData)

	// Contact groups
	api.GET("/contacts", auth, staff, h.Contact.GetGroups)
	api.POST("/contacts", auth, staff, h.Contact.CreateGroup)
	api.DELETE("/contacts/:id", auth, staff, h.Contact.DeleteGroup)

	// Stats and map support
	api.GET("/stats", h.Stats.GetStats)
	api.GET("/geocode", h.Stats.Geocode)

	// Alerts
	api.GET("/alerts", auth, anyRole, h.Alert.GetAlerts)
	api.POST("/alerts", auth, staff, h.Alert.CreateAlert)
	api.PATCH("/alerts/:id/approve", auth, admins, h.Alert.ApproveAlert)
	api.PATCH("/alerts/:id", auth, staff, h.Alert.UpdateAlert)
	api.DELETE("/alerts/:id", auth, staff, h.Alert.DeleteAlert)

	// Support tickets
	api.GET("/support", auth, anyRole, h.Support.GetTickets)
	api.POST("/support", auth, anyRole, h.Support.CreateTicket)
	api.POST("/support/:id/messages", auth, anyRole, h.Support.Reply)
	api.PATCH("/support/:id", auth, staff, h.Support.UpdateTicket)

	return r
}
