package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/Navin1-11-04/crisp/internal/api/handlers"
	"github.com/Navin1-11-04/crisp/internal/api/middleware"
)

type Deps struct {
	Resume    *handlers.ResumeHandler
	Session   *handlers.SessionHandler
	Chat      *handlers.ChatHandler
	Interview *handlers.InterviewHandler
	Dashboard *handlers.DashboardHandler
	WS        *handlers.WSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Protected routes (JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth())

	auth.POST("/resume/upload", d.Resume.Upload)

	auth.GET("/interview/session", d.Session.Get)
	auth.POST("/interview/session/manual", d.Session.StartManual)
	auth.PUT("/interview/session/contact", d.Session.UpdateContact)
	auth.DELETE("/interview/session", d.Session.Clear)
	auth.GET("/interview/session/revival", d.Session.Revival)
	auth.POST("/interview/session/revival", d.Session.ResolveRevival)
	auth.GET("/interview/completed", d.Session.ListCompleted)

	auth.POST("/interview/chat", d.Chat.Send)

	auth.POST("/interview/start", d.Interview.Start)
	auth.POST("/interview/answer", d.Interview.Answer)
	auth.POST("/interview/pause", d.Interview.Pause)
	auth.POST("/interview/resume", d.Interview.Resume)

	// WebSocket (timer events)
	auth.GET("/ws/interview", d.WS.SessionWS)

	// Interviewer dashboard
	dash := auth.Group("/dashboard")
	dash.Use(middleware.RequireInterviewer())
	dash.GET("/candidates", d.Dashboard.Candidates)
	dash.GET("/candidates/:owner_id", d.Dashboard.Candidate)
	dash.GET("/interviews", d.Dashboard.Interviews)
	dash.GET("/candidates/:owner_id/transcripts/:session_id", d.Dashboard.Transcript)
}
