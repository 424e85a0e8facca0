package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"stakemarket/internal/adapter/api/handler"
	"stakemarket/internal/adapter/api/middleware"
)

// CustomValidator adapts go-playground/validator to Echo's Validator hook.
type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// Setup wires all routes onto the Echo instance.
func Setup(
	e *echo.Echo,
	allowedOrigins []string,
	wsHandler *handler.WebSocketHandler,
	notificationHandler *handler.NotificationHandler,
	conversationHandler *handler.ConversationHandler,
	reportHandler *handler.ReportHandler,
	authMw *middleware.AuthMiddleware,
) {
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization, "X-Principal-Type"},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// The socket handshake carries its own credentials.
	e.GET("/ws", wsHandler.Handle)

	v1 := e.Group("/v1", authMw.Authenticate)

	v1.GET("/notifications", notificationHandler.List)
	v1.PUT("/notifications/read-all", notificationHandler.MarkAllRead)
	v1.GET("/notifications/unread-messages", notificationHandler.UnreadMessages)

	v1.GET("/conversations", conversationHandler.List)
	v1.GET("/conversations/direct/messages", conversationHandler.DirectMessages)
	v1.GET("/conversations/community/messages", conversationHandler.CommunityMessages)
	v1.GET("/messages/reactions", conversationHandler.Reactions)

	v1.POST("/reports", reportHandler.Create)
	v1.POST("/unblock-requests", reportHandler.RequestUnblock)

	admin := v1.Group("", authMw.RequireAdmin)
	admin.GET("/reports", reportHandler.List)
	admin.POST("/reports/:id/block", reportHandler.Block)
	admin.DELETE("/messages/:id", reportHandler.DeleteMessage)
}
