package server

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ahmaddaku97-design/Aim/internal/auth"
	"github.com/ahmaddaku97-design/Aim/internal/database"
	"github.com/ahmaddaku97-design/Aim/internal/logger"
	"github.com/ahmaddaku97-design/Aim/internal/model"
	"github.com/ahmaddaku97-design/Aim/internal/service"
)

const contextUserID = "userID"

// buildRouter 注册HTTP路由
func (s *AppServer) buildRouter() *gin.Engine {
	if !s.config.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	api := engine.Group("/api")
	{
		api.POST("/signup", s.handleSignup)
		api.POST("/login", s.handleLogin)

		authed := api.Group("", s.authMiddleware())
		{
			authed.POST("/logout", s.handleLogout)

			authed.GET("/me", s.handleMe)
			authed.GET("/me/feed", s.handleAccountFeed)
			authed.PATCH("/me/name", s.handleUpdateName)
			authed.POST("/me/avatar", s.handleSetAvatar)
			authed.POST("/checkin", s.handleCheckIn)

			authed.GET("/friends", s.handleListFriends)
			authed.POST("/friends", s.handleAddFriend)

			authed.GET("/leaderboard", s.handleLeaderboard)
			authed.GET("/leaderboard/feed", s.handleLeaderboardFeed)

			authed.POST("/withdrawals", s.handleSubmitWithdrawal)
			authed.GET("/withdrawals", s.handleWithdrawalHistory)

			authed.GET("/rooms", s.handleListRooms)
			authed.POST("/rooms", s.handleCreateRoom)
			authed.POST("/rooms/join", s.handleJoinRoom)
			authed.GET("/rooms/feed", s.handleRoomsFeed)

			authed.POST("/chat/messages", s.handleSendMessage)
			authed.GET("/chat/history", s.handleChatHistory)
			authed.GET("/chat/feed", s.handleChatFeed)
		}
	}

	return engine
}

// authMiddleware 校验Bearer token，顺带刷新在线状态
func (s *AppServer) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		userID, err := s.verifier.Verify(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		s.presence.Touch(userID)
		c.Set(contextUserID, userID)
		c.Next()
	}
}

func currentUserID(c *gin.Context) string {
	return c.GetString(contextUserID)
}

// writeError 业务错误到HTTP状态码的映射
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, database.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrRoomNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrAlreadyCheckedIn):
		status = http.StatusConflict
	case errors.Is(err, service.ErrWithdrawalLocked),
		errors.Is(err, database.ErrInsufficientCoins):
		status = http.StatusConflict
	case errors.Is(err, service.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, auth.ErrInvalidToken):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrInvalidMethod),
		errors.Is(err, service.ErrAccountDetails),
		errors.Is(err, service.ErrPasswordTooShort),
		errors.Is(err, service.ErrNameRequired):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		logger.Errorf("request failed: %v", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

type signupRequest struct {
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email" binding:"required"`
	Password     string `json:"password" binding:"required"`
	ReferralCode string `json:"referralCode"`
}

func (s *AppServer) handleSignup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := s.accounts.ValidateSignup(req.Name, req.Password); err != nil {
		writeError(c, err)
		return
	}

	if s.provider == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "auth provider unavailable"})
		return
	}

	uid, err := s.provider.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "registration failed"})
		return
	}

	user, err := s.accounts.Signup(c.Request.Context(), uid, req.Name, req.Email, req.ReferralCode)
	if err != nil {
		writeError(c, err)
		return
	}

	token, err := s.sessions.CreateSession(user.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token, "user": user})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *AppServer) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if s.provider == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "auth provider unavailable"})
		return
	}

	uid, err := s.provider.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	user, err := s.accounts.Get(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}

	token, err := s.sessions.CreateSession(uid)
	if err != nil {
		writeError(c, err)
		return
	}

	s.presence.Touch(uid)
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

func (s *AppServer) handleLogout(c *gin.Context) {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	s.sessions.DeleteSession(token)
	s.presence.SetOffline(currentUserID(c))
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *AppServer) handleMe(c *gin.Context) {
	user, err := s.accounts.Get(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *AppServer) handleCheckIn(c *gin.Context) {
	streak, err := s.streaks.CheckIn(c.Request.Context(), currentUserID(c), time.Now())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"streak": streak})
}

type updateNameRequest struct {
	Name string `json:"name" binding:"required"`
}

func (s *AppServer) handleUpdateName(c *gin.Context) {
	var req updateNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := s.accounts.UpdateName(c.Request.Context(), currentUserID(c), req.Name); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *AppServer) handleSetAvatar(c *gin.Context) {
	if s.blobs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "blob storage unavailable"})
		return
	}

	// 头像图片直接以请求体上传
	body := http.MaxBytesReader(c.Writer, c.Request.Body, 5<<20)
	defer body.Close()

	url, err := s.accounts.SetAvatar(c.Request.Context(), currentUserID(c), body, c.ContentType())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"avatar": url})
}

type addFriendRequest struct {
	ID     string `json:"id" binding:"required"`
	Name   string `json:"name" binding:"required"`
	Avatar string `json:"avatar"`
}

func (s *AppServer) handleAddFriend(c *gin.Context) {
	var req addFriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	friend := model.Friend{ID: req.ID, Name: req.Name, Avatar: req.Avatar}
	if err := s.accounts.AddFriend(c.Request.Context(), currentUserID(c), friend); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *AppServer) handleListFriends(c *gin.Context) {
	friends, err := s.accounts.Friends(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

func (s *AppServer) handleLeaderboard(c *gin.Context) {
	entries, err := s.accounts.Leaderboard(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}

type withdrawalRequestBody struct {
	Method        string `json:"method" binding:"required"`
	AccountTitle  string `json:"accountTitle" binding:"required"`
	AccountNumber string `json:"accountNumber" binding:"required"`
}

func (s *AppServer) handleSubmitWithdrawal(c *gin.Context) {
	var req withdrawalRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	wr, err := s.withdrawals.Submit(c.Request.Context(), currentUserID(c), req.Method, req.AccountTitle, req.AccountNumber)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, wr)
}

func (s *AppServer) handleWithdrawalHistory(c *gin.Context) {
	history, err := s.withdrawals.History(c.Request.Context(), currentUserID(c), 0)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": history})
}

func (s *AppServer) handleListRooms(c *gin.Context) {
	rooms, err := s.chat.ListRooms(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

func (s *AppServer) handleCreateRoom(c *gin.Context) {
	user, err := s.accounts.Get(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	room, err := s.chat.CreateRoom(c.Request.Context(), user)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, room)
}

type joinRoomRequest struct {
	Code string `json:"code" binding:"required"`
}

func (s *AppServer) handleJoinRoom(c *gin.Context) {
	var req joinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	room, err := s.chat.JoinRoom(c.Request.Context(), req.Code)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

type sendMessageRequest struct {
	RoomID string `json:"roomId"`
	Text   string `json:"text" binding:"required"`
}

func (s *AppServer) handleSendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := s.accounts.Get(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	msg, err := s.chat.Send(c.Request.Context(), scopeFromQuery(req.RoomID), user, req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (s *AppServer) handleChatHistory(c *gin.Context) {
	messages, err := s.chat.History(c.Request.Context(), scopeFromQuery(c.Query("room")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func scopeFromQuery(roomID string) model.ChatScope {
	if roomID == "" {
		return model.WorldScope()
	}
	return model.RoomScope(roomID)
}

// handleAccountFeed 账号变化SSE推送
func (s *AppServer) handleAccountFeed(c *gin.Context) {
	sub := s.accounts.WatchAccount(currentUserID(c))
	defer sub.Cancel()
	streamEvents(c, sub.Events(), "account")
}

// handleLeaderboardFeed 排行榜变化SSE推送，收到信号后重新读取榜单
func (s *AppServer) handleLeaderboardFeed(c *gin.Context) {
	sub := s.accounts.WatchLeaderboard()
	defer sub.Cancel()

	c.Stream(func(w io.Writer) bool {
		select {
		case _, ok := <-sub.Events():
			if !ok {
				return false
			}
			entries, err := s.accounts.Leaderboard(c.Request.Context())
			if err != nil {
				logger.Errorf("failed to load leaderboard for feed: %v", err)
				return true
			}
			c.SSEvent("leaderboard", entries)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (s *AppServer) handleRoomsFeed(c *gin.Context) {
	sub := s.chat.WatchRooms()
	defer sub.Cancel()
	streamEvents(c, sub.Events(), "room")
}

// handleChatFeed 单频道消息快照SSE推送，每个连接独立聚合
func (s *AppServer) handleChatFeed(c *gin.Context) {
	sync := service.NewSynchronizer(s.chat)
	defer sync.Close()

	if err := sync.Switch(c.Request.Context(), scopeFromQuery(c.Query("room"))); err != nil {
		writeError(c, err)
		return
	}

	c.Stream(func(w io.Writer) bool {
		select {
		case snapshot, ok := <-sync.Snapshots():
			if !ok {
				return false
			}
			c.SSEvent("messages", snapshot)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// streamEvents 把订阅事件转为SSE流
func streamEvents(c *gin.Context, events <-chan interface{}, name string) {
	c.Stream(func(w io.Writer) bool {
		select {
		case data, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(name, data)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
