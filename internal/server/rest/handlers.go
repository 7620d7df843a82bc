package rest

import (
	"net/http"

	"github.com/dmitrijs2005/contactkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type subscriptionRequest struct {
	Subscription string `json:"subscription" binding:"required,oneof=starter pro business"`
}

type avatarCommitRequest struct {
	Key string `json:"key" binding:"required"`
}

func (s *Server) ping(c *gin.Context) {
	respond(c, http.StatusOK, "pong", nil)
}

func (s *Server) signup(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWith(c, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := s.accounts.Signup(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}

	respond(c, http.StatusCreated, "", gin.H{"user": summary})
}

func (s *Server) verify(c *gin.Context) {
	if err := s.accounts.Verify(c.Request.Context(), c.Param("verificationToken")); err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Verification successful", nil)
}

func (s *Server) resendVerification(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWith(c, http.StatusBadRequest, "missing required field email")
		return
	}

	outcome, err := s.accounts.ResendVerification(c.Request.Context(), req.Email)
	if err != nil {
		s.fail(c, err)
		return
	}

	// повторная отправка для подтверждённого аккаунта не ошибка
	if outcome == services.ResendAlreadyVerified {
		respond(c, http.StatusOK, "Verification has already been passed", nil)
		return
	}
	respond(c, http.StatusOK, "Verification email sent", nil)
}

func (s *Server) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWith(c, http.StatusBadRequest, err.Error())
		return
	}

	token, err := s.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}

	respond(c, http.StatusOK, "", gin.H{"token": token})
}

func (s *Server) logout(c *gin.Context) {
	if err := s.accounts.Logout(c.Request.Context(), currentAccount(c).ID); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) current(c *gin.Context) {
	summary := s.accounts.Current(c.Request.Context(), currentAccount(c))
	respond(c, http.StatusOK, "", gin.H{"user": summary})
}

func (s *Server) changeSubscription(c *gin.Context) {
	var req subscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWith(c, http.StatusBadRequest, err.Error())
		return
	}

	account, err := s.accounts.ChangeSubscription(c.Request.Context(), currentAccount(c).ID, req.Subscription)
	if err != nil {
		s.fail(c, err)
		return
	}

	respond(c, http.StatusOK, "subscription updated", gin.H{"result": account.Summary()})
}

func (s *Server) requestAvatarUpload(c *gin.Context) {
	upload, err := s.avatars.RequestUpload(c.Request.Context(), currentAccount(c).ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", upload)
}

func (s *Server) commitAvatar(c *gin.Context) {
	var req avatarCommitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWith(c, http.StatusBadRequest, err.Error())
		return
	}

	avatarURL, err := s.avatars.Commit(c.Request.Context(), currentAccount(c).ID, req.Key)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"avatarURL": avatarURL})
}
