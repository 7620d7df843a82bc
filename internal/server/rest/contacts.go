package rest

import (
	"net/http"

	"github.com/dmitrijs2005/contactkeeper/internal/server/models"
	"github.com/dmitrijs2005/contactkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

type contactRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"omitempty,email"`
	Phone    string `json:"phone"`
	Favorite *bool  `json:"favorite"`
}

func (r contactRequest) fields() models.ContactFields {
	return models.ContactFields{Name: r.Name, Email: r.Email, Phone: r.Phone, Favorite: r.Favorite}
}

type favoriteRequest struct {
	Favorite *bool `json:"favorite" binding:"required"`
}

type listContactsQuery struct {
	Page     int   `form:"page" binding:"omitempty,min=1"`
	Limit    int   `form:"limit" binding:"omitempty,min=1,max=100"`
	Favorite *bool `form:"favorite"`
}

func (s *Server) listContacts(c *gin.Context) {
	var q listContactsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortWith(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.contacts.List(c.Request.Context(), currentAccount(c).ID, services.ContactQuery{
		Page: q.Page, Limit: q.Limit, Favorite: q.Favorite,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"result": result})
}

func (s *Server) getContact(c *gin.Context) {
	result, err := s.contacts.Get(c.Request.Context(), currentAccount(c).ID, c.Param("contactId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"result": result})
}

func (s *Server) createContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWith(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.contacts.Create(c.Request.Context(), currentAccount(c).ID, req.fields())
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "", gin.H{"result": result})
}

func (s *Server) updateContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWith(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.contacts.Update(c.Request.Context(), currentAccount(c).ID, c.Param("contactId"), req.fields())
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "contact updated", gin.H{"result": result})
}

func (s *Server) setFavorite(c *gin.Context) {
	var req favoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWith(c, http.StatusBadRequest, "missing field favorite")
		return
	}

	result, err := s.contacts.SetFavorite(c.Request.Context(), currentAccount(c).ID, c.Param("contactId"), *req.Favorite)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "contact updated", gin.H{"result": result})
}

func (s *Server) deleteContact(c *gin.Context) {
	result, err := s.contacts.Delete(c.Request.Context(), currentAccount(c).ID, c.Param("contactId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "contact deleted", gin.H{"result": result})
}
