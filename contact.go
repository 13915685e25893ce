package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type contactForm struct {
	FullName string `form:"fullName" binding:"required"`
	Email    string `form:"email" binding:"required,email"`
	Message  string `form:"message" binding:"required"`
}

// contact validates the form and answers with an HTMX fragment. The
// message is not delivered anywhere.
func (s *server) contact(c *gin.Context) {
	var form contactForm
	if err := c.ShouldBind(&form); err != nil || blank(form.FullName, form.Message) {
		c.HTML(http.StatusOK, "contact-error.html", gin.H{
			"error": ContactMissing,
		})
		return
	}

	s.log.Info("contact form received", "from", hashIP(c.ClientIP(), s.hashingSalt), "length", len(form.Message))
	c.HTML(http.StatusOK, "contact-success.html", gin.H{
		"success": ContactSuccess,
		"name":    strings.TrimSpace(form.FullName),
	})
}

func blank(fields ...string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) == "" {
			return true
		}
	}
	return false
}
