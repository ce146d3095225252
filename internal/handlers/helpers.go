package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"stock-service/internal/models"
)

// Pagination bounds list endpoints.
type Pagination struct {
	DefaultLimit int
	MaxLimit     int
}

func (p Pagination) parse(c *gin.Context) (page, limit int) {
	page, limit = 1, p.DefaultLimit
	if n, err := strconv.Atoi(c.Query("page")); err == nil && n > 0 {
		page = n
	}
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n > 0 {
		limit = n
	}
	if p.MaxLimit > 0 && limit > p.MaxLimit {
		limit = p.MaxLimit
	}
	if limit <= 0 {
		limit = 20
	}
	return page, limit
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, models.ErrorResponse{
		Success: false,
		Error:   models.Error{Code: code, Message: message},
	})
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: data})
}

func respondMessage(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, models.SuccessResponse{Success: true, Data: data, Message: &message})
}

func parseIDParam(c *gin.Context, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+what+" ID")
		return uuid.Nil, false
	}
	return id, true
}

// FlashCookie carries the result of a browser form post to the next page.
const FlashCookie = "flash"

// Flash is the payload of FlashCookie.
type Flash struct {
	Level    string   `json:"level"`
	Messages []string `json:"messages"`
}

// Browsers drop cookies over 4 KB, so flash payloads stay well below that.
const (
	maxFlashMessageRunes = 200
	maxFlashCookieBytes  = 3000
)

func setFlash(c *gin.Context, flash Flash) {
	value, err := encodeFlash(flash)
	if err != nil {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(FlashCookie, value, 60, "/", "", false, false)
}

// encodeFlash shortens long messages and drops trailing ones until the
// encoded value fits in maxFlashCookieBytes. The first message is always kept.
func encodeFlash(flash Flash) (string, error) {
	messages := make([]string, len(flash.Messages))
	for i, m := range flash.Messages {
		if r := []rune(m); len(r) > maxFlashMessageRunes {
			m = string(r[:maxFlashMessageRunes-3]) + "..."
		}
		messages[i] = m
	}

	for {
		data, err := json.Marshal(Flash{Level: flash.Level, Messages: messages})
		if err != nil {
			return "", err
		}
		value := base64.URLEncoding.EncodeToString(data)
		if len(value) <= maxFlashCookieBytes || len(messages) <= 1 {
			return value, nil
		}
		messages = messages[:len(messages)-1]
	}
}

// DecodeFlash reads a FlashCookie value.
func DecodeFlash(value string) (Flash, error) {
	var flash Flash
	data, err := base64.URLEncoding.DecodeString(value)
	if err != nil {
		return flash, err
	}
	err = json.Unmarshal(data, &flash)
	return flash, err
}

// wantsRedirect reports whether the caller is a browser form post.
func wantsRedirect(c *gin.Context) bool {
	if v := c.PostForm("redirect"); v != "" && v != "false" && v != "0" {
		return true
	}
	accept := c.GetHeader("Accept")
	return strings.Contains(accept, "text/html") && !strings.Contains(accept, "application/json")
}
