package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"foodshare_web/internal/apperrors"
)

// respondError 把應用層錯誤類別對應到 HTTP 狀態碼
// Conflict 與 InvalidTransition 都提示客戶端重新讀取目前狀態
func respondError(c *gin.Context, err error) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "內部錯誤"})
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Kind {
	case apperrors.KindAuth:
		status = http.StatusUnauthorized
	case apperrors.KindValidation:
		status = http.StatusBadRequest
	case apperrors.KindConflict, apperrors.KindInvalidTransition:
		status = http.StatusConflict
	case apperrors.KindPersistence, apperrors.KindTransient:
		status = http.StatusInternalServerError
	}

	c.JSON(status, gin.H{"error": appErr.Message})
}
