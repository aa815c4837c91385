package handler

import (
	"net/http"

	"github.com/ShevArtV/miniShop2/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// 失敗理由 → HTTPステータス
func statusOf(code usecase.ErrorCode) int {
	switch code {
	case usecase.CodeInvalidID, usecase.CodeInvalidCount:
		return http.StatusBadRequest
	case usecase.CodeProductNotFound, usecase.CodeLineNotFound:
		return http.StatusNotFound
	case usecase.CodeCountExceeded:
		return http.StatusUnprocessableEntity
	case usecase.CodeHookRejected:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeResult(c echo.Context, res usecase.Result) error {
	if res.Success {
		return c.JSON(http.StatusOK, res)
	}
	return c.JSON(statusOf(res.Code), res)
}
