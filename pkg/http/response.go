package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// DataResponse writes data with the standard status text as message.
func DataResponse(c echo.Context, statusCode int, data interface{}) error {
	return MessageResponse(c, statusCode, http.StatusText(statusCode), data)
}

// MessageResponse writes the envelope with a caller-facing message.
func MessageResponse(c echo.Context, statusCode int, message string, data interface{}) error {
	return c.JSON(statusCode, APIResponse{
		Status:  statusCode,
		Message: message,
		Data:    data,
	})
}

func SuccessResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusOK, data)
}

func CreatedResponse(c echo.Context, message string, data interface{}) error {
	return MessageResponse(c, http.StatusCreated, message, data)
}

func AcceptedResponse(c echo.Context, message string, data interface{}) error {
	return MessageResponse(c, http.StatusAccepted, message, data)
}

func BadRequestResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusBadRequest, data)
}

func InternalServerErrorResponse(c echo.Context) error {
	return MessageResponse(c, http.StatusInternalServerError, "Something went wrong", nil)
}

// AppErrorResponse writes an *AppError with its own status and message.
// Any other error is reported as a 500 without details.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return MessageResponse(c, appErr.Status, appErr.Message, []*AppError{appErr})
	}
	return InternalServerErrorResponse(c)
}
