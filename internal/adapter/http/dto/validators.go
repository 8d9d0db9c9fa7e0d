package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/pkg/apperror"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("wallet_id", validateWalletID)
		_ = v.RegisterValidation("operation_type", validateOperationType)
	}
}

// validateWalletID accepts the canonical hyphenated UUID form only.
func validateWalletID(fl validator.FieldLevel) bool {
	_, err := domain.ParseWalletID(fl.Field().String())
	return err == nil
}

func validateOperationType(fl validator.FieldLevel) bool {
	_, err := domain.ParseOperationType(fl.Field().String())
	return err == nil
}

// BindingError maps a gin binding failure to the matching validation code.
// Failures on uuid, operation_type and amount get their own codes; anything
// else (malformed JSON, unknown query parameter types) is VAL_000. A body cut
// off by http.MaxBytesReader is 413.
func BindingError(err error) *apperror.AppError {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apperror.ErrBodyTooLarge()
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		if appErr := fieldError(verrs[0].Field()); appErr != nil {
			return appErr
		}
		return apperror.Validation(fmt.Sprintf("field %s failed on %s", verrs[0].Field(), verrs[0].Tag()))
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if appErr := fieldError(typeErr.Field); appErr != nil {
			return appErr
		}
		return apperror.Validation(fmt.Sprintf("field %s has the wrong type", typeErr.Field))
	}

	return apperror.Validation("malformed request: " + err.Error())
}

func fieldError(field string) *apperror.AppError {
	switch strings.ToLower(field) {
	case "uuid":
		return apperror.ErrInvalidWalletID()
	case "operationtype", "operation_type":
		return apperror.ErrInvalidOperationType()
	case "amount":
		return apperror.ErrInvalidAmount()
	}
	return nil
}
