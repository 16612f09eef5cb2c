package seeders

import (
	"fmt"

	"github.com/lac-hong-legacy/guessword_api/dto"
	"github.com/lac-hong-legacy/guessword_api/services"
)

// OperatorHash validates password like the login endpoint does and returns
// the value for OPERATOR_PASSWORD_HASH.
func OperatorHash(password string) (string, error) {
	req := dto.OperatorLoginRequest{Password: password}
	if err := req.Validate(); err != nil {
		return "", fmt.Errorf("password rejected: %v", dto.FormatValidationErrors(err))
	}
	return services.HashPassword(password)
}
