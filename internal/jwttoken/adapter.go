package jwttoken

import (
	"solidarlink/internal/platform/middleware"
)

// ToMiddlewareClaims converts token claims into the shape the auth middleware
// consumes.
func ToMiddlewareClaims(claims *Claims) *middleware.Claims {
	return &middleware.Claims{
		UserID:  claims.UserID,
		Role:    claims.Role,
		TokenID: claims.ID, // JWT ID for revocation tracking
	}
}

// ServiceAdapter adapts Service to middleware.TokenValidator.
type ServiceAdapter struct {
	service *Service
}

func NewServiceAdapter(service *Service) *ServiceAdapter {
	return &ServiceAdapter{service: service}
}

func (a *ServiceAdapter) ValidateToken(tokenString string) (*middleware.Claims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims), nil
}
