package domain

import (
	"errors"
	"fmt"
)

const (
	DefaultPageLimit = 6
	MaxPageLimit     = 100
)

var (
	MessageFailedBodyRequest    = "failed to parse request body"
	MessageFailedProcessRequest = "failed to process request"
	MessageFailedTokenInvalid   = "failed to token invalid"
	MessageFailedGetToken       = "failed to get token"
	MessageInternalError        = "internal server error"

	// Error kinds. Concrete errors wrap one of these so callers can branch with errors.Is.
	ErrValidation       = errors.New("validation error")
	ErrDuplicate        = errors.New("already exists")
	ErrNotFound         = errors.New("not found")
	ErrSelfSubscription = errors.New("cannot subscribe to yourself")
	ErrForbidden        = errors.New("forbidden")
	ErrUnauthorized     = errors.New("unauthorized")

	ErrParseID       = fmt.Errorf("%w: invalid id", ErrValidation)
	ErrTokenNotFound = fmt.Errorf("%w: authentication credentials were not provided", ErrUnauthorized)
	ErrTokenExpired  = fmt.Errorf("%w: token expired", ErrUnauthorized)
	ErrTokenInvalid  = fmt.Errorf("%w: token invalid", ErrUnauthorized)
)

type (
	Pagination struct {
		Page       int   `json:"page"`
		Limit      int   `json:"limit"`
		Total      int64 `json:"total"`
		TotalPages int64 `json:"total_pages"`
	}

	PaginatedResponse[T any] struct {
		Results    []T        `json:"results"`
		Pagination Pagination `json:"pagination"`
	}
)

func NewPagination(page, limit int, total int64) Pagination {
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + int64(limit) - 1) / int64(limit),
	}
}
