package presenters

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"github.com/kdatlt/foodgram/domain"
)

func TestStatusFromError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, fiber.StatusOK},
		{domain.ErrEmptyTags, fiber.StatusBadRequest},
		{domain.ErrAlreadyFavorited, fiber.StatusBadRequest},
		{domain.ErrSelfSubscription, fiber.StatusBadRequest},
		{domain.ErrTokenExpired, fiber.StatusUnauthorized},
		{domain.ErrUnauthorizedRecipeAccess, fiber.StatusForbidden},
		{domain.ErrRecipeNotFound, fiber.StatusNotFound},
		{domain.ErrNotInCart, fiber.StatusNotFound},
		{fmt.Errorf("saving: %w", domain.ErrNotSubscribed), fiber.StatusNotFound},
		{errors.New("connection reset"), fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusFromError(tc.err), "%v", tc.err)
	}
}
