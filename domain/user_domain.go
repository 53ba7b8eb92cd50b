package domain

import (
	"fmt"
)

const ReservedUsername = "me"

var (
	MessageSuccessRegister         = "user registered successfully"
	MessageSuccessLogin            = "login successful"
	MessageSuccessLogout           = "logout successful"
	MessageSuccessGetUsers         = "success get users"
	MessageSuccessGetUser          = "success get user"
	MessageSuccessSetPassword      = "password changed successfully"
	MessageSuccessResetPassword    = "if the email is registered, a reset link has been sent"
	MessageSuccessConfirmReset     = "password reset successfully"
	MessageSuccessUpdateAvatar     = "avatar updated successfully"
	MessageSuccessDeleteAvatar     = "avatar deleted successfully"
	MessageSuccessSubscribe        = "subscribed successfully"
	MessageSuccessUnsubscribe      = "unsubscribed successfully"
	MessageSuccessGetSubscriptions = "success get subscriptions"

	MessageFailedRegister         = "failed to register user"
	MessageFailedLogin            = "failed to login"
	MessageFailedGetUsers         = "failed to get users"
	MessageFailedGetUser          = "failed to get user"
	MessageFailedSetPassword      = "failed to change password"
	MessageFailedResetPassword    = "failed to request password reset"
	MessageFailedConfirmReset     = "failed to reset password"
	MessageFailedUpdateAvatar     = "failed to update avatar"
	MessageFailedDeleteAvatar     = "failed to delete avatar"
	MessageFailedSubscribe        = "failed to subscribe"
	MessageFailedUnsubscribe      = "failed to unsubscribe"
	MessageFailedGetSubscriptions = "failed to get subscriptions"

	ErrUserNotFound          = fmt.Errorf("user %w", ErrNotFound)
	ErrEmailAlreadyExists    = fmt.Errorf("user with this email %w", ErrDuplicate)
	ErrUsernameAlreadyExists = fmt.Errorf("user with this username %w", ErrDuplicate)
	ErrEmailEqualsUsername   = fmt.Errorf("%w: username must not be equal to email", ErrValidation)
	ErrReservedUsername      = fmt.Errorf("%w: username %q is reserved", ErrValidation, ReservedUsername)
	ErrInvalidUsername       = fmt.Errorf("%w: username may contain only letters, digits and @/./+/-/_", ErrValidation)
	ErrInvalidCredentials    = fmt.Errorf("%w: invalid email or password", ErrValidation)
	ErrWrongCurrentPassword  = fmt.Errorf("%w: current password is incorrect", ErrValidation)
	ErrInvalidResetToken     = fmt.Errorf("%w: reset token is invalid or expired", ErrValidation)
	ErrAlreadySubscribed     = fmt.Errorf("subscription %w", ErrDuplicate)
	ErrNotSubscribed         = fmt.Errorf("subscription %w", ErrNotFound)
	ErrInvalidImage          = fmt.Errorf("%w: image must be a base64 data URI", ErrValidation)
	ErrUnsupportedImageType  = fmt.Errorf("%w: unsupported image type", ErrValidation)
)

type (
	RegisterRequest struct {
		Email     string `json:"email" validate:"required,email,max=254"`
		Username  string `json:"username" validate:"required,max=150,username"`
		FirstName string `json:"first_name" validate:"required,max=150"`
		LastName  string `json:"last_name" validate:"required,max=150"`
		Password  string `json:"password" validate:"required,min=8,max=128"`
	}

	RegisterResponse struct {
		ID        uint   `json:"id"`
		Email     string `json:"email"`
		Username  string `json:"username"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}

	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		AuthToken string `json:"auth_token"`
	}

	// UserResponse is the author summary embedded in recipes and user listings.
	UserResponse struct {
		ID           uint   `json:"id"`
		Email        string `json:"email"`
		Username     string `json:"username"`
		FirstName    string `json:"first_name"`
		LastName     string `json:"last_name"`
		IsSubscribed bool   `json:"is_subscribed"`
		Avatar       string `json:"avatar"`
	}

	SetPasswordRequest struct {
		NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
		CurrentPassword string `json:"current_password" validate:"required"`
	}

	ResetPasswordRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	ResetPasswordConfirmRequest struct {
		Token       string `json:"token" validate:"required"`
		NewPassword string `json:"new_password" validate:"required,min=8,max=128"`
	}

	AvatarRequest struct {
		Avatar string `json:"avatar" validate:"required"`
	}

	AvatarResponse struct {
		Avatar string `json:"avatar"`
	}

	SubscriptionResponse struct {
		UserResponse
		Recipes      []RecipeShort `json:"recipes"`
		RecipesCount int64         `json:"recipes_count"`
	}
)
